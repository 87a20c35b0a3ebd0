package tracker

import (
	"time"
)

// DefaultFrameWindow is the number of recently admitted frame timestamps
// kept for validating detection batches.
const DefaultFrameWindow = 5

// FrameGate validates and deduplicates incoming frame timestamps against
// a bounded window of recently admitted frames.  Frames must arrive in
// monotonic non-decreasing stamp order; out-of-order or duplicate frames
// are rejected, not treated as errors.
//
// The gate starts uninitialized and performs no admission until the first
// detection batch has been processed, mirroring the pipeline rule that
// tracks must exist before frames are worth tracking against.
type FrameGate struct {
	// window holds the last N admitted frame stamps, oldest first
	window []time.Time
	size   int
	// initialized becomes true once the first detection batch has been
	// accepted for association
	initialized bool
}

// NewFrameGate creates a FrameGate keeping the last size admitted frame
// timestamps.  A size of zero or less falls back to DefaultFrameWindow.
func NewFrameGate(size int) *FrameGate {
	if size <= 0 {
		size = DefaultFrameWindow
	}
	return &FrameGate{
		window: make([]time.Time, 0, size),
		size:   size,
	}
}

// AdmitFrame decides whether a frame timestamp may enter the pipeline and
// records it on success.  A stamp strictly older than the most recently
// admitted one is rejected, keeping admissions monotonic non-decreasing,
// and a stamp already present in the window is rejected as a duplicate.
//
// Comparison is on the full timestamp.  The reference implementation
// compared only the sub-second component which misorders frames across
// second boundaries; that behavior is not reproduced.
func (g *FrameGate) AdmitFrame(stamp time.Time) bool {

	if n := len(g.window); n > 0 {
		latest := g.window[n-1]
		if stamp.Before(latest) {
			return false
		}
	}

	if g.Admitted(stamp) {
		return false
	}

	g.window = append(g.window, stamp)
	if len(g.window) > g.size {
		g.window = g.window[1:]
	}

	return true
}

// Admitted reports whether the given timestamp is present in the window
// of recently admitted frames.  Detection batches are only associated
// when their frame was previously admitted.
func (g *FrameGate) Admitted(stamp time.Time) bool {
	for _, s := range g.window {
		if s.Equal(stamp) {
			return true
		}
	}
	return false
}

// Initialized reports whether the first detection batch has been accepted
func (g *FrameGate) Initialized() bool {
	return g.initialized
}

// markInitialized transitions the gate out of its uninitialized state
func (g *FrameGate) markInitialized() {
	g.initialized = true
}

// WindowLen returns the number of admitted stamps currently held
func (g *FrameGate) WindowLen() int {
	return len(g.window)
}
