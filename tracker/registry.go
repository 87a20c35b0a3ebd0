package tracker

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
)

// DefaultMatchThreshold is the acceptance threshold for the label-and-
// overlap fallback match, applied to the IoU over centroid distance ratio.
const DefaultMatchThreshold = 0.3

// ErrIDOverflow reports exhaustion of the monotonic track identity
// counter.  Identities are never reused, so wrapping would violate
// uniqueness; the condition is surfaced as a hard failure instead.
var ErrIDOverflow = errors.New("track identity counter overflow")

// TrackerFactory creates a SingleTracker for the given algorithm tag.
// The Registry calls it once per created track.
type TrackerFactory func(algo string) (SingleTracker, error)

// Registry owns the set of live tracks.  It is the single owner and sole
// mutator of that set: tracks are created here when a detection has no
// acceptable match, updated here once per admitted frame, and removed
// here when their tracker reports it is no longer alive.
type Registry struct {
	mu sync.RWMutex

	tracks []*Track
	// nextID is the process-wide identity counter, monotonically
	// increasing and never reused even after removal
	nextID int32

	algo        string
	matchThresh float32
	factory     TrackerFactory
	log         *slog.Logger
}

// NewRegistry creates a track registry.  algo selects the single-object
// tracking algorithm passed to the factory for every new track.  A nil
// logger disables logging.
func NewRegistry(algo string, matchThresh float32, factory TrackerFactory,
	log *slog.Logger) *Registry {

	if matchThresh <= 0 {
		matchThresh = DefaultMatchThreshold
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Registry{
		algo:        algo,
		matchThresh: matchThresh,
		factory:     factory,
		log:         log,
	}
}

// Add creates a new track for a detection, seeds its rectangle and
// assigns the next identity.  The identity counter overflowing is fatal
// and reported as ErrIDOverflow.
func (r *Registry) Add(label string, prob float32, rect Rect) (*Track, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.addLocked(label, prob, rect)
}

func (r *Registry) addLocked(label string, prob float32, rect Rect) (*Track, error) {

	if r.nextID == math.MaxInt32 {
		return nil, ErrIDOverflow
	}

	st, err := r.factory(r.algo)
	if err != nil {
		return nil, fmt.Errorf("create %q tracker: %w", r.algo, err)
	}

	t := newTrack(r.nextID, label, prob, rect, r.algo, st)
	r.nextID++
	r.tracks = append(r.tracks, t)

	r.log.Debug("track added", "id", t.ID(), "label", label)

	return t, nil
}

// UpdateAll advances every live track on a new frame.  A track whose
// update fails is logged and left in place; removal policy belongs to
// PruneInactive so transient failures do not cause immediate track loss.
func (r *Registry) UpdateAll(frame Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tracks {
		if err := t.update(frame); err != nil {
			r.log.Warn("track update failed", "id", t.ID(),
				"label", t.Label(), "err", err)
		}
	}
}

// PruneInactive removes every track whose tracker reports it is no longer
// alive.  This is the only path that shrinks the live set.
func (r *Registry) PruneInactive() {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.tracks[:0]
	for _, t := range r.tracks {
		if t.Alive() {
			kept = append(kept, t)
			continue
		}

		// release tracker-held resources, eg: OpenCV handles
		if c, ok := t.st.(io.Closer); ok {
			if err := c.Close(); err != nil {
				r.log.Warn("track close failed", "id", t.ID(), "err", err)
			}
		}

		r.log.Debug("track removed", "id", t.ID(), "label", t.Label())
	}

	// release references past the kept region
	for i := len(kept); i < len(r.tracks); i++ {
		r.tracks[i] = nil
	}
	r.tracks = kept
}

// Live returns a snapshot of the current live tracks.  The returned slice
// is the caller's own; the Track pointers stay owned by the registry.
func (r *Registry) Live() []*Track {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Track, len(r.tracks))
	copy(out, r.tracks)
	return out
}

// Len returns the number of live tracks
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tracks)
}

// Snapshots returns the read-only view of all live tracks for downstream
// consumers
func (r *Registry) Snapshots() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Snapshot, 0, len(r.tracks))
	for _, t := range r.tracks {
		out = append(out, t.Snapshot())
	}
	return out
}

// Match finds the live track best matching a single externally supplied
// detection by label and rectangle overlap, outside the batch assignment
// path.  Candidates sharing the detection's label are scored by IoU over
// centroid distance; the best candidate is accepted when its score
// exceeds the match threshold.  When no candidate is acceptable a new
// track is created and returned with created set to true.
func (r *Registry) Match(label string, prob float32, rect Rect) (t *Track, created bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var best *Track
	bestScore := float32(0)

	for _, cand := range r.tracks {
		if cand.Label() != label {
			continue
		}

		overlap := cand.Rect().CalcIoU(rect)
		deviate := cand.Rect().CentroidDistance(rect)

		var score float32
		if deviate == 0 {
			// coincident centroids, any overlap is a certain match
			score = float32(math.Inf(1))
		} else {
			score = overlap / deviate
		}

		if score > bestScore {
			best = cand
			bestScore = score
		}
	}

	if best != nil && bestScore > r.matchThresh {
		return best, false, nil
	}

	t, err = r.addLocked(label, prob, rect)
	return t, true, err
}
