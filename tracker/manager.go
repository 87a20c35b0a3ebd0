package tracker

import (
	"fmt"
	"io"
	"log/slog"
)

// Config holds the tunable parameters of the association pipeline.
type Config struct {
	// FrameWindow is the number of recently admitted frame stamps kept
	// for validating detection batches
	FrameWindow int
	// GateSigma is the Mahalanobis gating threshold in standard
	// deviations
	GateSigma float64
	// MatchThreshold is the acceptance threshold of the label-and-
	// overlap fallback match
	MatchThreshold float32
	// Algo selects the single-object tracking algorithm for new tracks
	Algo string
	// TrailLength is the per-track centroid history kept for rendering
	TrailLength int
}

// DefaultConfig returns the default pipeline configuration
func DefaultConfig() Config {
	return Config{
		FrameWindow:    DefaultFrameWindow,
		GateSigma:      DefaultGateSigma,
		MatchThreshold: DefaultMatchThreshold,
		Algo:           "kcf",
		TrailLength:    30,
	}
}

// Manager is the orchestration entry point of the association core.  Once
// per incoming detection batch it composes the frame gate, the associator,
// the assignment solver and the track registry into a single cycle:
// admit, build the gated cost matrix, solve the matching, then create
// tracks for unmatched detections.
//
// Cycles are strictly serialized: one cycle runs to completion before the
// next begins, and the registry is the only component mutated.  Callers
// feeding frames and detections from concurrent producers must serialize
// their entry into TrackFrame and ProcessDetections.
type Manager struct {
	cfg   Config
	gate  *FrameGate
	reg   *Registry
	assoc *Associator
	trail *Trail
	log   *slog.Logger
}

// NewManager creates the association pipeline.  The factory is invoked to
// back every newly created track with a single-object tracker.  A nil
// logger disables logging.
func NewManager(cfg Config, factory TrackerFactory, log *slog.Logger) *Manager {

	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Manager{
		cfg:   cfg,
		gate:  NewFrameGate(cfg.FrameWindow),
		reg:   NewRegistry(cfg.Algo, cfg.MatchThreshold, factory, log),
		assoc: NewAssociator(cfg.GateSigma),
		trail: NewTrail(cfg.TrailLength),
		log:   log,
	}
}

// Registry returns the track registry for read-only consumers
func (m *Manager) Registry() *Registry {
	return m.reg
}

// Trail returns the per-track centroid history
func (m *Manager) Trail() *Trail {
	return m.trail
}

// TrackFrame runs the per-frame half of the cycle: the frame is admitted
// through the gate, every live track is advanced by its single-object
// tracker, and tracks whose tracker has died are pruned.  Out-of-order
// and duplicate frames are dropped silently.  Nothing happens until the
// first detection batch has initialized the pipeline.
func (m *Manager) TrackFrame(frame Frame) {

	if !m.gate.Initialized() {
		return
	}

	if !m.gate.AdmitFrame(frame.Stamp()) {
		m.log.Debug("frame rejected", "stamp", frame.Stamp())
		return
	}

	m.reg.UpdateAll(frame)
	m.reg.PruneInactive()

	for _, t := range m.reg.Live() {
		m.trail.Add(t)
	}
}

// ProcessDetections runs the association half of the cycle for a
// detection batch computed against the given frame.  Batches whose frame
// stamp is not in the recently admitted window are dropped for the cycle.
// Matched detections are left to continue under their track's per-frame
// update path; unmatched detections become new tracks seeded and
// rectified from their detection rectangle.
//
// Per-pair anomalies (gating rejections, singular covariance, missing
// trajectory) are absorbed as unmatched; only structural failures such as
// identity overflow propagate as errors.
func (m *Manager) ProcessDetections(frame Frame, dets []Detection) error {

	stamp := frame.Stamp()

	if m.gate.Initialized() && !m.gate.Admitted(stamp) {
		m.log.Debug("detection batch dropped", "stamp", stamp,
			"count", len(dets))
		return nil
	}

	live := m.reg.Live()

	costs := m.assoc.CostMatrix(live, dets, stamp)

	assignment, err := Solve(costs, len(live), len(dets))
	if err != nil {
		return fmt.Errorf("association cycle at %v: %w", stamp, err)
	}

	for j, det := range dets {

		if ti := assignment.DetToTrack[j]; ti >= 0 {
			m.log.Debug("detection matched", "track", live[ti].ID(),
				"label", det.Label)
			continue
		}

		t, err := m.reg.Add(det.Label, det.Prob, det.Rect)
		if err != nil {
			return fmt.Errorf("association cycle at %v: %w", stamp, err)
		}

		if err := t.Rectify(frame, det.Rect); err != nil {
			m.log.Warn("track rectify failed", "id", t.ID(), "err", err)
		}
	}

	m.gate.markInitialized()

	return nil
}
