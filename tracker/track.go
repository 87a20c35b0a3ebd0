package tracker

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Traj is a read-only trajectory snapshot of a tracked object: the
// estimated bounding rectangle plus the 2x2 covariance of its centroid,
// valid at a specific timestamp.
type Traj struct {
	// Rect is the estimated bounding rectangle
	Rect Rect
	// Covar is the centroid x/y covariance
	Covar *mat.SymDense
	// Stamp is the time the estimate is valid at
	Stamp time.Time
}

// SingleTracker is the capability contract of the underlying single-object
// visual tracker.  Implementations estimate one object's trajectory from
// raw frames; the association core calls these four operations and reacts
// only to their documented return values.  Variants backed by different
// tracking algorithms are selected by an algorithm tag at creation time.
type SingleTracker interface {
	// Init seeds the tracker with the object's bounding rectangle on
	// the given frame
	Init(frame Frame, seed Rect) error
	// Update advances the position estimate using a new frame.  An
	// error reports a failed update, it does not imply the tracker is
	// dead, liveness is reported separately by Alive.
	Update(frame Frame) error
	// TrajAt reports the trajectory estimate and centroid covariance at
	// the requested timestamp.  The second return value is false when no
	// estimate is available for that time.
	TrajAt(stamp time.Time) (Traj, bool)
	// Alive reports whether the tracker still follows its object
	Alive() bool
}

// Track is the persistent identity of one physical object being followed
// across frames.  A Track owns its trajectory state exclusively; the
// underlying SingleTracker mutates that state through Update and the
// Registry is the only component that creates or removes Tracks.
type Track struct {
	id    int32
	label string
	algo  string
	// rect is the current estimated bounding rectangle
	rect Rect
	// seedRect is the detection rectangle the track was created from
	seedRect Rect
	// prob is the detection confidence at creation
	prob float32
	st   SingleTracker
}

func newTrack(id int32, label string, prob float32, rect Rect, algo string,
	st SingleTracker) *Track {

	return &Track{
		id:       id,
		label:    label,
		algo:     algo,
		rect:     rect,
		seedRect: rect,
		prob:     prob,
		st:       st,
	}
}

// ID returns the track identity.  Identities are process-unique,
// monotonically assigned and never reused.
func (t *Track) ID() int32 {
	return t.id
}

// Label returns the category label assigned at creation
func (t *Track) Label() string {
	return t.label
}

// Algo returns the algorithm tag the underlying tracker was created with
func (t *Track) Algo() string {
	return t.algo
}

// Rect returns the current estimated bounding rectangle
func (t *Track) Rect() Rect {
	return t.rect
}

// Prob returns the detection confidence the track was seeded with
func (t *Track) Prob() float32 {
	return t.prob
}

// Alive reports liveness of the underlying tracker
func (t *Track) Alive() bool {
	return t.st.Alive()
}

// TrajAt reports the trajectory snapshot at the requested timestamp
func (t *Track) TrajAt(stamp time.Time) (Traj, bool) {
	return t.st.TrajAt(stamp)
}

// Rectify re-initializes the underlying tracker against a detection
// rectangle on the given frame.  Used once on the frame that created the
// track so the tracker locks onto the detector's box rather than a stale
// estimate.
func (t *Track) Rectify(frame Frame, rect Rect) error {

	if err := t.st.Init(frame, rect); err != nil {
		return fmt.Errorf("rectify track %d: %w", t.id, err)
	}

	t.rect = rect
	return nil
}

// update advances the track on a new frame and refreshes the current
// rectangle estimate from the tracker
func (t *Track) update(frame Frame) error {

	if err := t.st.Update(frame); err != nil {
		return fmt.Errorf("update track %d: %w", t.id, err)
	}

	if traj, ok := t.st.TrajAt(frame.Stamp()); ok {
		t.rect = traj.Rect
	}

	return nil
}

// Snapshot is the read-only view of a track exposed to downstream
// consumers such as publishing or visualization.
type Snapshot struct {
	ID    int32   `json:"id"`
	Label string  `json:"label"`
	Rect  Rect    `json:"rect"`
	Prob  float32 `json:"prob"`
	Alive bool    `json:"alive"`
}

// Snapshot returns the current read-only view of the track
func (t *Track) Snapshot() Snapshot {
	return Snapshot{
		ID:    t.id,
		Label: t.label,
		Rect:  t.rect,
		Prob:  t.prob,
		Alive: t.Alive(),
	}
}
