package tracker

import (
	"time"

	"gonum.org/v1/gonum/mat"
)

// stubFrame carries only a timestamp, the association core never looks
// at image payloads
type stubFrame struct {
	t time.Time
}

func (f stubFrame) Stamp() time.Time {
	return f.t
}

// stubTracker is a scripted SingleTracker used to exercise the pipeline
// without any image processing
type stubTracker struct {
	rect    Rect
	covar   *mat.SymDense
	hasTraj bool
	alive   bool

	updateErr error
	closed    bool

	initCalls   int
	updateCalls int
}

func (s *stubTracker) Init(frame Frame, seed Rect) error {
	s.initCalls++
	s.rect = seed
	s.hasTraj = true
	s.alive = true
	return nil
}

func (s *stubTracker) Update(frame Frame) error {
	s.updateCalls++
	return s.updateErr
}

func (s *stubTracker) TrajAt(stamp time.Time) (Traj, bool) {
	if !s.hasTraj {
		return Traj{}, false
	}
	return Traj{Rect: s.rect, Covar: s.covar, Stamp: stamp}, true
}

func (s *stubTracker) Alive() bool {
	return s.alive
}

func (s *stubTracker) Close() error {
	s.closed = true
	return nil
}

// identityCovar returns a unit 2x2 covariance
func identityCovar() *mat.SymDense {
	return mat.NewSymDense(2, []float64{1, 0, 0, 1})
}

// scaledCovar returns a diagonal covariance with the given variance
func scaledCovar(variance float64) *mat.SymDense {
	return mat.NewSymDense(2, []float64{variance, 0, 0, variance})
}

// stubFactory returns a TrackerFactory producing stub trackers with the
// given covariance and records every tracker it created
func stubFactory(covar *mat.SymDense) (TrackerFactory, *[]*stubTracker) {

	created := &[]*stubTracker{}

	factory := func(algo string) (SingleTracker, error) {
		st := &stubTracker{covar: covar, alive: true}
		*created = append(*created, st)
		return st, nil
	}

	return factory, created
}

func stampAt(sec int) time.Time {
	return time.Unix(int64(sec), 0)
}
