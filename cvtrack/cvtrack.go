// Package cvtrack provides OpenCV-backed implementations of the
// tracker.SingleTracker capability.  Each instance couples a gocv visual
// tracker, selected by algorithm tag, with a constant-velocity centroid
// Kalman filter so that trajectory snapshots carry the centroid
// covariance the association core gates on.
package cvtrack

import (
	"errors"
	"fmt"
	"image"
	"time"

	"gocv.io/x/gocv"
	"gocv.io/x/gocv/contrib"

	"github.com/objectanalytics/go-tracker/tracker"
)

// Algorithm tags accepted by New.
const (
	AlgoMIL  = "mil"
	AlgoKCF  = "kcf"
	AlgoCSRT = "csrt"
)

// ErrUnknownAlgo reports an algorithm tag with no backing tracker
var ErrUnknownAlgo = errors.New("unknown tracking algorithm")

// ErrTargetLost reports that the visual tracker could not locate its
// object on the last frame
var ErrTargetLost = errors.New("tracking target lost")

// default filter noise parameters, in pixel units
const (
	procNoisePos = 1.0
	procNoiseVel = 10.0
	measNoise    = 1.0
)

// defaultDt is assumed when frames carry non-increasing timestamps
const defaultDt = 1.0 / 30

// maxTrajHistory bounds the trajectory snapshot ring per tracker
const maxTrajHistory = 30

// Frame wraps a gocv Mat with its capture timestamp so it can flow
// through the association core, which only reads the stamp.
type Frame struct {
	Time time.Time
	Mat  gocv.Mat
}

// Stamp returns the frame capture time
func (f Frame) Stamp() time.Time {
	return f.Time
}

// Tracker adapts a gocv visual tracker to the tracker.SingleTracker
// capability.  It is not safe for concurrent use, matching the
// single-writer cycle discipline of the association core.
type Tracker struct {
	cv     gocv.Tracker
	filter *tracker.CentroidFilter

	inited    bool
	alive     bool
	lastStamp time.Time

	// trajs is a bounded ring of trajectory snapshots, oldest first
	trajs []tracker.Traj
}

// New creates a visual tracker for the given algorithm tag.  Its
// signature matches tracker.TrackerFactory so it can be passed straight
// to tracker.NewManager.
func New(algo string) (tracker.SingleTracker, error) {

	var cv gocv.Tracker

	switch algo {
	case AlgoMIL:
		cv = gocv.NewTrackerMIL()
	case AlgoKCF:
		cv = contrib.NewTrackerKCF()
	case AlgoCSRT:
		cv = contrib.NewTrackerCSRT()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgo, algo)
	}

	return &Tracker{
		cv:     cv,
		filter: tracker.NewCentroidFilter(procNoisePos, procNoiseVel, measNoise),
	}, nil
}

// Init seeds the visual tracker with the object rectangle on the given
// frame and resets the centroid filter and trajectory history.
func (t *Tracker) Init(frame tracker.Frame, seed tracker.Rect) error {

	cf, err := cvFrame(frame)
	if err != nil {
		return err
	}

	if ok := t.cv.Init(cf.Mat, toImageRect(seed)); !ok {
		return fmt.Errorf("init tracker at %v: rejected seed %+v", cf.Time, seed)
	}

	cx, cy := seed.Centroid()
	t.filter.Init(float64(cx), float64(cy))

	t.inited = true
	t.alive = true
	t.lastStamp = cf.Time
	t.trajs = t.trajs[:0]
	t.record(seed, cf.Time)

	return nil
}

// Update advances the position estimate with a new frame.  A frame the
// tracker cannot find its object in marks the tracker dead and returns
// ErrTargetLost; the track itself is only removed later by the registry's
// liveness pass.
func (t *Tracker) Update(frame tracker.Frame) error {

	if !t.inited {
		return errors.New("tracker not initialized")
	}

	cf, err := cvFrame(frame)
	if err != nil {
		return err
	}

	rect, ok := t.cv.Update(cf.Mat)
	if !ok {
		t.alive = false
		return fmt.Errorf("update at %v: %w", cf.Time, ErrTargetLost)
	}

	dt := cf.Time.Sub(t.lastStamp).Seconds()
	if dt <= 0 {
		dt = defaultDt
	}
	t.lastStamp = cf.Time

	est := fromImageRect(rect)
	cx, cy := est.Centroid()

	t.filter.Predict(dt)
	if err := t.filter.Correct(float64(cx), float64(cy)); err != nil {
		// degenerate covariance; the snapshot still records the
		// predicted state and gating will exclude it if unusable
		t.record(est, cf.Time)
		return nil
	}

	t.record(est, cf.Time)

	return nil
}

// TrajAt reports the recorded trajectory snapshot for the exact frame
// timestamp, matching how detection batches are stamped with the frame
// they were computed against.
func (t *Tracker) TrajAt(stamp time.Time) (tracker.Traj, bool) {

	for i := len(t.trajs) - 1; i >= 0; i-- {
		if t.trajs[i].Stamp.Equal(stamp) {
			return t.trajs[i], true
		}
	}

	return tracker.Traj{}, false
}

// Alive reports whether the visual tracker still follows its object
func (t *Tracker) Alive() bool {
	return t.alive
}

// Close releases the underlying OpenCV tracker.  The registry calls this
// when pruning dead tracks.
func (t *Tracker) Close() error {
	t.alive = false
	return t.cv.Close()
}

func (t *Tracker) record(rect tracker.Rect, stamp time.Time) {

	t.trajs = append(t.trajs, tracker.Traj{
		Rect:  rect,
		Covar: t.filter.PosCovariance(),
		Stamp: stamp,
	})

	if len(t.trajs) > maxTrajHistory {
		t.trajs = t.trajs[1:]
	}
}

func cvFrame(frame tracker.Frame) (Frame, error) {
	cf, ok := frame.(Frame)
	if !ok {
		return Frame{}, fmt.Errorf("frame type %T is not a cvtrack.Frame", frame)
	}
	return cf, nil
}

func toImageRect(r tracker.Rect) image.Rectangle {
	return image.Rect(int(r.X), int(r.Y), int(r.X+r.Width), int(r.Y+r.Height))
}

func fromImageRect(r image.Rectangle) tracker.Rect {
	return tracker.NewRect(float32(r.Min.X), float32(r.Min.Y),
		float32(r.Dx()), float32(r.Dy()))
}
