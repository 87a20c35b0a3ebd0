package tracker

import "sync"

// Point represents the x,y pixel coordinates of a track's rectangle
// centroid
type Point struct {
	X, Y int
}

// Trail keeps a bounded history of track centroids used for drawing a
// motion trail per track identity.
type Trail struct {
	// size is the maximum number of most recent points kept per track
	size int
	// history of centroid points keyed by track identity
	history map[int32][]Point
	sync.Mutex
}

// NewTrail returns a new trail history instance.  Size specifies the
// maximum trail length maintained per track.
func NewTrail(size int) *Trail {
	return &Trail{
		size:    size,
		history: make(map[int32][]Point),
	}
}

// Reset clears all history
func (t *Trail) Reset() {
	t.Lock()
	defer t.Unlock()

	t.history = make(map[int32][]Point)
}

// Add records the track's current centroid in its history
func (t *Trail) Add(track *Track) {
	t.Lock()
	defer t.Unlock()

	cx, cy := track.Rect().Centroid()
	points := append(t.history[track.ID()], Point{X: int(cx), Y: int(cy)})

	if len(points) > t.size {
		points = points[len(points)-t.size:]
	}

	t.history[track.ID()] = points
}

// GetPoints returns the recorded trail for a track identity, most recent
// point last
func (t *Trail) GetPoints(id int32) []Point {
	t.Lock()
	defer t.Unlock()

	points := t.history[id]
	out := make([]Point, len(points))
	copy(out, points)
	return out
}

// Forget drops the history of a track identity
func (t *Trail) Forget(id int32) {
	t.Lock()
	defer t.Unlock()

	delete(t.history, id)
}
