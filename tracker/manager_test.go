package tracker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, *[]*stubTracker) {
	t.Helper()

	factory, created := stubFactory(identityCovar())
	return NewManager(DefaultConfig(), factory, nil), created
}

func TestManagerFirstBatchCreatesTracks(t *testing.T) {

	m, created := newTestManager(t)

	dets := []Detection{
		NewDetection("person", 0.9, NewRect(10, 10, 20, 20), stampAt(1)),
		NewDetection("car", 0.8, NewRect(100, 100, 40, 40), stampAt(1)),
	}

	err := m.ProcessDetections(stubFrame{t: stampAt(1)}, dets)
	require.NoError(t, err)

	assert.Equal(t, 2, m.Registry().Len())

	// every new track is rectified onto its detection rectangle
	require.Len(t, *created, 2)
	assert.Equal(t, 1, (*created)[0].initCalls)
	assert.Equal(t, 1, (*created)[1].initCalls)
	assert.Equal(t, NewRect(10, 10, 20, 20), (*created)[0].rect)
}

func TestManagerNearbyDetectionMatches(t *testing.T) {

	m, created := newTestManager(t)

	err := m.ProcessDetections(stubFrame{t: stampAt(1)}, []Detection{
		NewDetection("person", 0.9, NewRect(10, 10, 20, 20), stampAt(1)),
	})
	require.NoError(t, err)
	require.Equal(t, 1, m.Registry().Len())

	m.TrackFrame(stubFrame{t: stampAt(2)})

	// one pixel of drift under unit covariance is well inside the gate
	err = m.ProcessDetections(stubFrame{t: stampAt(2)}, []Detection{
		NewDetection("person", 0.9, NewRect(11, 11, 20, 20), stampAt(2)),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, m.Registry().Len())
	assert.Len(t, *created, 1)
}

func TestManagerGatedDetectionCreatesTrack(t *testing.T) {

	m, _ := newTestManager(t)

	err := m.ProcessDetections(stubFrame{t: stampAt(1)}, []Detection{
		NewDetection("person", 0.9, NewRect(10, 10, 20, 20), stampAt(1)),
	})
	require.NoError(t, err)

	m.TrackFrame(stubFrame{t: stampAt(2)})

	// far outside the gate of the existing track, a second identity is
	// born rather than the track being dragged across the frame
	err = m.ProcessDetections(stubFrame{t: stampAt(2)}, []Detection{
		NewDetection("person", 0.9, NewRect(200, 200, 20, 20), stampAt(2)),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, m.Registry().Len())
}

// Two tracks crossing paths with two detections between them.  Greedy
// per-detection matching picks the globally wrong pairing; the solver
// must keep both identities on their own side.
func TestManagerCrossingTracksKeepIdentities(t *testing.T) {

	factory, _ := stubFactory(scaledCovar(100))
	m := NewManager(DefaultConfig(), factory, nil)

	// track centroids at x=0 and x=6
	err := m.ProcessDetections(stubFrame{t: stampAt(1)}, []Detection{
		NewDetection("person", 0.9, NewRect(-10, -10, 20, 20), stampAt(1)),
		NewDetection("person", 0.9, NewRect(-4, -10, 20, 20), stampAt(1)),
	})
	require.NoError(t, err)
	require.Equal(t, 2, m.Registry().Len())

	m.TrackFrame(stubFrame{t: stampAt(2)})

	// detection centroids at x=5 and x=11; both pairs are inside the
	// gate so the matching is decided by total cost alone
	err = m.ProcessDetections(stubFrame{t: stampAt(2)}, []Detection{
		NewDetection("person", 0.9, NewRect(-5, -10, 20, 20), stampAt(2)),
		NewDetection("person", 0.9, NewRect(1, -10, 20, 20), stampAt(2)),
	})
	require.NoError(t, err)

	// both detections matched, no identities created or swapped
	assert.Equal(t, 2, m.Registry().Len())
}

// The same crossing layout, checked at the cost matrix and solver level
// where the pairing is observable.
func TestAssociationPrefersGlobalOptimum(t *testing.T) {

	a := NewAssociator(DefaultGateSigma)

	tracks := []*Track{
		trackWith(0, NewRect(-10, -10, 20, 20), scaledCovar(100)), // centroid x=0
		trackWith(1, NewRect(-4, -10, 20, 20), scaledCovar(100)),  // centroid x=6
	}
	dets := []Detection{
		NewDetection("person", 0.9, NewRect(-5, -10, 20, 20), stampAt(2)), // x=5
		NewDetection("person", 0.9, NewRect(1, -10, 20, 20), stampAt(2)),  // x=11
	}

	costs := a.CostMatrix(tracks, dets, stampAt(2))
	require.NotNil(t, costs)

	// track 1 is nearest to detection 0 (cost 0.01), but taking that
	// pair strands track 0 on the far detection for a 1.22 total; the
	// optimal pairing costs 0.5
	assert.InDelta(t, 0.25, costs.At(0, 0), 1e-6)
	assert.InDelta(t, 1.21, costs.At(0, 1), 1e-6)
	assert.InDelta(t, 0.01, costs.At(1, 0), 1e-6)
	assert.InDelta(t, 0.25, costs.At(1, 1), 1e-6)

	got, err := Solve(costs, 2, 2)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, got.TrackToDet)
}

func TestManagerDropsOutOfOrderFrames(t *testing.T) {

	m, created := newTestManager(t)

	err := m.ProcessDetections(stubFrame{t: stampAt(5)}, []Detection{
		NewDetection("person", 0.9, NewRect(10, 10, 20, 20), stampAt(5)),
	})
	require.NoError(t, err)

	m.TrackFrame(stubFrame{t: stampAt(6)})
	require.Equal(t, 1, (*created)[0].updateCalls)

	// older frame is dropped without touching the tracks
	m.TrackFrame(stubFrame{t: stampAt(4)})
	assert.Equal(t, 1, (*created)[0].updateCalls)

	// duplicate frame likewise
	m.TrackFrame(stubFrame{t: stampAt(6)})
	assert.Equal(t, 1, (*created)[0].updateCalls)
}

func TestManagerDropsUnadmittedBatch(t *testing.T) {

	m, _ := newTestManager(t)

	err := m.ProcessDetections(stubFrame{t: stampAt(1)}, []Detection{
		NewDetection("person", 0.9, NewRect(10, 10, 20, 20), stampAt(1)),
	})
	require.NoError(t, err)
	require.Equal(t, 1, m.Registry().Len())

	// the batch stamp was never admitted through the gate, the whole
	// batch is dropped for the cycle
	err = m.ProcessDetections(stubFrame{t: stampAt(99)}, []Detection{
		NewDetection("person", 0.9, NewRect(200, 200, 20, 20), stampAt(99)),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, m.Registry().Len())
}

func TestManagerIdleUntilFirstBatch(t *testing.T) {

	m, created := newTestManager(t)

	// frames before the first detection batch do nothing
	m.TrackFrame(stubFrame{t: stampAt(1)})
	m.TrackFrame(stubFrame{t: stampAt(2)})

	assert.Empty(t, *created)
	assert.Equal(t, 0, m.gate.WindowLen())
}

func TestManagerPrunesDeadTracks(t *testing.T) {

	m, created := newTestManager(t)

	err := m.ProcessDetections(stubFrame{t: stampAt(1)}, []Detection{
		NewDetection("person", 0.9, NewRect(10, 10, 20, 20), stampAt(1)),
	})
	require.NoError(t, err)
	require.Equal(t, 1, m.Registry().Len())

	(*created)[0].alive = false

	m.TrackFrame(stubFrame{t: stampAt(2)})

	assert.Equal(t, 0, m.Registry().Len())
	assert.True(t, (*created)[0].closed)
}

func TestManagerPropagatesCreateFailure(t *testing.T) {

	boom := errors.New("no such algorithm")
	factory := func(algo string) (SingleTracker, error) {
		return nil, boom
	}
	m := NewManager(DefaultConfig(), factory, nil)

	err := m.ProcessDetections(stubFrame{t: stampAt(1)}, []Detection{
		NewDetection("person", 0.9, NewRect(10, 10, 20, 20), stampAt(1)),
	})

	assert.ErrorIs(t, err, boom)
}

func TestManagerRecordsTrails(t *testing.T) {

	m, _ := newTestManager(t)

	err := m.ProcessDetections(stubFrame{t: stampAt(1)}, []Detection{
		NewDetection("person", 0.9, NewRect(10, 10, 20, 20), stampAt(1)),
	})
	require.NoError(t, err)

	m.TrackFrame(stubFrame{t: stampAt(2)})
	m.TrackFrame(stubFrame{t: stampAt(3)})

	id := m.Registry().Live()[0].ID()
	pts := m.Trail().GetPoints(id)

	require.Len(t, pts, 2)
	assert.Equal(t, Point{X: 20, Y: 20}, pts[0])
}
