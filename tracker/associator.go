package tracker

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DefaultGateSigma is the gating threshold in standard deviations of a
// track's centroid uncertainty.  Pairs further apart than this are never
// offered to the assignment solver.
const DefaultGateSigma = 2.0

// CostMatrix is the gated association cost matrix with tracks as rows and
// detections as columns.  Each finite entry is the squared Mahalanobis
// distance between a track's predicted centroid and a detection centroid;
// +Inf marks pairs rejected by gating or with no usable geometry.
type CostMatrix struct {
	*mat.Dense
}

// IsSentinel reports whether a cost value marks a forbidden pair
func IsSentinel(cost float64) bool {
	return math.IsInf(cost, 1)
}

// Associator builds gated cost matrices between live tracks and incoming
// detection batches using the Mahalanobis distance under each track's own
// centroid covariance.
type Associator struct {
	gateSigma float64
}

// NewAssociator creates an Associator with the given gating threshold in
// standard deviations.  A threshold of zero or less falls back to
// DefaultGateSigma.
func NewAssociator(gateSigma float64) *Associator {
	if gateSigma <= 0 {
		gateSigma = DefaultGateSigma
	}
	return &Associator{gateSigma: gateSigma}
}

// CostMatrix computes the association costs between the live tracks and
// a detection batch at the given timestamp.  Nil is returned when either
// side is empty, the caller short-circuits the cycle with no matching.
//
// A track whose trajectory is unavailable at the timestamp, or whose
// covariance is singular, contributes only sentinel entries for this
// cycle; it simply goes unmatched rather than failing the cycle.
func (a *Associator) CostMatrix(tracks []*Track, dets []Detection,
	stamp time.Time) *CostMatrix {

	if len(tracks) == 0 || len(dets) == 0 {
		return nil
	}

	costs := mat.NewDense(len(tracks), len(dets), nil)

	for i := range tracks {
		for j := range dets {
			costs.Set(i, j, math.Inf(1))
		}
	}

	for i, track := range tracks {

		traj, ok := track.TrajAt(stamp)
		if !ok {
			continue
		}

		var chol mat.Cholesky
		if ok := chol.Factorize(traj.Covar); !ok {
			// singular covariance, exclude the track this cycle
			continue
		}

		tx, ty := traj.Rect.Centroid()
		tCentroid := mat.NewVecDense(2, []float64{float64(tx), float64(ty)})

		for j, det := range dets {

			dx, dy := det.Rect.Centroid()
			dCentroid := mat.NewVecDense(2, []float64{float64(dx), float64(dy)})

			dist := stat.Mahalanobis(dCentroid, tCentroid, &chol)

			if math.IsNaN(dist) || dist > a.gateSigma {
				continue
			}

			costs.Set(i, j, dist*dist)
		}
	}

	return &CostMatrix{costs}
}
