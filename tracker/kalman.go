package tracker

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// CentroidFilter is a constant-velocity Kalman filter over an object's
// centroid with state vector [x, y, vx, vy].  SingleTracker
// implementations that only report a bounding rectangle (eg: the OpenCV
// visual trackers) run one of these alongside the tracker so they can
// serve the centroid covariance the Associator gates on.
type CentroidFilter struct {
	// process noise variances for position and velocity
	procNoisePos float64
	procNoiseVel float64
	// measurement noise variance
	measNoise float64

	// mean is the state vector [x, y, vx, vy]
	mean *mat.VecDense
	// cov is the 4x4 state covariance
	cov *mat.Dense
	// updateMat is the 2x4 measurement matrix extracting position
	updateMat *mat.Dense
}

// NewCentroidFilter initializes and returns a new CentroidFilter
func NewCentroidFilter(procNoisePos, procNoiseVel, measNoise float64) *CentroidFilter {

	// measurement matrix H with first 2 diagonal elements set to 1
	updateMat := mat.NewDense(2, 4, nil)
	updateMat.Set(0, 0, 1)
	updateMat.Set(1, 1, 1)

	return &CentroidFilter{
		procNoisePos: procNoisePos,
		procNoiseVel: procNoiseVel,
		measNoise:    measNoise,
		mean:         mat.NewVecDense(4, nil),
		cov:          mat.NewDense(4, 4, nil),
		updateMat:    updateMat,
	}
}

// Init seeds the filter at the given centroid with zero velocity and high
// position uncertainty
func (f *CentroidFilter) Init(cx, cy float64) {

	f.mean.SetVec(0, cx)
	f.mean.SetVec(1, cy)
	f.mean.SetVec(2, 0)
	f.mean.SetVec(3, 0)

	f.cov.Zero()
	f.cov.Set(0, 0, 10)
	f.cov.Set(1, 1, 10)
	f.cov.Set(2, 2, 1)
	f.cov.Set(3, 3, 1)
}

// Predict advances the state estimate by dt seconds using the constant
// velocity motion model
func (f *CentroidFilter) Predict(dt float64) {

	// motion matrix F for constant velocity
	motionMat := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		motionMat.Set(i, i, 1)
	}
	motionMat.Set(0, 2, dt)
	motionMat.Set(1, 3, dt)

	// mean' = F * mean
	next := mat.NewVecDense(4, nil)
	next.MulVec(motionMat, f.mean)
	f.mean.CopyVec(next)

	// cov' = F * cov * F^T + Q
	var fp, fpft mat.Dense
	fp.Mul(motionMat, f.cov)
	fpft.Mul(&fp, motionMat.T())
	f.cov.Copy(&fpft)

	f.cov.Set(0, 0, f.cov.At(0, 0)+f.procNoisePos)
	f.cov.Set(1, 1, f.cov.At(1, 1)+f.procNoisePos)
	f.cov.Set(2, 2, f.cov.At(2, 2)+f.procNoiseVel)
	f.cov.Set(3, 3, f.cov.At(3, 3)+f.procNoiseVel)
}

// Correct folds a measured centroid into the state estimate.  An error is
// returned when the innovation covariance is singular, in which case the
// state is left unchanged.
func (f *CentroidFilter) Correct(cx, cy float64) error {

	// innovation y = z - H * mean
	z := mat.NewVecDense(2, []float64{cx, cy})
	hm := mat.NewVecDense(2, nil)
	hm.MulVec(f.updateMat, f.mean)

	innov := mat.NewVecDense(2, nil)
	innov.SubVec(z, hm)

	// innovation covariance S = H * P * H^T + R
	s := f.innovationCov()

	var sInv mat.Dense
	if err := sInv.Inverse(s); err != nil {
		return fmt.Errorf("singular innovation covariance: %w", err)
	}

	// Kalman gain K = P * H^T * S^-1
	var pht, gain mat.Dense
	pht.Mul(f.cov, f.updateMat.T())
	gain.Mul(&pht, &sInv)

	// mean' = mean + K * y
	var ky mat.VecDense
	ky.MulVec(&gain, innov)
	f.mean.AddVec(f.mean, &ky)

	// cov' = (I - K * H) * P
	var kh mat.Dense
	kh.Mul(&gain, f.updateMat)

	ikh := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		ikh.Set(i, i, 1)
	}
	ikh.Sub(ikh, &kh)

	var next mat.Dense
	next.Mul(ikh, f.cov)
	f.cov.Copy(&next)

	return nil
}

// Position returns the current centroid estimate
func (f *CentroidFilter) Position() (float64, float64) {
	return f.mean.AtVec(0), f.mean.AtVec(1)
}

// PosCovariance returns the 2x2 innovation covariance of the centroid,
// the distribution the Associator measures Mahalanobis distance against.
func (f *CentroidFilter) PosCovariance() *mat.SymDense {

	s := f.innovationCov()

	// symmetrize the off-diagonal to absorb float round-off
	off := (s.At(0, 1) + s.At(1, 0)) / 2

	return mat.NewSymDense(2, []float64{
		s.At(0, 0), off,
		off, s.At(1, 1),
	})
}

// innovationCov computes S = H * P * H^T + R
func (f *CentroidFilter) innovationCov() *mat.Dense {

	var hp, hpht mat.Dense
	hp.Mul(f.updateMat, f.cov)
	hpht.Mul(&hp, f.updateMat.T())

	hpht.Set(0, 0, hpht.At(0, 0)+f.measNoise)
	hpht.Set(1, 1, hpht.At(1, 1)+f.measNoise)

	return &hpht
}
