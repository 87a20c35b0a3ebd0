package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestCentroidFilterInit(t *testing.T) {

	f := NewCentroidFilter(1, 10, 1)
	f.Init(100, 50)

	x, y := f.Position()
	assert.Equal(t, 100.0, x)
	assert.Equal(t, 50.0, y)
}

func TestCentroidFilterPredictGrowsUncertainty(t *testing.T) {

	f := NewCentroidFilter(1, 10, 1)
	f.Init(0, 0)

	before := f.PosCovariance().At(0, 0)
	f.Predict(1)
	after := f.PosCovariance().At(0, 0)

	assert.Greater(t, after, before)
}

func TestCentroidFilterPredictAppliesVelocity(t *testing.T) {

	f := NewCentroidFilter(1, 10, 1)
	f.Init(0, 0)

	// teach the filter a rightward velocity of ~10 px/s
	for i := 1; i <= 20; i++ {
		f.Predict(1)
		require.NoError(t, f.Correct(float64(i)*10, 0))
	}

	x0, _ := f.Position()
	f.Predict(1)
	x1, _ := f.Position()

	// a converged constant-velocity filter projects close to one more
	// step of the learned motion
	assert.InDelta(t, 10.0, x1-x0, 2.0)
}

func TestCentroidFilterConverges(t *testing.T) {

	f := NewCentroidFilter(1, 10, 1)
	f.Init(0, 0)

	for i := 0; i < 30; i++ {
		f.Predict(1)
		require.NoError(t, f.Correct(5, 5))
	}

	x, y := f.Position()
	assert.InDelta(t, 5.0, x, 0.01)
	assert.InDelta(t, 5.0, y, 0.01)
}

func TestCentroidFilterCorrectReducesUncertainty(t *testing.T) {

	f := NewCentroidFilter(1, 10, 1)
	f.Init(0, 0)

	f.Predict(1)
	before := f.PosCovariance().At(0, 0)

	require.NoError(t, f.Correct(0, 0))
	after := f.PosCovariance().At(0, 0)

	assert.Less(t, after, before)
}

func TestCentroidFilterCovarianceFactorizes(t *testing.T) {

	f := NewCentroidFilter(1, 10, 1)
	f.Init(0, 0)

	for i := 0; i < 10; i++ {
		f.Predict(1.0 / 30)
		require.NoError(t, f.Correct(float64(i), float64(i)))

		// the covariance the associator gates on must stay positive
		// definite throughout
		var chol mat.Cholesky
		assert.True(t, chol.Factorize(f.PosCovariance()),
			"covariance not positive definite at step %d", i)
	}
}

func TestCentroidFilterSingularCorrect(t *testing.T) {

	// zero noise and an unseeded state make the innovation covariance
	// singular; the filter must refuse the correction and hold state
	f := NewCentroidFilter(0, 0, 0)

	err := f.Correct(5, 5)
	require.Error(t, err)

	x, y := f.Position()
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 0.0, y)
}
