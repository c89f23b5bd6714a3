package optimize

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/quantport/internal/domain"
)

func TestSampleCovariance_InconsistentLengths(t *testing.T) {
	tickers := domain.Tickers{"A", "B"}
	returns := map[domain.Ticker][]float64{
		"A": {0.01, 0.02, -0.01},
		"B": {0.01, 0.02},
	}

	_, err := sampleCovariance(tickers, returns)

	assert.ErrorIs(t, err, domain.ErrSingularCovariance)
}

func TestSampleCovariance_MissingTicker(t *testing.T) {
	tickers := domain.Tickers{"A", "B"}
	returns := map[domain.Ticker][]float64{"A": {0.01, 0.02}}

	_, err := sampleCovariance(tickers, returns)

	assert.True(t, errors.Is(err, domain.ErrSingularCovariance))
}

func TestShrunkCovariance_PositiveDefinite(t *testing.T) {
	tickers := domain.Tickers{"A", "B", "C"}
	returns := map[domain.Ticker][]float64{
		"A": {0.01, -0.02, 0.015, 0.005, -0.01, 0.02, -0.005},
		"B": {0.02, -0.01, 0.01, 0.0, -0.02, 0.015, 0.01},
		"C": {-0.01, 0.015, -0.005, 0.02, 0.0, -0.01, 0.005},
	}

	cov, err := shrunkCovariance(tickers, returns)

	assert.NoError(t, err)
	assert.True(t, isPositiveDefinite(cov))
}

func TestShrinkToConstantCorrelation_ForcedIntensityIsPureTarget(t *testing.T) {
	tickers := domain.Tickers{"A", "B"}
	returns := map[domain.Ticker][]float64{
		"A": {0.01, -0.02, 0.015, 0.005},
		"B": {0.02, -0.01, 0.01, 0.0},
	}
	sample, err := sampleCovariance(tickers, returns)
	assert.NoError(t, err)

	shrunk := shrinkToConstantCorrelation(sample, true)

	// at full shrinkage the result is the pure target: symmetric, and every
	// diagonal entry is the average sample variance
	assert.InDelta(t, shrunk.At(0, 1), shrunk.At(1, 0), 1e-9)
	assert.InDelta(t, (sample.At(0, 0)+sample.At(1, 1))/2, shrunk.At(0, 0), 1e-12)
	assert.InDelta(t, shrunk.At(0, 0), shrunk.At(1, 1), 1e-12)
}
