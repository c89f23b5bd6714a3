package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/quantport/internal/domain"
)

func TestDiscretize_ExactFitScenario(t *testing.T) {
	tickers := domain.Tickers{"A", "B", "C"}
	weights := map[domain.Ticker]float64{"A": 0.5, "B": 0.3, "C": 0.2}
	prices := map[domain.Ticker]float64{"A": 100, "B": 50, "C": 25}

	shares, invested, leftover := discretize(tickers, weights, prices, 10000)

	assert.Equal(t, 50, shares["A"])
	assert.Equal(t, 60, shares["B"])
	assert.Equal(t, 80, shares["C"])
	assert.InDelta(t, 10000.0, invested, 1e-9)
	assert.InDelta(t, 0.0, leftover, 1e-9)
}

func TestDiscretize_ZeroPriceSkipped(t *testing.T) {
	tickers := domain.Tickers{"A", "B"}
	weights := map[domain.Ticker]float64{"A": 0.5, "B": 0.5}
	prices := map[domain.Ticker]float64{"A": 100, "B": 0}

	shares, invested, leftover := discretize(tickers, weights, prices, 1000)

	// B is never bought; the residual cash keeps going to A (the only
	// price that fits) until nothing is left: 10 shares of A.
	assert.Equal(t, 0, shares["B"])
	assert.InDelta(t, 1000.0, invested, 1e-9)
	assert.InDelta(t, 0.0, leftover, 1e-9)
}

func TestDiscretize_NeverOverspends(t *testing.T) {
	tickers := domain.Tickers{"A", "B", "C"}
	weights := map[domain.Ticker]float64{"A": 0.33, "B": 0.33, "C": 0.34}
	prices := map[domain.Ticker]float64{"A": 37, "B": 41, "C": 53}

	shares, invested, leftover := discretize(tickers, weights, prices, 1000)

	assert.LessOrEqual(t, invested, 1000.0)
	assert.GreaterOrEqual(t, leftover, 0.0)
	sum := 0.0
	for t, n := range shares {
		sum += float64(n) * prices[t]
	}
	assert.InDelta(t, invested, sum, 1e-9)
}
