package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"

	"github.com/aristath/quantport/internal/domain"
)

func TestMarketWeights_CapNormalized(t *testing.T) {
	tickers := domain.Tickers{"A", "B", "C"}
	caps := map[domain.Ticker]float64{"A": 300, "B": 500, "C": 200}

	w := marketWeights(tickers, caps)

	assert.InDelta(t, 0.3, w[0], 1e-9)
	assert.InDelta(t, 0.5, w[1], 1e-9)
	assert.InDelta(t, 0.2, w[2], 1e-9)
}

func TestMarketWeights_ZeroTotal(t *testing.T) {
	tickers := domain.Tickers{"A", "B"}
	caps := map[domain.Ticker]float64{}

	w := marketWeights(tickers, caps)

	assert.Equal(t, []float64{0, 0}, w)
}

func TestEquilibriumReturns_IdentityCovariance(t *testing.T) {
	sigma := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	w := []float64{0.6, 0.4}

	pi := equilibriumReturns(sigma, w, 2.5)

	assert.InDelta(t, 1.5, pi.AtVec(0), 1e-9)
	assert.InDelta(t, 1.0, pi.AtVec(1), 1e-9)
}
