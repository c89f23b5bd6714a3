package optimize

import (
	"gonum.org/v1/gonum/mat"

	"github.com/aristath/quantport/internal/domain"
)

// marketWeights cap-normalizes marketCaps over tickers (in tickers'
// order), for the reverse-optimization prior.
func marketWeights(tickers domain.Tickers, marketCaps map[domain.Ticker]float64) []float64 {
	total := 0.0
	for _, t := range tickers {
		total += marketCaps[t]
	}
	w := make([]float64, len(tickers))
	if total <= 0 {
		return w
	}
	for i, t := range tickers {
		w[i] = marketCaps[t] / total
	}
	return w
}

// equilibriumReturns computes spec.md §4.4's reverse-optimization prior
// π = δ·Σ·w_mkt, grounded on the teacher's
// BlackLittermanOptimizer.CalculateMarketEquilibrium (same Π = λΣw
// formula, renamed to the risk-aversion vocabulary this spec uses).
func equilibriumReturns(sigma *mat.Dense, wMkt []float64, riskAversion float64) *mat.VecDense {
	n := len(wMkt)
	w := mat.NewVecDense(n, wMkt)

	var sigmaW mat.VecDense
	sigmaW.MulVec(sigma, w)

	pi := mat.NewVecDense(n, nil)
	pi.ScaleVec(riskAversion, &sigmaW)
	return pi
}
