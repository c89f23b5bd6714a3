package backtest

import (
	"math"

	"github.com/aristath/quantport/pkg/formulas"
)

// Stats is spec.md §4.6's summary statistics block, computed from the
// daily equity curve. Grounded on pkg/formulas — the same annualized
// volatility, Sharpe, and max-drawdown formulas the teacher applies to
// individual securities, applied here to the portfolio equity curve.
type Stats struct {
	AnnualizedReturn float64 `json:"annualized_return"`
	AnnualizedVol    float64 `json:"annualized_volatility"`
	Sharpe           float64 `json:"sharpe"`
	MaxDrawdown      float64 `json:"max_drawdown"`
}

// computeStats derives Stats from a chronologically ordered equity
// curve. riskFreeRate is annual, as a decimal (e.g. 0.0 for excess-return
// Sharpe).
func computeStats(curve []EquityPoint, riskFreeRate float64) Stats {
	if len(curve) < 2 {
		return Stats{}
	}
	values := make([]float64, len(curve))
	for i, p := range curve {
		values[i] = p.Value
	}
	returns := formulas.CalculateReturns(values)

	years := float64(len(values)-1) / 252.0
	var annualizedReturn float64
	if years > 0 && values[0] > 0 {
		totalReturn := values[len(values)-1] / values[0]
		if totalReturn > 0 {
			annualizedReturn = math.Pow(totalReturn, 1.0/years) - 1.0
		}
	}

	stats := Stats{
		AnnualizedReturn: annualizedReturn,
		AnnualizedVol:    formulas.AnnualizedVolatility(returns),
	}
	if sharpe := formulas.CalculateSharpeRatio(returns, riskFreeRate, 252); sharpe != nil {
		stats.Sharpe = *sharpe
	}
	if dd := formulas.CalculateMaxDrawdown(values); dd != nil {
		stats.MaxDrawdown = *dd
	}
	return stats
}
