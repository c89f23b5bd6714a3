// Package factors implements spec.md §4.3's FactorEngine: fetch, raw
// factor computation, cross-sectional standardization, composite
// scoring, and ranking, all pinned to one as_of date. Grounded on the
// teacher's internal/modules/evaluation package's use of gonum/stat for
// cross-sectional statistics, generalized from Monte Carlo path
// dispersion to factor z-scoring.
package factors

import (
	"math"

	"github.com/aristath/quantport/internal/domain"
)

// computeRaw derives the raw factor vector for one ticker from its latest
// fundamentals snapshot and a price history ending strictly before as_of.
// Guarded denominators yield NaN rather than a fabricated value, per
// spec.md §7's DataIntegrity handling — standardization maps NaN to a
// neutral z=0 later.
func computeRaw(ticker domain.Ticker, snap domain.FundamentalsSnapshot, prices domain.PriceSeries, asOf domain.Date) domain.RawFactors {
	raw := domain.RawFactors{Ticker: ticker}

	if snap.MarketCap > 0 {
		raw.FCFYield = snap.FreeCashFlowTTM / snap.MarketCap
		raw.EarningsYield = snap.EBIT / snap.MarketCap
	} else {
		raw.FCFYield = math.NaN()
		raw.EarningsYield = math.NaN()
	}
	raw.ValueRaw = 0.5*raw.FCFYield + 0.5*raw.EarningsYield

	denom := snap.TotalAssets - snap.CurrentLiabilities
	if denom > 0 {
		raw.ROIC = snap.EBIT / denom
	} else {
		raw.ROIC = math.NaN()
	}

	if snap.Revenue > 0 {
		raw.GrossMargin = snap.GrossProfit / snap.Revenue
	} else {
		raw.GrossMargin = math.NaN()
	}
	raw.QualityRaw = 0.5*raw.ROIC + 0.5*raw.GrossMargin

	raw.Momentum12M = momentum12M(prices, asOf)

	return raw
}

// momentum12M computes price(as_of-1)/price(as_of-253) - 1, using the
// latest trading day strictly before each cutoff. NaN if either endpoint
// is missing from the supplied series.
func momentum12M(prices domain.PriceSeries, asOf domain.Date) float64 {
	recent, ok := prices.AtOrBefore(asOf)
	if !ok {
		return math.NaN()
	}
	past, ok := prices.AtOrBefore(asOf.TradingDaysBefore(253))
	if !ok || past.AdjClose <= 0 {
		return math.NaN()
	}
	return recent.AdjClose/past.AdjClose - 1.0
}
