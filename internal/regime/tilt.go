package regime

import (
	"context"
	"math"

	"github.com/aristath/quantport/internal/config"
	"github.com/aristath/quantport/internal/domain"
	"github.com/aristath/quantport/internal/sources"
)

// benchmarkTicker is the index proxy used for the optional RegimeDetector
// integration (spec.md §4.5) — both the backtest engine and the live
// rebalance job tilt against the same broad-market ETF.
const benchmarkTicker = domain.Ticker("SPY")

// ResolveTiltedWeights applies spec.md §4.5's optional regime tilt: when
// EnableFactorRegimes is set, classify the benchmark's state as of d
// through src and tilt cfg.FactorWeights per TiltFactorWeights. With only
// EnableRegimeAdjustment set, the benchmark is still classified but the
// base weights are returned untilted. Any failure to resolve the benchmark (missing
// from the source, insufficient history) degrades to the untilted base
// weights rather than failing the caller's rebalance.
func ResolveTiltedWeights(ctx context.Context, src sources.PriceSource, d domain.Date, cfg config.EngineConfig) domain.FactorWeights {
	if !cfg.EnableFactorRegimes && !cfg.EnableRegimeAdjustment {
		return cfg.FactorWeights
	}

	bars, err := src.GetHistory(ctx, benchmarkTicker, d.TradingDaysBefore(260), d)
	if err != nil || len(bars) < 70 {
		return cfg.FactorWeights
	}
	closes := bars.AdjCloses()

	shortRet := dailyReturns(closes[max0(len(closes)-22):])
	longRet := dailyReturns(closes[max0(len(closes)-64):])
	volShort := stdDev(shortRet)
	volLong := stdDev(longRet)

	result := Detect(bars, volShort, volLong)
	return TiltFactorWeights(cfg.FactorWeights, result.Regime, cfg.EnableFactorRegimes)
}

func dailyReturns(closes []float64) []float64 {
	out := make([]float64, 0, len(closes))
	for i := 1; i < len(closes); i++ {
		if closes[i-1] != 0 {
			out = append(out, closes[i]/closes[i-1]-1)
		}
	}
	return out
}

func stdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var sumSq float64
	for _, x := range xs {
		d := x - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)))
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// TiltFactorWeights implements spec.md §9's Open Question decision: the
// "factor regime" tilt is a configurable post-processing step on
// composite weights, not part of FactorEngine's core computation. When
// enabled (EnableFactorRegimes) and the detected regime is RISK_OFF,
// quality is tilted up and momentum down, on the (empirical, unmeasured
// precisely in the source) premise that quality outperforms momentum in
// drawdowns; RISK_ON tilts the reverse. CAUTION leaves weights
// unchanged. See DESIGN.md for the Open Question this resolves.
func TiltFactorWeights(base domain.FactorWeights, regime State, enabled bool) domain.FactorWeights {
	if !enabled || regime == Caution {
		return base
	}

	const tiltAmount = 0.05
	tilted := base
	switch regime {
	case RiskOff:
		tilted.Quality += tiltAmount
		tilted.Momentum -= tiltAmount
	case RiskOn:
		tilted.Quality -= tiltAmount
		tilted.Momentum += tiltAmount
	}
	return normalize(tilted)
}

// ApplyMacroTilt implements the optional enable_macro_tilt knob: scales
// aggregate equity exposure (rather than reweighting factors) down in
// RISK_OFF, leaving weights directionally unchanged but reducing total
// invested fraction. Returns a multiplier in (0,1] to apply to every
// target weight before renormalizing leftover to cash.
func ApplyMacroTilt(regime State, enabled bool) float64 {
	if !enabled {
		return 1.0
	}
	switch regime {
	case RiskOff:
		return 0.75
	case Caution:
		return 0.9
	default:
		return 1.0
	}
}

func normalize(w domain.FactorWeights) domain.FactorWeights {
	sum := w.Value + w.Quality + w.Momentum
	if sum <= 0 {
		return w
	}
	return domain.FactorWeights{Value: w.Value / sum, Quality: w.Quality / sum, Momentum: w.Momentum / sum}
}
