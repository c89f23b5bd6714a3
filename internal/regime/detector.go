// Package regime implements spec.md §4.5's RegimeDetector: classifies
// market state from an index price series' distance to its 200-day
// moving average and a volatility term-structure ratio, with an RSI
// breadth diagnostic. Grounded on the teacher's
// internal/modules/optimization/returns.go forward-looking VIX/PE
// adjustment style (threshold-bucketed market indicators) and
// pkg/formulas/rsi.go's go-talib usage.
package regime

import (
	"math"

	"github.com/markcheno/go-talib"

	"github.com/aristath/quantport/internal/domain"
)

// State is the classified market regime.
type State string

const (
	RiskOn  State = "RISK_ON"
	Caution State = "CAUTION"
	RiskOff State = "RISK_OFF"
)

// Result is the RegimeDetector's output: the classified state, a
// continuous [-1,1] signal strength (negative = risk-off leaning), and
// the raw diagnostics that produced it.
type Result struct {
	Regime         State   `json:"regime"`
	SignalStrength float64 `json:"signal_strength"`
	Details        Details `json:"details"`
}

// Details carries the raw inputs behind a Result, for audit/logging.
type Details struct {
	IndexPrice       float64 `json:"index_price"`
	MovingAverage200 float64 `json:"moving_average_200"`
	PctAboveMA200    float64 `json:"pct_above_ma200"`
	VolShortTerm     float64 `json:"vol_short_term"`
	VolLongTerm      float64 `json:"vol_long_term"`
	VolRatio         float64 `json:"vol_ratio"` // short/long; >1 = backwardation (stress)
	BreadthRSI       float64 `json:"breadth_rsi"`
}

// thresholds mirror the teacher's bucketed-threshold style in
// internal/modules/optimization/returns.go (VIXHigh/VIXLow, PE bands)
// applied here to the distance-from-200dma and vol-ratio inputs instead.
// The classification reads only the vol-ratio pair; the two
// pctAboveMA200 constants are not used by it.
const (
	pctAboveMA200RiskOn  = 0.02  // index > 2% above its 200dma
	pctAboveMA200RiskOff = -0.05 // index > 5% below its 200dma
	volRatioRiskOff      = 1.15  // short-term vol 15% above long-term = stress
	volRatioRiskOn       = 0.90
)

// Detect classifies the regime from indexPrices (ascending by date,
// ending strictly before as_of — callers are responsible for the as_of
// fence via sources.AsOfBoundSource) and a matching short/long realized
// volatility pair, e.g. 21-day vs 63-day annualized vol of the same
// index series.
func Detect(indexPrices domain.PriceSeries, volShortTerm, volLongTerm float64) Result {
	closes := indexPrices.AdjCloses()

	var ma200 float64
	if len(closes) >= 200 {
		ma200 = simpleMovingAverage(closes[len(closes)-200:])
	} else if len(closes) > 0 {
		ma200 = simpleMovingAverage(closes)
	}

	lastPrice := 0.0
	if len(closes) > 0 {
		lastPrice = closes[len(closes)-1]
	}

	pctAboveMA := 0.0
	if ma200 > 0 {
		pctAboveMA = lastPrice/ma200 - 1.0
	}

	volRatio := 1.0
	if volLongTerm > 0 {
		volRatio = volShortTerm / volLongTerm
	}

	breadth := breadthRSI(closes)

	signal := classifySignal(pctAboveMA, volRatio)
	state := classifyState(signal)

	return Result{
		Regime:         state,
		SignalStrength: signal,
		Details: Details{
			IndexPrice:       lastPrice,
			MovingAverage200: ma200,
			PctAboveMA200:    pctAboveMA,
			VolShortTerm:     volShortTerm,
			VolLongTerm:      volLongTerm,
			VolRatio:         volRatio,
			BreadthRSI:       breadth,
		},
	}
}

// classifySignal combines the trend and volatility-term-structure
// readings into one continuous score in [-1, 1].
func classifySignal(pctAboveMA, volRatio float64) float64 {
	trendSignal := clamp(pctAboveMA/pctAboveMA2Scale, -1, 1)
	volSignal := clamp((volRatioRiskOff-volRatio)/(volRatioRiskOff-volRatioRiskOn), -1, 1)
	return 0.5*trendSignal + 0.5*volSignal
}

const pctAboveMA2Scale = 0.10 // ±10% from the 200dma maps to a full ±1 trend signal

func classifyState(signal float64) State {
	switch {
	case signal >= 0.3:
		return RiskOn
	case signal <= -0.3:
		return RiskOff
	default:
		return Caution
	}
}

func simpleMovingAverage(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// breadthRSI reports the 14-period RSI of the index series, a secondary
// diagnostic (not part of the RISK_ON/CAUTION/RISK_OFF classification
// itself) surfaced for operators to sanity-check the regime call.
func breadthRSI(closes []float64) float64 {
	if len(closes) < 15 {
		return math.NaN()
	}
	rsi := talib.Rsi(closes, 14)
	if len(rsi) == 0 {
		return math.NaN()
	}
	return rsi[len(rsi)-1]
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
