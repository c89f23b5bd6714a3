package factors

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/aristath/quantport/internal/domain"
)

// standardizeOne computes the cross-sectional (mean, std) over the
// non-NaN values in raw and maps every value (including the NaN ones, as
// 0) to a winsorized z-score. Per spec.md §4.3: "map x -> clamp((x-μ)/σ,
// -limit, +limit); NaN -> 0 (neutral)."
func standardizeOne(raw map[domain.Ticker]float64, winsorizeLimit float64) (map[domain.Ticker]float64, domain.FactorStat) {
	values := make([]float64, 0, len(raw))
	for _, v := range raw {
		if !math.IsNaN(v) {
			values = append(values, v)
		}
	}

	fstat := domain.FactorStat{Count: len(values)}
	if len(values) > 0 {
		fstat.Mean, fstat.Std = meanStdDev(values)
	}

	z := make(map[domain.Ticker]float64, len(raw))
	for ticker, v := range raw {
		if math.IsNaN(v) || fstat.Std == 0 {
			z[ticker] = 0
			continue
		}
		score := (v - fstat.Mean) / fstat.Std
		z[ticker] = clamp(score, -winsorizeLimit, winsorizeLimit)
	}
	return z, fstat
}

// meanStdDev wraps gonum/stat's population mean and (sample) standard
// deviation over a cross-sectional slice of factor values.
func meanStdDev(values []float64) (mean, std float64) {
	mean = stat.Mean(values, nil)
	if len(values) < 2 {
		return mean, 0
	}
	std = stat.StdDev(values, nil)
	return mean, std
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

// dispersion returns the standard deviation of the three standardized
// z-scores, used as FactorScores.FactorStd (the view-confidence proxy in
// spec.md §4.4).
func dispersion(valueZ, qualityZ, momentumZ float64) float64 {
	return stat.StdDev([]float64{valueZ, qualityZ, momentumZ}, nil)
}
