package optimize

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/quantport/internal/domain"
)

// tradingDaysPerYear annualizes the daily sample covariance, per spec.md
// §4.4's "sample covariance (annualized) over the historical window".
const tradingDaysPerYear = 252.0

// sampleCovariance builds the n-by-n annualized sample covariance matrix
// of daily returns over tickers (in tickers' order). Grounded on the
// teacher's calculateSampleCovariance: every pairwise covariance goes
// through stat.Covariance rather than a hand-rolled sum, and all series
// must share one observation count.
func sampleCovariance(tickers domain.Tickers, returns map[domain.Ticker][]float64) (*mat.Dense, error) {
	n := len(tickers)
	if n == 0 {
		return nil, fmt.Errorf("%w: no tickers for covariance", domain.ErrSingularCovariance)
	}

	length := -1
	for _, t := range tickers {
		r, ok := returns[t]
		if !ok {
			return nil, fmt.Errorf("%w: missing returns for %s", domain.ErrSingularCovariance, t)
		}
		if length == -1 {
			length = len(r)
		}
		if len(r) != length {
			return nil, fmt.Errorf("%w: inconsistent return lengths for %s", domain.ErrSingularCovariance, t)
		}
	}
	if length < 2 {
		return nil, fmt.Errorf("%w: need at least 2 return observations, got %d", domain.ErrSingularCovariance, length)
	}

	cov := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			c := stat.Covariance(returns[tickers[i]], returns[tickers[j]], nil) * tradingDaysPerYear
			cov.Set(i, j, c)
			if i != j {
				cov.Set(j, i, c)
			}
		}
	}
	return cov, nil
}

// shrinkToConstantCorrelation applies Ledoit-Wolf shrinkage toward a
// constant-correlation target, grounded on the teacher's
// applyLedoitWolfShrinkage: target diagonal is the average sample
// variance, target off-diagonal is the average sample covariance, and
// the shrinkage intensity is the same simplified variance-ratio
// estimator capped at 0.5. forceFullShrinkage pins the intensity to 1.0
// (pure constant-correlation target), spec.md §7's fallback when the
// normally-estimated intensity still leaves Σ non-PD.
func shrinkToConstantCorrelation(sample *mat.Dense, forceFullShrinkage bool) *mat.Dense {
	n, _ := sample.Dims()

	var avgVar, avgCov float64
	for i := 0; i < n; i++ {
		avgVar += sample.At(i, i)
		for j := 0; j < n; j++ {
			if i != j {
				avgCov += sample.At(i, j)
			}
		}
	}
	avgVar /= float64(n)
	if n > 1 {
		avgCov /= float64(n * (n - 1))
	}

	target := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				target.Set(i, j, avgVar)
			} else if avgVar > 0 {
				target.Set(i, j, avgCov)
			}
		}
	}

	intensity := 0.2
	if forceFullShrinkage {
		intensity = 1.0
	} else if n > 2 && avgVar > 0 {
		var sumSqDiff, sum, sumSq float64
		count := n * n
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				diff := sample.At(i, j) - target.At(i, j)
				sumSqDiff += diff * diff
				v := sample.At(i, j)
				sum += v
				sumSq += v * v
			}
		}
		meanSqDiff := sumSqDiff / float64(count)
		mean := sum / float64(count)
		varSample := sumSq/float64(count) - mean*mean
		if varSample > 0 && meanSqDiff > 0 {
			intensity = math.Min(0.5, math.Max(0.0, varSample/(varSample+meanSqDiff)))
		}
	}

	shrunk := mat.NewDense(n, n, nil)
	shrunk.Scale(1-intensity, sample)
	var scaledTarget mat.Dense
	scaledTarget.Scale(intensity, target)
	shrunk.Add(shrunk, &scaledTarget)
	return shrunk
}

// isPositiveDefinite reports whether m is symmetric positive definite via
// a Cholesky factorization attempt — the same check spec.md §4.4/§7 uses
// to decide between a usable shrunk covariance and ErrSingularCovariance.
func isPositiveDefinite(m *mat.Dense) bool {
	n, _ := m.Dims()
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, m.At(i, j))
		}
	}
	var chol mat.Cholesky
	return chol.Factorize(sym)
}

// shrunkCovariance is the optimizer's single entry point: sample
// covariance, then constant-correlation shrinkage, then a
// positive-definiteness check. Per spec.md §7/§4.4, a covariance that is
// still not PD at the estimated intensity retries at shrinkage intensity
// 1.0 (pure target); only if that also fails does it raise
// ErrSingularCovariance.
func shrunkCovariance(tickers domain.Tickers, returns map[domain.Ticker][]float64) (*mat.Dense, error) {
	sample, err := sampleCovariance(tickers, returns)
	if err != nil {
		return nil, err
	}
	shrunk := shrinkToConstantCorrelation(sample, false)
	if isPositiveDefinite(shrunk) {
		return shrunk, nil
	}
	fullShrunk := shrinkToConstantCorrelation(sample, true)
	if !isPositiveDefinite(fullShrunk) {
		return nil, fmt.Errorf("%w: not positive definite even at shrinkage intensity 1.0", domain.ErrSingularCovariance)
	}
	return fullShrunk, nil
}
