package optimize

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/aristath/quantport/internal/domain"
)

// defaultRiskAversion is spec.md §4.4's δ default (implied risk
// aversion used in the reverse-optimization prior).
const defaultRiskAversion = 2.5

// Optimizer is the top-level BlackLittermanOptimizer: prior, views,
// posterior, convex solve, discrete conversion, composed in one call.
// Grounded on the teacher's BlackLittermanOptimizer + MVOptimizer pair,
// merged into a single orchestrator since this spec has one always-run
// pipeline rather than the teacher's separately-invokable stages.
type Optimizer struct {
	log zerolog.Logger
}

// New constructs an Optimizer.
func New(log zerolog.Logger) *Optimizer {
	return &Optimizer{log: log.With().Str("component", "optimizer").Logger()}
}

// Build runs the full pipeline described in models.go's package comment
// and returns the resulting AllocationResult. ctx is accepted for
// symmetry with the rest of the pipeline's call signatures even though
// the solve itself is CPU-bound and non-cancellable mid-iteration.
func (o *Optimizer) Build(_ context.Context, in Inputs) (domain.AllocationResult, error) {
	tickers := orderedTickers(in.Tickers)
	if len(tickers) == 0 {
		return domain.AllocationResult{}, fmt.Errorf("%w: empty ticker selection", domain.ErrConfigError)
	}

	riskAversion := in.Config.RiskAversion
	if riskAversion <= 0 {
		riskAversion = defaultRiskAversion
	}

	sigma, err := shrunkCovariance(tickers, in.Returns)
	if err != nil {
		return domain.AllocationResult{}, err
	}

	wMkt := marketWeights(tickers, in.MarketCaps)
	pi := equilibriumReturns(sigma, wMkt, riskAversion)

	if allZScoresNeutral(tickers, in.Scores) {
		return o.finish(tickers, vecToMap(tickers, pi), sigma, wMkt, in)
	}

	tau := in.Config.Tau
	if tau <= 0 {
		tau = 0.05
	}

	views := buildViews(tickers, in.Scores, sigma, in.Config.FactorAlphaScalar)
	omega := viewUncertainty(views, sigma, tau)
	mu, err := posteriorReturns(sigma, pi, views, omega, tau)
	if err != nil {
		o.log.Warn().Err(err).Msg("BL posterior failed, falling back to equilibrium returns")
		return o.finish(tickers, vecToMap(tickers, pi), sigma, wMkt, in)
	}

	return o.finish(tickers, vecToMap(tickers, mu), sigma, wMkt, in)
}

// finish runs the convex solve and discrete conversion common to both
// the posterior and equilibrium-only paths, and degrades to equal
// weighting (spec.md §7, InfeasibleOptimization) rather than failing
// the whole rebalance.
func (o *Optimizer) finish(tickers domain.Tickers, mu map[domain.Ticker]float64, sigma *mat.Dense, wMkt []float64, in Inputs) (domain.AllocationResult, error) {
	muVec := make([]float64, len(tickers))
	for i, t := range tickers {
		muVec[i] = mu[t]
	}
	sigmaSlice := denseToSlice(sigma)

	maxPos := in.Config.MaxPositionSize
	if maxPos <= 0 {
		maxPos = 0.30
	}

	settings := in.Settings
	if settings.Objective == "" {
		settings = DefaultSettings()
	}

	weights, err := solve(tickers, muVec, sigmaSlice, in.Sectors, settings, maxPos)
	degraded := false
	if err != nil {
		o.log.Warn().Err(err).Msg("convex solve infeasible, falling back to equal weighting")
		weights = equalWeights(tickers)
		degraded = true
	}

	expReturn, vol := portfolioStats(tickers, weights, muVec, sigmaSlice)
	sharpe := 0.0
	if vol > 0 {
		sharpe = expReturn / vol
	}

	shares, invested, leftover := discretize(tickers, weights, in.LatestPrices, in.Capital)

	return domain.AllocationResult{
		Weights:         weights,
		ExpectedReturn:  expReturn,
		Volatility:      vol,
		Sharpe:          sharpe,
		DiscreteShares:  shares,
		InvestedCapital: invested,
		LeftoverCash:    leftover,
		Degraded:        degraded,
	}, nil
}

// allZScoresNeutral reports whether every ticker's TotalScore is exactly
// zero — spec.md §8's "all z-scores equal → weights equal to market-cap
// prior" scenario, since a zero-information view set should leave the
// equilibrium prior untouched rather than run it through a degenerate
// posterior.
func allZScoresNeutral(tickers domain.Tickers, scores map[domain.Ticker]domain.FactorScores) bool {
	for _, t := range tickers {
		if scores[t].TotalScore != 0 {
			return false
		}
	}
	return true
}

func equalWeights(tickers domain.Tickers) map[domain.Ticker]float64 {
	w := 1.0 / float64(len(tickers))
	out := make(map[domain.Ticker]float64, len(tickers))
	for _, t := range tickers {
		out[t] = w
	}
	return out
}

func portfolioStats(tickers domain.Tickers, weights map[domain.Ticker]float64, mu []float64, sigma [][]float64) (expReturn, vol float64) {
	w := make([]float64, len(tickers))
	for i, t := range tickers {
		w[i] = weights[t]
	}
	for i := range w {
		expReturn += mu[i] * w[i]
	}
	var variance float64
	for i := range w {
		for j := range w {
			variance += w[i] * w[j] * sigma[i][j]
		}
	}
	vol = math.Sqrt(math.Max(variance, 0))
	return expReturn, vol
}

func vecToMap(tickers domain.Tickers, v *mat.VecDense) map[domain.Ticker]float64 {
	out := make(map[domain.Ticker]float64, len(tickers))
	for i, t := range tickers {
		out[t] = v.AtVec(i)
	}
	return out
}

func denseToSlice(m *mat.Dense) [][]float64 {
	n, _ := m.Dims()
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		out[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}
