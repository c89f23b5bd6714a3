package optimize

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/aristath/quantport/internal/domain"
)

// penaltyWeight matches the teacher's mv_optimizer.go penalty scale for
// the sum-to-1 and sector-cap constraints.
const penaltyWeight = 1000.0

var convergedStatuses = map[optimize.Status]bool{
	optimize.Success:             true,
	optimize.GradientThreshold:   true,
	optimize.FunctionConvergence: true,
}

// solve runs spec.md §4.4's convex mean-variance program: maximize the
// chosen objective subject to Σw=1, 0≤w_i≤maxPositionSize, and optional
// sector caps. Grounded on the teacher's mv_optimizer.go: same
// penalty-method Problem{Func,Grad} construction and BFGS-then-
// NelderMead fallback, generalized from the teacher's per-strategy
// function trio to one objective switch since this spec only needs
// MaxSharpe/MinVolatility/MaxQuadraticUtility.
func solve(tickers domain.Tickers, mu []float64, sigma [][]float64, sectors map[domain.Ticker]string, st Settings, maxPositionSize float64) (map[domain.Ticker]float64, error) {
	n := len(tickers)
	bounds := make([][2]float64, n)
	for i := range bounds {
		bounds[i] = [2]float64{0, maxPositionSize}
	}

	if float64(n)*maxPositionSize < 1.0 {
		return nil, fmt.Errorf("%w: %d tickers at max_position_size %.4f cannot sum to 1", domain.ErrInfeasibleOptimization, n, maxPositionSize)
	}

	objFn, gradFn := buildObjective(st.Objective, mu, sigma, st.RiskAversionForMQU)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			xp := projectToBounds(x, bounds)
			obj := objFn(xp)
			obj += penaltyWeight * sumToOnePenalty(xp)
			obj += sectorPenalty(xp, tickers, sectors, st.SectorCaps)
			return obj
		},
		Grad: func(grad, x []float64) {
			xp := projectToBounds(x, bounds)
			gradFn(grad, xp)
			addSumToOneGradient(grad, xp)
			addSectorGradient(grad, xp, tickers, sectors, st.SectorCaps)
		},
	}

	initial := make([]float64, n)
	for i := range initial {
		initial[i] = 1.0 / float64(n)
	}

	result, err := optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.BFGS{})
	if err != nil || !convergedStatuses[result.Status] {
		result, err = optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.NelderMead{})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInfeasibleOptimization, err)
		}
	}
	if !convergedStatuses[result.Status] {
		return nil, fmt.Errorf("%w: solver status %v", domain.ErrInfeasibleOptimization, result.Status)
	}

	return normalizeWeights(tickers, projectToBounds(result.X, bounds)), nil
}

// buildObjective returns the per-objective value/gradient pair, penalty
// terms excluded — those are layered on uniformly in solve.
func buildObjective(obj Objective, mu []float64, sigma [][]float64, gamma float64) (func([]float64) float64, func([]float64, []float64)) {
	n := len(mu)
	variance := func(x []float64) float64 {
		var v float64
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				v += x[i] * x[j] * sigma[i][j]
			}
		}
		return v
	}
	portfolioReturn := func(x []float64) float64 {
		var r float64
		for i := 0; i < n; i++ {
			r += mu[i] * x[i]
		}
		return r
	}
	varianceGrad := func(grad, x []float64) {
		for i := 0; i < n; i++ {
			var g float64
			for j := 0; j < n; j++ {
				g += 2 * sigma[i][j] * x[j]
			}
			grad[i] = g
		}
	}

	switch obj {
	case MinVolatility:
		return variance, varianceGrad

	case MaxQuadraticUtility:
		return func(x []float64) float64 {
				return -(portfolioReturn(x) - gamma*variance(x))
			}, func(grad, x []float64) {
				varianceGrad(grad, x)
				for i := 0; i < n; i++ {
					grad[i] = -mu[i] + gamma*grad[i]
				}
			}

	default: // MaxSharpe
		return func(x []float64) float64 {
				std := math.Sqrt(math.Max(variance(x), 1e-10))
				return -portfolioReturn(x) / std
			}, func(grad, x []float64) {
				v := math.Max(variance(x), 1e-10)
				std := math.Sqrt(v)
				r := portfolioReturn(x)
				var dv []float64 = make([]float64, n)
				varianceGrad(dv, x)
				for i := 0; i < n; i++ {
					grad[i] = -mu[i]/std + r*dv[i]/(2*std*std*std)
				}
			}
	}
}

func sumToOnePenalty(x []float64) float64 {
	sum := 0.0
	for _, xi := range x {
		sum += xi
	}
	return (sum - 1.0) * (sum - 1.0)
}

func addSumToOneGradient(grad, x []float64) {
	sum := 0.0
	for _, xi := range x {
		sum += xi
	}
	for i := range grad {
		grad[i] += 2 * penaltyWeight * (sum - 1.0)
	}
}

// sectorPenalty implements optional sector caps the same way the
// teacher's sectorConstraintPenalty does: squared violation of the
// configured [lower, upper] band per sector.
func sectorPenalty(x []float64, tickers domain.Tickers, sectors map[domain.Ticker]string, caps map[string][2]float64) float64 {
	if len(caps) == 0 {
		return 0
	}
	sectorWeight := make(map[string]float64)
	for i, t := range tickers {
		sectorWeight[sectors[t]] += x[i]
	}
	var penalty float64
	for sector, band := range caps {
		w := sectorWeight[sector]
		if w < band[0] {
			d := band[0] - w
			penalty += penaltyWeight * d * d
		}
		if w > band[1] {
			d := w - band[1]
			penalty += penaltyWeight * d * d
		}
	}
	return penalty
}

func addSectorGradient(grad []float64, x []float64, tickers domain.Tickers, sectors map[domain.Ticker]string, caps map[string][2]float64) {
	if len(caps) == 0 {
		return
	}
	sectorWeight := make(map[string]float64)
	for i, t := range tickers {
		sectorWeight[sectors[t]] += x[i]
	}
	for sector, band := range caps {
		w := sectorWeight[sector]
		if w < band[0] {
			d := 2 * penaltyWeight * (band[0] - w)
			for i, t := range tickers {
				if sectors[t] == sector {
					grad[i] -= d
				}
			}
		}
		if w > band[1] {
			d := 2 * penaltyWeight * (w - band[1])
			for i, t := range tickers {
				if sectors[t] == sector {
					grad[i] += d
				}
			}
		}
	}
}

func projectToBounds(x []float64, bounds [][2]float64) []float64 {
	proj := make([]float64, len(x))
	for i := range x {
		proj[i] = math.Max(bounds[i][0], math.Min(bounds[i][1], x[i]))
	}
	return proj
}

func normalizeWeights(tickers domain.Tickers, x []float64) map[domain.Ticker]float64 {
	sum := 0.0
	for _, xi := range x {
		sum += math.Max(0, xi)
	}
	weights := make(map[domain.Ticker]float64, len(tickers))
	for i, t := range tickers {
		w := math.Max(0, x[i])
		if sum > 0 {
			w /= sum
		}
		weights[t] = w
	}
	return weights
}
