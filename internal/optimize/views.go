package optimize

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/aristath/quantport/internal/domain"
)

// buildViews turns each ticker's composite factor score into one
// absolute BL view, spec.md §4.4's q_i = total_score_i · σ_i · α_scalar
// with an Idzorek-style confidence bucketed off factor_std. σ_i is the
// ticker's own annualized volatility, the diagonal of sigma.
func buildViews(tickers domain.Tickers, scores map[domain.Ticker]domain.FactorScores, sigma *mat.Dense, alphaScalar float64) []domain.ViewSpec {
	views := make([]domain.ViewSpec, len(tickers))
	for i, t := range tickers {
		s := scores[t]
		vol := math.Sqrt(math.Max(sigma.At(i, i), 0))
		views[i] = domain.ViewSpec{
			Ticker:              t,
			ImpliedExcessReturn: s.TotalScore * vol * alphaScalar,
			Confidence:          confidenceFromDispersion(s.FactorStd),
		}
	}
	return views
}

// confidenceFromDispersion implements spec.md §4.4's piecewise
// confidence bucketing: the three factors agreeing (low dispersion)
// means a more confident view.
func confidenceFromDispersion(factorStd float64) float64 {
	switch {
	case factorStd < 0.5:
		return 0.8
	case factorStd < 1.0:
		return 0.6
	case factorStd < 1.5:
		return 0.4
	default:
		return 0.2
	}
}

// viewUncertainty builds Ω, spec.md §4.4's diagonal Idzorek-style matrix:
// Ω_ii = (1−c_i)/c_i · (p_i · τΣ · p_iᵀ), where p_i picks out ticker i —
// which collapses to (1−c_i)/c_i · τ·Σ_ii since p_i is a one-hot row.
func viewUncertainty(views []domain.ViewSpec, sigma *mat.Dense, tau float64) *mat.Dense {
	n := len(views)
	omega := mat.NewDense(n, n, nil)
	for i, v := range views {
		c := v.Confidence
		if c <= 0 {
			c = 0.01 // guard against a zero-confidence division; never produced by confidenceFromDispersion
		}
		omega.Set(i, i, (1-c)/c*tau*sigma.At(i, i))
	}
	return omega
}
