// Package optimize implements spec.md §4.4's BlackLittermanOptimizer:
// market-cap prior via reverse optimization, factor-score-driven views
// with Idzorek-style uncertainty, the standard BL posterior, a
// penalty-method convex mean-variance solver, and discrete share
// conversion. Grounded on the teacher's
// internal/modules/optimization/{black_litterman.go,mv_optimizer.go} —
// kept here is the teacher's actual BL linear algebra and its
// gonum/optimize penalty-method solving style (BFGS, fall back to
// Nelder-Mead), generalized from the teacher's HTTP call-out to a
// PyPortfolioOpt microservice into a native Go implementation (gonum is
// already a teacher dependency; see DESIGN.md).
package optimize

import (
	"sort"

	"github.com/aristath/quantport/internal/domain"
)

// Objective selects the convex program solved in spec.md §4.4.
type Objective string

const (
	MaxSharpe            Objective = "max_sharpe"
	MinVolatility        Objective = "min_volatility"
	MaxQuadraticUtility  Objective = "max_quadratic_utility"
)

// Settings is the per-run optimizer configuration, separate from
// config.EngineConfig because a few fields (objective, risk aversion
// override for utility maximization) are call-site choices rather than
// process-wide tunables.
type Settings struct {
	Objective          Objective
	RiskAversionForMQU float64 // only used when Objective == MaxQuadraticUtility
	SectorCaps         map[string][2]float64 // sector -> [lower, upper], optional
}

// DefaultSettings matches spec.md §4.4's default objective.
func DefaultSettings() Settings {
	return Settings{Objective: MaxSharpe}
}

// Inputs bundles everything Optimizer.Build needs for one optimizer run.
type Inputs struct {
	Tickers      domain.Tickers // selected subset (typically top-N), fixed iteration order
	Scores       map[domain.Ticker]domain.FactorScores
	MarketCaps   map[domain.Ticker]float64
	Sectors      map[domain.Ticker]string
	Returns      map[domain.Ticker][]float64 // daily returns over the covariance lookback window, aligned
	LatestPrices map[domain.Ticker]float64
	Capital      float64
	Config       Config
	Settings     Settings
}

// Config is the subset of config.EngineConfig the optimizer needs,
// passed by value so this package has no import-time dependency on
// internal/config (which in turn depends on internal/domain only).
type Config struct {
	MaxPositionSize   float64
	FactorAlphaScalar float64
	RiskAversion      float64
	Tau               float64
}

// orderedTickers returns t sorted lexicographically, giving every matrix
// construction in this package a single deterministic ticker ordering —
// required for spec.md §4.3's determinism guarantee to carry through the
// optimizer.
func orderedTickers(t domain.Tickers) domain.Tickers {
	out := make(domain.Tickers, len(t))
	copy(out, t)
	sort.Sort(out)
	return out
}
