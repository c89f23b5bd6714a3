package domain

import "time"

// AllocationResult is the immutable output of one optimizer run: target
// fractional weights, expected portfolio metrics, and the discrete share
// conversion against a capital figure and a price vector.
type AllocationResult struct {
	Weights         map[Ticker]float64 `json:"weights"` // sums to 1 within tolerance
	ExpectedReturn  float64            `json:"expected_return"`
	Volatility      float64            `json:"volatility"`
	Sharpe          float64            `json:"sharpe"`
	DiscreteShares  map[Ticker]int     `json:"discrete_shares"`
	InvestedCapital float64            `json:"invested_capital"`
	LeftoverCash    float64            `json:"leftover_cash"`

	// Degraded is set when the convex solver could not satisfy the
	// constraints and the engine fell back to equal weighting within the
	// selected subset (spec.md §7, InfeasibleOptimization).
	Degraded bool `json:"degraded"`
}

// Snapshot embeds an AllocationResult with the timestamp and config it
// was produced under, for later forward validation by downstream
// consumers. The snapshot itself is never mutated after construction.
type Snapshot struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	AsOf      Date             `json:"as_of"`
	Result    AllocationResult `json:"result"`
	Scores    map[Ticker]FactorScores `json:"factor_scores"`
}
