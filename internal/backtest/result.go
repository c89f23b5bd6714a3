package backtest

import "github.com/aristath/quantport/internal/domain"

// EquityPoint is one day's mark-to-market portfolio value.
type EquityPoint struct {
	Date  domain.Date `json:"date"`
	Value float64     `json:"value"`
}

// RebalanceRecord is one rebalance date's decision: the universe
// selected down to, the resulting allocation, and the turnover incurred
// moving from the prior holdings into it.
type RebalanceRecord struct {
	Date       domain.Date             `json:"date"`
	Allocation domain.AllocationResult `json:"allocation"`
	Turnover   float64                 `json:"turnover"`
	CostPaid   float64                 `json:"cost_paid"`
}

// Result is BacktestEngine's full output: spec.md §4.6's "equity curve,
// per-period turnover, rebalance-level weights, and summary stats".
type Result struct {
	EquityCurve []EquityPoint     `json:"equity_curve"`
	Rebalances  []RebalanceRecord `json:"rebalances"`
	Stats       Stats             `json:"stats"`
}
