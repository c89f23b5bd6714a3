package backtest

import "github.com/aristath/quantport/internal/domain"

// Frequency is the rebalance cadence, spec.md §4.6's "monthly/quarterly".
type Frequency string

const (
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
)

// monthsPerStep returns how many calendar months the schedule advances
// between rebalance dates for freq.
func monthsPerStep(freq Frequency) int {
	if freq == Quarterly {
		return 3
	}
	return 1
}

// RebalanceDates builds the schedule of rebalance dates in [start, end],
// one per calendar step of freq starting at start. The last trading-day
// resolution (strictly before each date) happens downstream against
// actual price data — this only generates calendar anchors.
func RebalanceDates(start, end domain.Date, freq Frequency) []domain.Date {
	step := monthsPerStep(freq)
	var dates []domain.Date
	for d := start; !d.After(end); d = domain.NewDate(d.Time().AddDate(0, step, 0)) {
		dates = append(dates, d)
	}
	return dates
}
