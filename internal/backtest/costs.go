package backtest

import "github.com/aristath/quantport/internal/domain"

// turnover is the sum of absolute dollar changes in per-ticker holdings
// between the prior and new allocation, divided by portfolio value — a
// two-way measure (buys and sells both count, so a full rotation is 2.0)
// that spec.md §4.6's transaction costs are applied against.
func turnover(prevShares map[domain.Ticker]int, prevPrices map[domain.Ticker]float64, newShares map[domain.Ticker]int, newPrices map[domain.Ticker]float64, portfolioValue float64) float64 {
	if portfolioValue <= 0 {
		return 0
	}
	tickers := make(map[domain.Ticker]struct{})
	for t := range prevShares {
		tickers[t] = struct{}{}
	}
	for t := range newShares {
		tickers[t] = struct{}{}
	}

	var changed float64
	for t := range tickers {
		prevValue := float64(prevShares[t]) * prevPrices[t]
		newValue := float64(newShares[t]) * newPrices[t]
		d := newValue - prevValue
		if d < 0 {
			d = -d
		}
		changed += d
	}
	return changed / portfolioValue
}

// transactionCost converts turnover into a dollar cost at costBps basis
// points, applied once per rebalance, optional per spec.md §4.6.
func transactionCost(turn float64, portfolioValue float64, costBps float64) float64 {
	if costBps <= 0 {
		return 0
	}
	return turn * portfolioValue * costBps / 10000.0
}
