package optimize

import (
	"math"

	"github.com/aristath/quantport/internal/domain"
)

// discretize implements spec.md §4.4's discrete allocation: floor each
// ticker's target dollar allocation into whole shares, then iteratively
// hand the leftover cash to whichever ticker's next share buys the
// closest fit to its target weight, stopping once no remaining ticker's
// price fits inside what's left.
func discretize(tickers domain.Tickers, weights map[domain.Ticker]float64, prices map[domain.Ticker]float64, capital float64) (shares map[domain.Ticker]int, invested, leftover float64) {
	shares = make(map[domain.Ticker]int, len(tickers))
	invested = 0

	for _, t := range tickers {
		p := prices[t]
		if p <= 0 {
			continue
		}
		n := int(math.Floor(weights[t] * capital / p))
		if n < 0 {
			n = 0
		}
		shares[t] = n
		invested += float64(n) * p
	}
	leftover = capital - invested

	for {
		best := domain.Ticker("")
		bestErr := math.Inf(1)
		for _, t := range tickers {
			p := prices[t]
			if p <= 0 || p > leftover {
				continue
			}
			trial := trackingError(tickers, shares, prices, weights, capital, t, 1)
			if trial < bestErr {
				bestErr = trial
				best = t
			}
		}
		if best == "" {
			break
		}
		shares[best]++
		invested += prices[best]
		leftover -= prices[best]
	}

	return shares, invested, leftover
}

// trackingError is the sum of squared deviations between actual and
// target weights (against total capital, so it stays comparable across
// iterations) if delta more shares of candidate were added to shares.
func trackingError(tickers domain.Tickers, shares map[domain.Ticker]int, prices, weights map[domain.Ticker]float64, capital float64, candidate domain.Ticker, delta int) float64 {
	var sumSq float64
	for _, t := range tickers {
		n := shares[t]
		if t == candidate {
			n += delta
		}
		actual := float64(n) * prices[t] / capital
		diff := actual - weights[t]
		sumSq += diff * diff
	}
	return sumSq
}
