package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/quantport/internal/domain"
)

func TestTurnover_NoChange(t *testing.T) {
	shares := map[domain.Ticker]int{"AAPL": 10, "MSFT": 5}
	prices := map[domain.Ticker]float64{"AAPL": 100, "MSFT": 200}

	turn := turnover(shares, prices, shares, prices, 2000)

	assert.Zero(t, turn)
}

func TestTurnover_FullRotation(t *testing.T) {
	prevShares := map[domain.Ticker]int{"AAPL": 10}
	prevPrices := map[domain.Ticker]float64{"AAPL": 100}
	newShares := map[domain.Ticker]int{"MSFT": 5}
	newPrices := map[domain.Ticker]float64{"MSFT": 200}

	turn := turnover(prevShares, prevPrices, newShares, newPrices, 1000)

	// sold $1000 of AAPL, bought $1000 of MSFT -> $2000 changed / $1000 value
	assert.InDelta(t, 2.0, turn, 1e-9)
}

func TestTransactionCost(t *testing.T) {
	cost := transactionCost(0.5, 10000, 10) // 10bps
	assert.InDelta(t, 5.0, cost, 1e-9)
}

func TestTransactionCost_ZeroBps(t *testing.T) {
	assert.Zero(t, transactionCost(0.5, 10000, 0))
}
