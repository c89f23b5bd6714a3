// Package backtest implements spec.md §4.6's BacktestEngine: a
// sequential walk-forward loop over a rebalance schedule, each step
// fenced to as_of by the same sources.AsOfBoundSource the live rebalance
// path uses, so the "no data with date >= D" invariant is enforced once
// at the adapter rather than re-checked at every call site. Grounded on
// the teacher's scheduler loop style (internal/scheduler) generalized
// from a cron-driven live loop into a deterministic historical replay.
package backtest

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/aristath/quantport/internal/config"
	"github.com/aristath/quantport/internal/domain"
	"github.com/aristath/quantport/internal/factors"
	"github.com/aristath/quantport/internal/optimize"
	"github.com/aristath/quantport/internal/regime"
	"github.com/aristath/quantport/internal/sources"
	"github.com/aristath/quantport/internal/universe"
)

// Config is one backtest run's parameters, spec.md §4.6's "universe
// name, date range, rebalance frequency, initial capital, optimizer
// config".
type Config struct {
	UniverseName       string
	Start, End         domain.Date
	Frequency          Frequency
	InitialCapital     float64
	TransactionCostBps float64
	Engine             config.EngineConfig
	OptimizerSettings  optimize.Settings
}

// Engine runs the walk-forward loop described in spec.md §4.6.
type Engine struct {
	universeProvider *universe.Provider
	priceSource      sources.PriceSource
	fundSource       sources.FundamentalsSource
	optimizer        *optimize.Optimizer
	log              zerolog.Logger
}

// New constructs a backtest Engine. live must implement the full
// sources.LiveSource surface (typically a *cache.DataCache) so price,
// fundamentals, and market-cap lookups all go through the same tiered
// cache the live rebalance path uses.
func New(live sources.LiveSource, log zerolog.Logger) *Engine {
	log = log.With().Str("component", "backtest_engine").Logger()
	return &Engine{
		universeProvider: universe.NewProvider(live, log),
		priceSource:      live,
		fundSource:       live,
		optimizer:        optimize.New(log),
		log:              log,
	}
}

// Run executes the full walk-forward backtest.
func (e *Engine) Run(ctx context.Context, cfg Config) (Result, error) {
	dates := RebalanceDates(cfg.Start, cfg.End, cfg.Frequency)
	if len(dates) == 0 {
		return Result{}, fmt.Errorf("%w: empty rebalance schedule", domain.ErrConfigError)
	}

	var (
		equity      []EquityPoint
		rebalances  []RebalanceRecord
		shares      map[domain.Ticker]int
		cash        float64 = cfg.InitialCapital
		portfolio   float64 = cfg.InitialCapital
		priorPrices map[domain.Ticker]float64
	)

	for i, d := range dates {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		asOfSource := sources.NewAsOfBoundSource(d, e.priceSource, e.fundSource)

		entries, err := e.universeProvider.Resolve(ctx, cfg.UniverseName, d)
		if err != nil {
			return Result{}, fmt.Errorf("rebalance %s: resolve universe: %w", d, err)
		}
		if err := cfg.Engine.WeightBoundForUniverse(len(entries)); err != nil {
			return Result{}, fmt.Errorf("rebalance %s: %w", d, err)
		}

		tickers := make(domain.Tickers, len(entries))
		marketCaps := make(map[domain.Ticker]float64, len(entries))
		sectors := make(map[domain.Ticker]string, len(entries))
		for j, en := range entries {
			tickers[j] = en.Ticker
			if en.MarketCap != nil {
				marketCaps[en.Ticker] = *en.MarketCap
			}
			sectors[en.Ticker] = en.Sector
		}

		engineCfg := cfg.Engine
		engineCfg.FactorWeights = regime.ResolveTiltedWeights(ctx, asOfSource, d, cfg.Engine)

		fe := factors.New(asOfSource, engineCfg, e.log)
		scored, err := fe.Compute(ctx, tickers, d)
		if err != nil {
			return Result{}, fmt.Errorf("rebalance %s: factor scoring: %w", d, err)
		}

		selected := selectTopN(scored.Scores, cfg.Engine.TopN)

		lookbackStart := d.TradingDaysBefore(cfg.Engine.CovarianceLookbackDays)
		returns, latestPrices, err := e.coverageWindow(ctx, asOfSource, selected, lookbackStart, d)
		if err != nil {
			return Result{}, fmt.Errorf("rebalance %s: covariance window: %w", d, err)
		}

		alloc, err := e.optimizer.Build(ctx, optimize.Inputs{
			Tickers:      selected,
			Scores:       scored.Scores,
			MarketCaps:   marketCaps,
			Sectors:      sectors,
			Returns:      returns,
			LatestPrices: latestPrices,
			Capital:      portfolio,
			Config: optimize.Config{
				MaxPositionSize:   cfg.Engine.MaxPositionSize,
				FactorAlphaScalar: cfg.Engine.FactorAlphaScalar,
				RiskAversion:      cfg.Engine.RiskAversion,
				Tau:               cfg.Engine.Tau,
			},
			Settings: cfg.OptimizerSettings,
		})
		if err != nil {
			return Result{}, fmt.Errorf("rebalance %s: optimize: %w", d, err)
		}

		turn := 0.0
		if shares != nil {
			turn = turnover(shares, priorPrices, alloc.DiscreteShares, latestPrices, portfolio)
		}
		cost := transactionCost(turn, portfolio, cfg.TransactionCostBps)

		rebalances = append(rebalances, RebalanceRecord{Date: d, Allocation: alloc, Turnover: turn, CostPaid: cost})

		shares = alloc.DiscreteShares
		cash = alloc.LeftoverCash - cost
		priorPrices = latestPrices

		next := cfg.End
		if i+1 < len(dates) {
			next = dates[i+1]
		}
		points, endValue, err := e.simulateForward(ctx, shares, cash, d, next)
		if err != nil {
			return Result{}, fmt.Errorf("rebalance %s: simulate forward: %w", d, err)
		}
		equity = append(equity, points...)
		portfolio = endValue
	}

	return Result{
		EquityCurve: equity,
		Rebalances:  rebalances,
		Stats:       computeStats(equity, 0),
	}, nil
}

// selectTopN returns the tickers ranked 1..n, in rank order.
func selectTopN(scores map[domain.Ticker]domain.FactorScores, n int) domain.Tickers {
	out := make(domain.Tickers, 0, n)
	for rank := 1; rank <= n; rank++ {
		for t, s := range scores {
			if s.Rank == rank {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// coverageWindow fetches each selected ticker's price history over
// [start, asOf) through the as_of-bound source and derives the daily
// return series used for covariance estimation, plus the latest
// pre-as_of adjusted close used for discrete allocation pricing.
func (e *Engine) coverageWindow(ctx context.Context, src *sources.AsOfBoundSource, tickers domain.Tickers, start, asOf domain.Date) (map[domain.Ticker][]float64, map[domain.Ticker]float64, error) {
	returns := make(map[domain.Ticker][]float64, len(tickers))
	latest := make(map[domain.Ticker]float64, len(tickers))
	for _, t := range tickers {
		bars, err := src.GetHistory(ctx, t, start, asOf)
		if err != nil {
			return nil, nil, fmt.Errorf("ticker %s: %w", t, err)
		}
		closes := bars.AdjCloses()
		rets := make([]float64, 0, len(closes))
		for i := 1; i < len(closes); i++ {
			if closes[i-1] != 0 {
				rets = append(rets, closes[i]/closes[i-1]-1)
			}
		}
		returns[t] = rets
		if bar, ok := bars.AtOrBefore(asOf); ok {
			latest[t] = bar.AdjClose
		}
	}
	return returns, latest, nil
}

// simulateForward holds shares fixed and walks daily adjusted closes
// from start (inclusive) to end (exclusive) — dividends reinvested via
// adjusted close, per spec.md §4.6 step 5 — producing one EquityPoint
// per trading day plus the ending portfolio value carried into the next
// rebalance.
func (e *Engine) simulateForward(ctx context.Context, shares map[domain.Ticker]int, cash float64, start, end domain.Date) ([]EquityPoint, float64, error) {
	dateSet := make(map[domain.Date]float64)
	for t, n := range shares {
		if n == 0 {
			continue
		}
		bars, err := e.priceSource.GetHistory(ctx, t, start, end)
		if err != nil {
			return nil, 0, fmt.Errorf("ticker %s: %w", t, err)
		}
		for _, b := range bars {
			dateSet[b.Date] += float64(n) * b.AdjClose
		}
	}

	var points []EquityPoint
	ordered := sortedDates(dateSet)
	endValue := cash
	for _, d := range ordered {
		endValue = cash + dateSet[d]
		points = append(points, EquityPoint{Date: d, Value: endValue})
	}
	if len(points) == 0 {
		points = append(points, EquityPoint{Date: start, Value: cash})
		endValue = cash
	}
	return points, endValue, nil
}

func sortedDates(m map[domain.Date]float64) []domain.Date {
	out := make([]domain.Date, 0, len(m))
	for d := range m {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
