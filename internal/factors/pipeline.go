package factors

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/aristath/quantport/internal/config"
	"github.com/aristath/quantport/internal/domain"
	"github.com/aristath/quantport/internal/sources"
	"github.com/aristath/quantport/internal/workerpool"
)

// momentumLookbackDays is spec.md §4.3's "≥ 252 trading days" price
// history requirement, padded so the 253-trading-day-ago lookup always
// lands inside the fetched window. It is a trading-day count, converted
// by Date.TradingDaysBefore (about 550 calendar days).
const momentumLookbackDays = 380

// fetchBatchSize is spec.md §4.3's "batched, 50 tickers per batch" fetch
// granularity — batches bound the worker pool's in-flight set without
// changing its concurrency (workerpool.DefaultSize still caps parallelism
// within a batch).
const fetchBatchSize = 50

// Engine computes FactorScores for a universe of tickers pinned to one
// as_of date.
type Engine struct {
	source sources.AsOfBoundSource
	cfg    config.EngineConfig
	log    zerolog.Logger
}

// New constructs a FactorEngine. source must already be bound to the
// as_of date this engine will compute scores for — per the REDESIGN
// FLAGS, temporal correctness is a construction-time invariant, not a
// parameter threaded through every call.
func New(source *sources.AsOfBoundSource, cfg config.EngineConfig, log zerolog.Logger) *Engine {
	return &Engine{source: *source, cfg: cfg, log: log.With().Str("component", "factor_engine").Logger()}
}

// Result is the FactorEngine's output: per-ticker scores plus the
// cross-sectional statistics they were standardized against.
type Result struct {
	Scores map[domain.Ticker]domain.FactorScores
	Stats  domain.UniverseStats
}

type fetched struct {
	ticker domain.Ticker
	snap   domain.FundamentalsSnapshot
	prices domain.PriceSeries
}

// Compute runs the full pipeline: fetch, raw computation, cross-sectional
// standardization, composite scoring, ranking. Per spec.md §4.3, failure
// to resolve at least half of tickers raises ErrUniverseTooSparse.
func (e *Engine) Compute(ctx context.Context, tickers domain.Tickers, asOf domain.Date) (Result, error) {
	fetchedByTicker := make(map[domain.Ticker]fetched, len(tickers))
	var dropped int

	for start := 0; start < len(tickers); start += fetchBatchSize {
		end := start + fetchBatchSize
		if end > len(tickers) {
			end = len(tickers)
		}
		batch := tickers[start:end]

		results, errs := workerpool.RunCollect(ctx, workerpool.DefaultSize, batch, func(ctx context.Context, t domain.Ticker) (fetched, error) {
			snap, err := e.source.GetFundamentals(ctx, t)
			if err != nil {
				return fetched{}, fmt.Errorf("ticker %s: fundamentals: %w", t, err)
			}
			windowStart := asOf.TradingDaysBefore(momentumLookbackDays)
			prices, err := e.source.GetHistory(ctx, t, windowStart, asOf)
			if err != nil {
				return fetched{}, fmt.Errorf("ticker %s: prices: %w", t, err)
			}
			if len(prices) == 0 {
				return fetched{}, fmt.Errorf("%w: ticker %s has no price history", domain.ErrNotFound, t)
			}
			return fetched{ticker: t, snap: snap, prices: prices}, nil
		})
		for _, err := range errs {
			dropped++
			e.log.Warn().Err(err).Msg("dropping ticker from rebalance")
		}
		for _, f := range results {
			fetchedByTicker[f.ticker] = f
		}
	}

	if len(tickers) > 0 && len(fetchedByTicker)*2 < len(tickers) {
		return Result{}, fmt.Errorf("%w: resolved %d/%d requested tickers", domain.ErrUniverseTooSparse, len(fetchedByTicker), len(tickers))
	}

	rawByTicker := make(map[domain.Ticker]domain.RawFactors, len(fetchedByTicker))
	for t, f := range fetchedByTicker {
		rawByTicker[t] = computeRaw(t, f.snap, f.prices, asOf)
	}

	valueRaw := make(map[domain.Ticker]float64, len(rawByTicker))
	qualityRaw := make(map[domain.Ticker]float64, len(rawByTicker))
	momentumRaw := make(map[domain.Ticker]float64, len(rawByTicker))
	for t, r := range rawByTicker {
		valueRaw[t] = r.ValueRaw
		qualityRaw[t] = r.QualityRaw
		momentumRaw[t] = r.Momentum12M
	}

	valueZ, valueStat := standardizeOne(valueRaw, e.cfg.WinsorizeLimit)
	qualityZ, qualityStat := standardizeOne(qualityRaw, e.cfg.WinsorizeLimit)
	momentumZ, momentumStat := standardizeOne(momentumRaw, e.cfg.WinsorizeLimit)

	scores := make(map[domain.Ticker]domain.FactorScores, len(rawByTicker))
	for t, r := range rawByTicker {
		vz, qz, mz := valueZ[t], qualityZ[t], momentumZ[t]
		scores[t] = domain.FactorScores{
			Ticker:     t,
			AsOf:       asOf,
			Raw:        r,
			ValueZ:     vz,
			QualityZ:   qz,
			MomentumZ:  mz,
			TotalScore: e.cfg.FactorWeights.Composite(vz, qz, mz),
			FactorStd:  dispersion(vz, qz, mz),
		}
	}

	rankAndStamp(scores)

	return Result{
		Scores: scores,
		Stats: domain.UniverseStats{
			AsOf:     asOf,
			Value:    valueStat,
			Quality:  qualityStat,
			Momentum: momentumStat,
		},
	}, nil
}

// rankAndStamp sorts tickers descending by TotalScore (ties broken by
// ticker lexicographic order, per spec.md §4.3's determinism guarantee)
// and writes Rank/Percentile back into each score in place.
func rankAndStamp(scores map[domain.Ticker]domain.FactorScores) {
	tickers := make(domain.Tickers, 0, len(scores))
	for t := range scores {
		tickers = append(tickers, t)
	}
	sort.Slice(tickers, func(i, j int) bool {
		si, sj := scores[tickers[i]], scores[tickers[j]]
		if si.TotalScore != sj.TotalScore {
			return si.TotalScore > sj.TotalScore
		}
		return tickers[i] < tickers[j]
	})

	n := len(tickers)
	for i, t := range tickers {
		s := scores[t]
		s.Rank = i + 1
		s.Percentile = 1.0 - float64(s.Rank-1)/float64(n)
		scores[t] = s
	}
}
