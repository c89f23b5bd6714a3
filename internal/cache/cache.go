package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/quantport/internal/domain"
	"github.com/aristath/quantport/internal/ratelimit"
	"github.com/aristath/quantport/internal/retryx"
	"github.com/aristath/quantport/internal/sources"
)

// DataCache is the tiered resolver described in spec.md §5: historical
// store, then consolidated cache, then a rate-limited, retried call to
// the live vendor source, with a per-ticker lock so concurrent workers
// never duplicate an in-flight fetch. It implements sources.LiveSource
// itself, so the rest of the engine (via sources.AsOfBoundSource) never
// has to know whether a given value came from disk or the network.
type DataCache struct {
	historical   *HistoricalStore
	consolidated *ConsolidatedCache
	live         sources.LiveSource
	limiter      *ratelimit.Limiter
	retryPolicy  retryx.Policy
	locks        *keyedMutex
	meta         *MetaStore
	now          func() time.Time
	log          zerolog.Logger
}

// Option configures a DataCache at construction; New applies spec.md §5's
// defaults and lets callers override for tests.
type Option func(*DataCache)

// WithRetryPolicy overrides the default retry policy (e.g. from
// config.EngineConfig.MaxRetries).
func WithRetryPolicy(p retryx.Policy) Option {
	return func(c *DataCache) { c.retryPolicy = p }
}

// WithClock overrides the cache's notion of "now", for deterministic TTL
// tests.
func WithClock(now func() time.Time) Option {
	return func(c *DataCache) { c.now = now }
}

// New builds a DataCache rooted at historicalDir/consolidatedDir, calling
// through to live on a miss, rate-limited by limiter.
func New(historicalDir, consolidatedDir string, ttl time.Duration, live sources.LiveSource, limiter *ratelimit.Limiter, log zerolog.Logger, opts ...Option) (*DataCache, error) {
	hist, err := NewHistoricalStore(historicalDir)
	if err != nil {
		return nil, err
	}
	cons, err := NewConsolidatedCache(consolidatedDir, ttl)
	if err != nil {
		return nil, err
	}
	meta, err := NewMetaStore(consolidatedDir)
	if err != nil {
		return nil, err
	}

	c := &DataCache{
		historical:   hist,
		consolidated: cons,
		live:         live,
		limiter:      limiter,
		retryPolicy:  retryx.DefaultPolicy(),
		locks:        newKeyedMutex(),
		meta:         meta,
		now:          time.Now,
		log:          log.With().Str("component", "data_cache").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetHistory implements sources.PriceSource. It reads the historical
// store first; a window not already fully covered on disk triggers one
// rate-limited, retried fetch of the entire window from the live source,
// which is persisted before being returned.
func (c *DataCache) GetHistory(ctx context.Context, ticker domain.Ticker, start, end domain.Date) (domain.PriceSeries, error) {
	mu := c.locks.lockFor("hist:" + ticker.String())
	mu.Lock()
	defer mu.Unlock()

	cached, err := c.historical.GetRange(ticker, start, end)
	if err != nil {
		return nil, err
	}
	if coversWindow(cached, start, end) {
		return cached, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var fetched domain.PriceSeries
	err = retryx.Do(ctx, c.retryPolicy, retryx.IsTransient, func() error {
		var fetchErr error
		fetched, fetchErr = c.live.GetHistory(ctx, ticker, start, end)
		return fetchErr
	})
	if err != nil {
		// Fall back to whatever the historical store already had rather
		// than fail the whole fetch, if it's non-empty.
		if len(cached) > 0 {
			return cached, nil
		}
		return nil, err
	}

	if err := c.historical.Put(ticker, fetched); err != nil {
		return nil, err
	}
	if err := c.meta.MarkSynced(ticker.String(), c.now()); err != nil {
		c.log.Warn().Err(err).Str("ticker", ticker.String()).Msg("failed to mark sync metadata")
	}

	return c.historical.GetRange(ticker, start, end)
}

// coversWindow reports whether series spans the window [start, end) — a
// cheap heuristic standing in for a full trading-calendar reconciliation:
// if the first stored bar is at or before start and the last is no more
// than four days before end, treat the window as covered rather than
// refetching on every call. Gaps inside the window are not checked.
func coversWindow(series domain.PriceSeries, start, end domain.Date) bool {
	if len(series) == 0 {
		return false
	}
	first := series[0].Date
	last := series[len(series)-1].Date
	return !first.After(start) && !last.Before(end.AddDays(-4))
}

// GetLatest implements sources.FundamentalsSource via the consolidated
// cache's TTL. A cached snapshot is served only when its PublicationDate
// is before asOf; otherwise the live source is asked.
func (c *DataCache) GetLatest(ctx context.Context, ticker domain.Ticker, asOf domain.Date) (domain.FundamentalsSnapshot, error) {
	mu := c.locks.lockFor("fund:" + ticker.String())
	mu.Lock()
	defer mu.Unlock()

	now := c.now()
	if snap, ok, err := c.consolidated.GetFundamentals(ticker, now); err != nil {
		return domain.FundamentalsSnapshot{}, err
	} else if ok && snap.PublicationDate.Before(asOf) {
		return snap, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return domain.FundamentalsSnapshot{}, err
	}

	var snap domain.FundamentalsSnapshot
	err := retryx.Do(ctx, c.retryPolicy, retryx.IsTransient, func() error {
		var fetchErr error
		snap, fetchErr = c.live.GetLatest(ctx, ticker, asOf)
		return fetchErr
	})
	if err != nil {
		return domain.FundamentalsSnapshot{}, err
	}

	if err := c.consolidated.PutFundamentals(ticker, snap, now); err != nil {
		return domain.FundamentalsSnapshot{}, err
	}
	return snap, nil
}

// GetMarketCapAndSector implements sources.MarketCapSource via the
// consolidated cache's TTL.
func (c *DataCache) GetMarketCapAndSector(ctx context.Context, ticker domain.Ticker) (float64, string, error) {
	mu := c.locks.lockFor("mcap:" + ticker.String())
	mu.Lock()
	defer mu.Unlock()

	now := c.now()
	if mcap, sector, ok, err := c.consolidated.GetMarketCapAndSector(ticker, now); err != nil {
		return 0, "", err
	} else if ok {
		return mcap, sector, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return 0, "", err
	}

	var mcap float64
	var sector string
	err := retryx.Do(ctx, c.retryPolicy, retryx.IsTransient, func() error {
		var fetchErr error
		mcap, sector, fetchErr = c.live.GetMarketCapAndSector(ctx, ticker)
		return fetchErr
	})
	if err != nil {
		return 0, "", err
	}

	if err := c.consolidated.PutMarketCapAndSector(ticker, mcap, sector, now); err != nil {
		return 0, "", err
	}
	return mcap, sector, nil
}
