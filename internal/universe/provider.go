package universe

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/aristath/quantport/internal/domain"
	"github.com/aristath/quantport/internal/sources"
	"github.com/aristath/quantport/internal/workerpool"
)

// Provider resolves a named universe into enriched, eligible
// UniverseEntry values as of a date, per spec.md §4.2.
type Provider struct {
	marketCaps sources.MarketCapSource
	log        zerolog.Logger
}

// NewProvider builds a Provider backed by marketCaps (typically a
// cache.DataCache).
func NewProvider(marketCaps sources.MarketCapSource, log zerolog.Logger) *Provider {
	return &Provider{marketCaps: marketCaps, log: log.With().Str("component", "universe_provider").Logger()}
}

// Resolve fetches the current market cap and sector for every ticker in
// the named universe, stamping each entry with asOf, and drops tickers
// with no market cap (spec.md
// §4.2: "the universe at as_of is the set of entries with non-null
// market cap"). Per-ticker fetch failures are logged and the ticker
// dropped, never fatal to the whole resolution.
func (p *Provider) Resolve(ctx context.Context, name string, asOf domain.Date) ([]domain.UniverseEntry, error) {
	tickers, err := Tickers(name)
	if err != nil {
		return nil, err
	}

	entries, errs := workerpool.RunCollect(ctx, workerpool.DefaultSize, tickers, func(ctx context.Context, t domain.Ticker) (domain.UniverseEntry, error) {
		mcap, sector, err := p.marketCaps.GetMarketCapAndSector(ctx, t)
		if err != nil {
			return domain.UniverseEntry{}, fmt.Errorf("ticker %s: %w", t, err)
		}
		entry := domain.UniverseEntry{Ticker: t, Sector: sector, AsOf: asOf}
		if mcap > 0 {
			entry.MarketCap = &mcap
		}
		return entry, nil
	})
	for _, e := range errs {
		p.log.Warn().Err(e).Msg("dropping ticker from universe: enrichment failed")
	}

	eligible := make([]domain.UniverseEntry, 0, len(entries))
	for _, e := range entries {
		if e.Eligible() {
			eligible = append(eligible, e)
		}
	}

	sort.Slice(eligible, func(i, j int) bool { return eligible[i].Ticker < eligible[j].Ticker })
	return eligible, nil
}

// TopN sorts entries by market cap descending (lexicographic ticker order
// breaks ties, matching FactorEngine's determinism guarantee) and returns
// the first n.
func TopN(entries []domain.UniverseEntry, n int) []domain.UniverseEntry {
	sorted := make([]domain.UniverseEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		ci, cj := *sorted[i].MarketCap, *sorted[j].MarketCap
		if ci != cj {
			return ci > cj
		}
		return sorted[i].Ticker < sorted[j].Ticker
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}
