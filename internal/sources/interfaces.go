// Package sources defines the abstract vendor boundary the core
// consumes: PriceSource and FundamentalsSource. Concrete vendor clients
// (internal/sources/yahoo) and test doubles (internal/sources/fake)
// implement these; the core never imports a vendor package directly —
// only internal/cache.DataCache calls one, via these interfaces.
package sources

import (
	"context"

	"github.com/aristath/quantport/internal/domain"
)

// PriceSource fetches adjusted OHLCV history for a ticker. Implementations
// must honor the as_of contract: the returned bars must never include a
// date >= the bound as_of (see AsOfBoundSource).
type PriceSource interface {
	GetHistory(ctx context.Context, ticker domain.Ticker, start, end domain.Date) (domain.PriceSeries, error)
}

// FundamentalsSource fetches the latest fundamentals snapshot with a
// publication date strictly before asOf.
type FundamentalsSource interface {
	GetLatest(ctx context.Context, ticker domain.Ticker, asOf domain.Date) (domain.FundamentalsSnapshot, error)
}

// MarketCapSource fetches current market cap and sector, used by
// UniverseProvider enrichment.
type MarketCapSource interface {
	GetMarketCapAndSector(ctx context.Context, ticker domain.Ticker) (marketCap float64, sector string, err error)
}

// LiveSource is the full vendor surface a DataCache falls through to on a
// cache miss. Concrete vendor clients (internal/sources/yahoo) implement
// all three facets with a single type.
type LiveSource interface {
	PriceSource
	FundamentalsSource
	MarketCapSource
}
