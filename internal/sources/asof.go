package sources

import (
	"context"
	"fmt"

	"github.com/aristath/quantport/internal/domain"
)

// AsOfBoundSource wraps a PriceSource/FundamentalsSource pair so that the
// as_of cutoff is a construction-time invariant instead of a parameter a
// caller can forget to pass correctly at every call site. Per the
// REDESIGN FLAGS: "temporal correctness must be a type-level or
// construction-time invariant, not a runtime check scattered through
// call sites... wrapping the source in an AsOfBoundSource(date) adapter
// ensures it cannot be forgotten."
//
// Every method defends the bound itself: if the underlying source ever
// returns a bar or snapshot dated >= AsOf, that is ErrTemporalViolation —
// fatal, per spec.md §7 — not silently filtered.
type AsOfBoundSource struct {
	AsOf         domain.Date
	Prices       PriceSource
	Fundamentals FundamentalsSource
}

// NewAsOfBoundSource constructs the adapter. Every FactorEngine fetch
// goes through one of these rather than holding a bare source and an
// as_of date separately.
func NewAsOfBoundSource(asOf domain.Date, prices PriceSource, fundamentals FundamentalsSource) *AsOfBoundSource {
	return &AsOfBoundSource{AsOf: asOf, Prices: prices, Fundamentals: fundamentals}
}

// GetHistory fetches bars in [start, end) where end is clamped to AsOf —
// a caller cannot widen the window past the bound even by mistake.
func (s *AsOfBoundSource) GetHistory(ctx context.Context, ticker domain.Ticker, start, end domain.Date) (domain.PriceSeries, error) {
	if end.After(s.AsOf) || end.Equal(s.AsOf) {
		end = s.AsOf
	}
	bars, err := s.Prices.GetHistory(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}
	for _, b := range bars {
		if !b.Date.Before(s.AsOf) {
			return nil, fmt.Errorf("%w: ticker %s returned bar dated %s >= as_of %s",
				domain.ErrTemporalViolation, ticker, b.Date, s.AsOf)
		}
	}
	return bars, nil
}

// GetFundamentals fetches the latest snapshot with publication date
// strictly before AsOf.
func (s *AsOfBoundSource) GetFundamentals(ctx context.Context, ticker domain.Ticker) (domain.FundamentalsSnapshot, error) {
	snap, err := s.Fundamentals.GetLatest(ctx, ticker, s.AsOf)
	if err != nil {
		return domain.FundamentalsSnapshot{}, err
	}
	if !snap.PublicationDate.Before(s.AsOf) {
		return domain.FundamentalsSnapshot{}, fmt.Errorf("%w: ticker %s fundamentals published %s >= as_of %s",
			domain.ErrTemporalViolation, ticker, snap.PublicationDate, s.AsOf)
	}
	return snap, nil
}
