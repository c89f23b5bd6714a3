// Package fake provides in-memory PriceSource/FundamentalsSource doubles
// for tests, per the REDESIGN FLAGS ("tests substitute in-memory
// doubles"). Not imported by any non-test code.
package fake

import (
	"context"
	"fmt"

	"github.com/aristath/quantport/internal/domain"
)

// Source is a fully in-memory, deterministic PriceSource,
// FundamentalsSource, and MarketCapSource double.
type Source struct {
	Prices       map[domain.Ticker]domain.PriceSeries
	Fundamentals map[domain.Ticker][]domain.FundamentalsSnapshot // sorted ascending by PublicationDate
	MarketCaps   map[domain.Ticker]float64
	Sectors      map[domain.Ticker]string

	// FailTickers forces GetHistory/GetLatest to return
	// ErrSourceUnavailable for the named tickers, to exercise retry
	// and NotFound/UniverseTooSparse paths.
	FailTickers map[domain.Ticker]bool
}

// New creates an empty fake source.
func New() *Source {
	return &Source{
		Prices:       map[domain.Ticker]domain.PriceSeries{},
		Fundamentals: map[domain.Ticker][]domain.FundamentalsSnapshot{},
		MarketCaps:   map[domain.Ticker]float64{},
		Sectors:      map[domain.Ticker]string{},
		FailTickers:  map[domain.Ticker]bool{},
	}
}

func (s *Source) GetHistory(_ context.Context, ticker domain.Ticker, start, end domain.Date) (domain.PriceSeries, error) {
	if s.FailTickers[ticker] {
		return nil, fmt.Errorf("%w: fake outage for %s", domain.ErrSourceUnavailable, ticker)
	}
	series, ok := s.Prices[ticker]
	if !ok {
		return nil, fmt.Errorf("%w: no price history for %s", domain.ErrNotFound, ticker)
	}
	return series.Between(start, end), nil
}

func (s *Source) GetLatest(_ context.Context, ticker domain.Ticker, asOf domain.Date) (domain.FundamentalsSnapshot, error) {
	if s.FailTickers[ticker] {
		return domain.FundamentalsSnapshot{}, fmt.Errorf("%w: fake outage for %s", domain.ErrSourceUnavailable, ticker)
	}
	snaps, ok := s.Fundamentals[ticker]
	if !ok {
		return domain.FundamentalsSnapshot{}, fmt.Errorf("%w: no fundamentals for %s", domain.ErrNotFound, ticker)
	}
	var best domain.FundamentalsSnapshot
	found := false
	for _, snap := range snaps {
		if snap.PublicationDate.Before(asOf) && (!found || snap.PublicationDate.After(best.PublicationDate)) {
			best = snap
			found = true
		}
	}
	if !found {
		return domain.FundamentalsSnapshot{}, fmt.Errorf("%w: no fundamentals before %s for %s", domain.ErrNotFound, asOf, ticker)
	}
	return best, nil
}

func (s *Source) GetMarketCapAndSector(_ context.Context, ticker domain.Ticker) (float64, string, error) {
	cap, ok := s.MarketCaps[ticker]
	if !ok {
		return 0, "", fmt.Errorf("%w: no market cap for %s", domain.ErrNotFound, ticker)
	}
	return cap, s.Sectors[ticker], nil
}
