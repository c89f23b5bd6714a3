package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/quantport/internal/domain"
)

type stubPriceSource struct {
	bars domain.PriceSeries
	err  error
}

func (s *stubPriceSource) GetHistory(ctx context.Context, ticker domain.Ticker, start, end domain.Date) (domain.PriceSeries, error) {
	return s.bars, s.err
}

type stubFundamentalsSource struct {
	snap domain.FundamentalsSnapshot
	err  error
}

func (s *stubFundamentalsSource) GetLatest(ctx context.Context, ticker domain.Ticker, asOf domain.Date) (domain.FundamentalsSnapshot, error) {
	return s.snap, s.err
}

func TestAsOfBoundSource_GetHistory_RejectsDataOnOrAfterAsOf(t *testing.T) {
	asOf, _ := domain.ParseDate("2023-06-01")
	violating, _ := domain.ParseDate("2023-06-01") // == asOf, not strictly before

	src := NewAsOfBoundSource(asOf, &stubPriceSource{
		bars: domain.PriceSeries{{Date: violating, AdjClose: 100}},
	}, &stubFundamentalsSource{})

	_, err := src.GetHistory(context.Background(), "AAPL", asOf.AddDays(-30), asOf)

	assert.ErrorIs(t, err, domain.ErrTemporalViolation)
}

func TestAsOfBoundSource_GetHistory_AllowsDataStrictlyBefore(t *testing.T) {
	asOf, _ := domain.ParseDate("2023-06-01")
	valid, _ := domain.ParseDate("2023-05-31")

	src := NewAsOfBoundSource(asOf, &stubPriceSource{
		bars: domain.PriceSeries{{Date: valid, AdjClose: 100}},
	}, &stubFundamentalsSource{})

	bars, err := src.GetHistory(context.Background(), "AAPL", asOf.AddDays(-30), asOf)

	assert.NoError(t, err)
	assert.Len(t, bars, 1)
}

func TestAsOfBoundSource_GetFundamentals_RejectsPublicationOnOrAfterAsOf(t *testing.T) {
	asOf, _ := domain.ParseDate("2023-06-01")

	src := NewAsOfBoundSource(asOf, &stubPriceSource{}, &stubFundamentalsSource{
		snap: domain.FundamentalsSnapshot{PublicationDate: asOf},
	})

	_, err := src.GetFundamentals(context.Background(), "AAPL")

	assert.ErrorIs(t, err, domain.ErrTemporalViolation)
}
