package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/quantport/internal/domain"
)

func mustDate(t *testing.T, s string) domain.Date {
	t.Helper()
	d, err := domain.ParseDate(s)
	assert.NoError(t, err)
	return d
}

func TestRebalanceDates_Monthly(t *testing.T) {
	start := mustDate(t, "2023-01-01")
	end := mustDate(t, "2023-04-01")

	dates := RebalanceDates(start, end, Monthly)

	assert.Len(t, dates, 4)
	assert.Equal(t, "2023-01-01", dates[0].String())
	assert.Equal(t, "2023-02-01", dates[1].String())
	assert.Equal(t, "2023-03-01", dates[2].String())
	assert.Equal(t, "2023-04-01", dates[3].String())
}

func TestRebalanceDates_Quarterly(t *testing.T) {
	start := mustDate(t, "2023-01-01")
	end := mustDate(t, "2023-10-01")

	dates := RebalanceDates(start, end, Quarterly)

	assert.Len(t, dates, 4)
	assert.Equal(t, "2023-07-01", dates[2].String())
}

func TestRebalanceDates_StartAfterEnd(t *testing.T) {
	start := mustDate(t, "2023-05-01")
	end := mustDate(t, "2023-01-01")

	dates := RebalanceDates(start, end, Monthly)

	assert.Empty(t, dates)
}
