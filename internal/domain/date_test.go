package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDate_CivilFormat(t *testing.T) {
	d, err := ParseDate("2023-06-15")
	assert.NoError(t, err)
	assert.Equal(t, "2023-06-15", d.String())
}

func TestParseDate_RFC3339(t *testing.T) {
	d, err := ParseDate("2023-06-15T10:30:00Z")
	assert.NoError(t, err)
	assert.Equal(t, "2023-06-15", d.String())
}

func TestDate_BeforeAfterEqual(t *testing.T) {
	a, _ := ParseDate("2023-01-01")
	b, _ := ParseDate("2023-02-01")

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(a))
}

func TestDate_AddDays(t *testing.T) {
	d, _ := ParseDate("2023-01-01")
	got := d.AddDays(31)
	assert.Equal(t, "2023-02-01", got.String())
}

func TestDate_TradingDaysBefore(t *testing.T) {
	d, _ := ParseDate("2024-01-01")
	got := d.TradingDaysBefore(252)
	// ~252 trading days back is ~365 calendar days
	assert.True(t, got.Before(d))
	assert.InDelta(t, 365, d.Time().Sub(got.Time()).Hours()/24, 2)
}
