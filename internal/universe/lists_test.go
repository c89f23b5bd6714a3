package universe

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/quantport/internal/domain"
)

func TestTickers_SP500(t *testing.T) {
	got, err := Tickers(NameSP500)

	assert.NoError(t, err)
	assert.NotEmpty(t, got)
}

func TestTickers_CombinedDedupesOverlap(t *testing.T) {
	combined, err := Tickers(NameCombined)
	assert.NoError(t, err)

	sp500Tickers, _ := Tickers(NameSP500)
	russellTickers, _ := Tickers(NameRussell2000)

	assert.LessOrEqual(t, len(combined), len(sp500Tickers)+len(russellTickers))

	seen := make(map[domain.Ticker]bool)
	for _, tk := range combined {
		assert.False(t, seen[tk], "duplicate ticker %s in combined universe", tk)
		seen[tk] = true
	}
}

func TestTickers_UnknownNameReturnsConfigError(t *testing.T) {
	_, err := Tickers("not-a-real-universe")

	assert.ErrorIs(t, err, domain.ErrConfigError)
}
