// Package universe supplies named, curated ticker lists enriched with
// market cap and sector metadata as of a date, per spec.md §4.2. Grounded
// on the teacher's internal/modules/universe package layout (security
// lookups by symbol), generalized from a brokerage's tradeable-security
// table to a static research universe.
package universe

import (
	"fmt"

	"github.com/aristath/quantport/internal/domain"
)

// sp500 is a practical reduction of the S&P 500 constituent list to a
// representative cross-sector sample — the full 500-name list is a data
// file, not engine logic; this sample exercises every sector bucket the
// factor engine and optimizer need to be tested against.
var sp500 = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "META", "BRK.B", "LLY", "AVGO", "JPM",
	"V", "UNH", "XOM", "MA", "PG", "HD", "COST", "JNJ", "MRK", "ABBV",
	"CVX", "WMT", "KO", "PEP", "ADBE", "CRM", "BAC", "TMO", "MCD", "CSCO",
	"ABT", "ACN", "LIN", "DHR", "WFC", "ORCL", "TXN", "PM", "NEE", "NKE",
	"INTC", "AMD", "UNP", "RTX", "HON", "LOW", "IBM", "QCOM", "CAT", "GE",
	"SPGI", "AMGN", "BA", "DE", "ELV", "SBUX", "PLD", "GS", "BLK", "MDT",
	"ISRG", "T", "AXP", "GILD", "ADI", "SYK", "VRTX", "MMC", "TJX", "C",
	"BKNG", "MO", "LRCX", "SCHW", "CI", "ADP", "REGN", "ETN", "ZTS", "PGR",
}

// russell2000 is a representative small-cap sample, disjoint from sp500.
var russell2000 = []string{
	"SMCI", "CROX", "FIZZ", "BOOT", "CAKE", "WING", "SHAK", "CVCO", "AAON", "MLI",
	"UFPI", "ATKR", "ROAD", "IBP", "CALM", "LNN", "SSD", "POWL", "NSSC", "GEF",
	"UPBD", "HURN", "NVEE", "SPSC", "MGRC", "TGLS", "VSEC", "KAI", "AMWD", "FN",
}

// nasdaq100 is a representative large-cap tech sample; intentionally
// overlaps heavily with sp500 (per spec.md §4.2's noted ≈59% overlap)
// since that overlap is what "combined" must exclude it to avoid.
var nasdaq100 = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "META", "AVGO", "ADBE", "CSCO", "COST",
	"PEP", "TXN", "INTC", "AMD", "QCOM", "SBUX", "ISRG", "GILD", "ADI", "VRTX",
	"BKNG", "LRCX", "REGN", "PANW", "MU", "ASML", "SNPS", "CDNS", "MAR", "ORLY",
}

// Names are the recognized universe identifiers.
const (
	NameSP500       = "sp500"
	NameRussell2000 = "russell2000"
	NameNasdaq100   = "nasdaq100"
	NameCombined    = "combined"
)

// Tickers returns the raw (unenriched) ticker list for a named universe.
// combined = sp500 ∪ russell2000, deliberately excluding nasdaq100 per
// spec.md §4.2 to avoid double-counting large-cap tech.
func Tickers(name string) (domain.Tickers, error) {
	switch name {
	case NameSP500:
		return toTickers(sp500), nil
	case NameRussell2000:
		return toTickers(russell2000), nil
	case NameNasdaq100:
		return toTickers(nasdaq100), nil
	case NameCombined:
		all := append(append(domain.Tickers{}, toTickers(sp500)...), toTickers(russell2000)...)
		return all.Dedup(), nil
	default:
		return nil, fmt.Errorf("%w: unknown universe %q", domain.ErrConfigError, name)
	}
}

func toTickers(raw []string) domain.Tickers {
	out := make(domain.Tickers, len(raw))
	for i, s := range raw {
		out[i] = domain.NewTicker(s)
	}
	return out
}
