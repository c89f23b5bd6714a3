package yahoo

// QuoteData represents basic quote information from Yahoo Finance, kept
// for callers that want the raw ratio-level payload rather than a mapped
// domain.FundamentalsSnapshot.
type QuoteData struct {
	Symbol             string   `json:"symbol"`
	RegularMarketPrice *float64 `json:"regularMarketPrice,omitempty"`
	CurrentPrice       *float64 `json:"currentPrice,omitempty"`
	MarketCap          *float64 `json:"marketCap,omitempty"`
	Sector             *string  `json:"sector,omitempty"`
	Industry           *string  `json:"industry,omitempty"`
	QuoteType          *string  `json:"quoteType,omitempty"`
	LongName           *string  `json:"longName,omitempty"`
	ShortName          *string  `json:"shortName,omitempty"`
}
