package domain

// FundamentalsSnapshot is a company's latest-reported income/balance/
// cashflow fields as of a date. Every field reflects a reporting period
// whose publication date was strictly before the snapshot's AsOf — the
// point-in-time contract lives at the fetch boundary
// (sources.AsOfBoundSource),
// not here, but AsOf is retained for audit.
type FundamentalsSnapshot struct {
	Ticker Ticker `json:"ticker"`
	AsOf   Date   `json:"as_of"`

	FreeCashFlowTTM    float64 `json:"free_cash_flow_ttm"`
	EBIT               float64 `json:"ebit"`
	TotalAssets        float64 `json:"total_assets"`
	CurrentLiabilities float64 `json:"current_liabilities"`
	GrossProfit        float64 `json:"gross_profit"`
	Revenue            float64 `json:"revenue"`
	SharesOutstanding   float64 `json:"shares_outstanding"`
	MarketCap          float64 `json:"market_cap"`

	// PublicationDate is the reporting period's disclosure date. The
	// cache's get_fundamentals contract requires PublicationDate < as_of.
	PublicationDate Date `json:"publication_date"`
}
