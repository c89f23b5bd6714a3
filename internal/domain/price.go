package domain

// PriceBar is a single day's OHLCV observation. AdjClose is the
// authoritative series for return computation — it folds in splits and
// dividend reinvestment, which raw Close does not.
type PriceBar struct {
	Date     Date    `json:"date"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	AdjClose float64 `json:"adj_close"`
	Volume   int64   `json:"volume"`
}

// PriceSeries is a chronologically ordered (ascending by Date), de-duplicated
// run of PriceBars for one ticker.
type PriceSeries []PriceBar

// AdjCloses extracts the adjusted-close column.
func (s PriceSeries) AdjCloses() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.AdjClose
	}
	return out
}

// Before returns the sub-series with Date strictly before cutoff. Used at
// every point-in-time boundary instead of ad-hoc filtering at call sites.
func (s PriceSeries) Before(cutoff Date) PriceSeries {
	out := make(PriceSeries, 0, len(s))
	for _, b := range s {
		if b.Date.Before(cutoff) {
			out = append(out, b)
		}
	}
	return out
}

// Between returns bars with start <= date < end.
func (s PriceSeries) Between(start, end Date) PriceSeries {
	out := make(PriceSeries, 0, len(s))
	for _, b := range s {
		if !b.Date.Before(start) && b.Date.Before(end) {
			out = append(out, b)
		}
	}
	return out
}

// AtOrBefore returns the last bar with Date strictly before cutoff, or
// false if none exists. Used to resolve "the latest trading day < D".
func (s PriceSeries) AtOrBefore(cutoff Date) (PriceBar, bool) {
	var best PriceBar
	found := false
	for _, b := range s {
		if b.Date.Before(cutoff) && (!found || b.Date.After(best.Date)) {
			best = b
			found = true
		}
	}
	return best, found
}
