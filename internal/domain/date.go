package domain

import "time"

// Date is a civil date at daily granularity, always stored truncated to
// midnight UTC. Every temporal comparison in the engine is strict
// less-than to prevent lookahead: a computation with as_of=D may only
// use data whose date is < D, never <=.
type Date struct {
	t time.Time
}

// NewDate truncates t to a civil date (midnight UTC).
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an RFC3339 or "2006-01-02" date string.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return NewDate(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, err
	}
	return NewDate(t), nil
}

func (d Date) Time() time.Time { return d.t }

func (d Date) String() string { return d.t.Format("2006-01-02") }

// Before reports whether d is strictly before o. This is the only
// comparison the rest of the engine should use for as_of filtering.
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

func (d Date) After(o Date) bool { return d.t.After(o.t) }

func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

func (d Date) AddDays(n int) Date { return NewDate(d.t.AddDate(0, 0, n)) }

// TradingDaysBefore returns an approximate calendar date n trading days
// before d, using the common 252-trading-days-per-year convention
// (n * 365/252 calendar days). Used for momentum/covariance lookback
// windows where only an approximate cutoff is required before hitting
// the cache, which filters precisely by date.
func (d Date) TradingDaysBefore(n int) Date {
	calendarDays := int(float64(n) * 365.0 / 252.0)
	return d.AddDays(-calendarDays)
}
