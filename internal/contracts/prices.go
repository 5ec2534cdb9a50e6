package contracts

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Price field names as returned by providers
const (
	FieldAdjClose = "Adj Close"
	FieldClose    = "Close"
)

// IntervalDaily is the only bar interval the core consumes
const IntervalDaily = "1d"

// DateLayout is the ISO date format used on every external surface
const DateLayout = "2006-01-02"

// ColumnKey addresses one column of a raw provider frame.
// Single-symbol responses use an empty Symbol (flat columns).
type ColumnKey struct {
	Symbol string
	Field  string
}

// RawFrame is the untyped tabular response of a provider call.
// ⭐ SSOT: 제공자 원시 응답 형태
type RawFrame struct {
	Dates   []time.Time
	Columns map[ColumnKey][]float64
}

// NewRawFrame creates an empty frame over the given dates
func NewRawFrame(dates []time.Time) *RawFrame {
	return &RawFrame{
		Dates:   dates,
		Columns: make(map[ColumnKey][]float64),
	}
}

// Set stores a column. values must be aligned with f.Dates.
func (f *RawFrame) Set(symbol, field string, values []float64) {
	if f.Columns == nil {
		f.Columns = make(map[ColumnKey][]float64)
	}
	f.Columns[ColumnKey{Symbol: symbol, Field: field}] = values
}

// Column returns a column if present
func (f *RawFrame) Column(symbol, field string) ([]float64, bool) {
	if f == nil {
		return nil, false
	}
	values, ok := f.Columns[ColumnKey{Symbol: symbol, Field: field}]
	return values, ok
}

// Empty reports whether the frame carries no rows or no columns
func (f *RawFrame) Empty() bool {
	return f == nil || len(f.Dates) == 0 || len(f.Columns) == 0
}

// Flat reports whether the frame uses single-symbol (symbol-less) columns
func (f *RawFrame) Flat() bool {
	if f == nil {
		return false
	}
	for key := range f.Columns {
		if key.Symbol == "" {
			return true
		}
	}
	return false
}

// Tail returns a frame holding only the last n dates
func (f *RawFrame) Tail(n int) *RawFrame {
	if f == nil || n <= 0 || len(f.Dates) <= n {
		return f
	}
	cut := len(f.Dates) - n
	out := NewRawFrame(f.Dates[cut:])
	for key, values := range f.Columns {
		out.Columns[key] = values[cut:]
	}
	return out
}

// Symbols lists the distinct symbols present in the frame, sorted
func (f *RawFrame) Symbols() []string {
	if f == nil {
		return nil
	}
	seen := make(map[string]bool)
	for key := range f.Columns {
		if key.Symbol != "" {
			seen[key.Symbol] = true
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// FetchRequest describes what to download.
// Either Period (provider-native lookback such as "5d", "3mo", "1y") or the
// Start/End range is set. End is inclusive.
type FetchRequest struct {
	Period   string
	Start    time.Time
	End      time.Time
	Interval string
}

// PeriodRequest builds a daily request for a trailing period
func PeriodRequest(period string) FetchRequest {
	return FetchRequest{Period: period, Interval: IntervalDaily}
}

// RangeRequest builds a daily request for an explicit date range
func RangeRequest(start, end time.Time) FetchRequest {
	return FetchRequest{Start: start, End: end, Interval: IntervalDaily}
}

// IsPeriod reports whether the request uses a trailing period
func (r FetchRequest) IsPeriod() bool {
	return r.Period != ""
}

// Resolve converts the request into an explicit [start, end] range.
// Providers without native period support use this.
func (r FetchRequest) Resolve(now time.Time) (time.Time, time.Time, error) {
	if !r.IsPeriod() {
		if r.Start.IsZero() || r.End.IsZero() {
			return time.Time{}, time.Time{}, fmt.Errorf("fetch request needs a period or a start/end range")
		}
		if r.Start.After(r.End) {
			return time.Time{}, time.Time{}, fmt.Errorf("start %s after end %s",
				r.Start.Format(DateLayout), r.End.Format(DateLayout))
		}
		return TruncateDay(r.Start), TruncateDay(r.End), nil
	}

	years, months, days, err := ParsePeriod(r.Period)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end := TruncateDay(now)
	if n, ok := r.TradingDays(); ok {
		// 주말/휴장일을 덮도록 달력 구간을 넓히고 Trim으로 N행만 남김
		return end.AddDate(0, 0, -(n*7/5 + dayPeriodSlack)), end, nil
	}
	return end.AddDate(-years, -months, -days), end, nil
}

// dayPeriodSlack pads an "Nd" calendar range for exchange holidays
const dayPeriodSlack = 7

// TradingDays reports N for an "Nd" period. Yahoo counts such periods in
// trading sessions, so providers that resolve periods themselves widen the
// range in Resolve and keep the last N dates with Trim.
func (r FetchRequest) TradingDays() (int, bool) {
	if !r.IsPeriod() {
		return 0, false
	}
	p := strings.ToLower(strings.TrimSpace(r.Period))
	if !strings.HasSuffix(p, "d") {
		return 0, false
	}
	_, _, days, err := ParsePeriod(p)
	if err != nil {
		return 0, false
	}
	return days, true
}

// Trim cuts a frame resolved from an "Nd" period down to its last N dates.
// Other requests pass through unchanged.
func (r FetchRequest) Trim(f *RawFrame) *RawFrame {
	if n, ok := r.TradingDays(); ok {
		return f.Tail(n)
	}
	return f
}

// ParsePeriod parses provider period strings: Nd, Nwk, Nmo, Ny
func ParsePeriod(period string) (years, months, days int, err error) {
	p := strings.ToLower(strings.TrimSpace(period))

	var unit string
	switch {
	case strings.HasSuffix(p, "mo"):
		unit = "mo"
	case strings.HasSuffix(p, "wk"):
		unit = "wk"
	case strings.HasSuffix(p, "d"):
		unit = "d"
	case strings.HasSuffix(p, "y"):
		unit = "y"
	default:
		return 0, 0, 0, fmt.Errorf("unsupported period %q", period)
	}

	n, convErr := strconv.Atoi(strings.TrimSuffix(p, unit))
	if convErr != nil || n <= 0 {
		return 0, 0, 0, fmt.Errorf("unsupported period %q", period)
	}

	switch unit {
	case "d":
		days = n
	case "wk":
		days = 7 * n
	case "mo":
		months = n
	case "y":
		years = n
	}
	return years, months, days, nil
}

// TruncateDay normalizes a timestamp to UTC midnight of its calendar date
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO YYYY-MM-DD date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}
