package pricetable

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wonny/momentum/internal/contracts"
)

// Missing is the no-data marker stored in a Table
var Missing = math.NaN()

// IsMissing reports whether v is the no-data marker (or otherwise not a finite number)
func IsMissing(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// Table is an immutable, date-aligned table of closing prices.
// Every requested symbol has a column; unavailable symbols are all-Missing.
// ⭐ SSOT: 정렬된 가격 테이블
type Table struct {
	dates   []time.Time
	symbols []string
	index   map[string]int
	prices  [][]float64 // [symbol][row]
}

// FromColumns builds a table from per-symbol columns aligned to dates.
// Symbols without a column are filled with Missing.
func FromColumns(dates []time.Time, symbols []string, columns map[string][]float64) (*Table, error) {
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return nil, fmt.Errorf("dates not strictly increasing at row %d (%s)", i, dates[i].Format(contracts.DateLayout))
		}
	}

	t := newTable(dates, symbols)
	for sym, values := range columns {
		idx, ok := t.index[sym]
		if !ok {
			continue
		}
		if len(values) != len(dates) {
			return nil, fmt.Errorf("column %s has %d values for %d dates", sym, len(values), len(dates))
		}
		copy(t.prices[idx], values)
	}
	return t, nil
}

func newTable(dates []time.Time, symbols []string) *Table {
	t := &Table{
		dates:   append([]time.Time(nil), dates...),
		symbols: make([]string, 0, len(symbols)),
		index:   make(map[string]int, len(symbols)),
	}
	for _, sym := range symbols {
		if _, dup := t.index[sym]; dup {
			continue
		}
		t.index[sym] = len(t.symbols)
		t.symbols = append(t.symbols, sym)
	}

	t.prices = make([][]float64, len(t.symbols))
	for i := range t.prices {
		col := make([]float64, len(dates))
		for j := range col {
			col[j] = Missing
		}
		t.prices[i] = col
	}
	return t
}

// Len returns the number of rows (market dates)
func (t *Table) Len() int {
	return len(t.dates)
}

// Dates returns a copy of the date index
func (t *Table) Dates() []time.Time {
	return append([]time.Time(nil), t.dates...)
}

// Date returns the date at row i
func (t *Table) Date(i int) time.Time {
	return t.dates[i]
}

// Symbols returns the symbols in request order
func (t *Table) Symbols() []string {
	return append([]string(nil), t.symbols...)
}

// Has reports whether symbol has a column
func (t *Table) Has(symbol string) bool {
	_, ok := t.index[symbol]
	return ok
}

// Price returns the price of symbol at row i, or Missing
func (t *Table) Price(symbol string, i int) float64 {
	idx, ok := t.index[symbol]
	if !ok || i < 0 || i >= len(t.dates) {
		return Missing
	}
	return t.prices[idx][i]
}

// PriceOn returns the price of symbol on an exact market date, or Missing
func (t *Table) PriceOn(symbol string, date time.Time) float64 {
	i, ok := t.RowOf(date)
	if !ok {
		return Missing
	}
	return t.Price(symbol, i)
}

// Column returns a copy of symbol's column
func (t *Table) Column(symbol string) []float64 {
	idx, ok := t.index[symbol]
	if !ok {
		return nil
	}
	return append([]float64(nil), t.prices[idx]...)
}

// RowOf finds the row of an exact date
func (t *Table) RowOf(date time.Time) (int, bool) {
	d := contracts.TruncateDay(date)
	i := sort.Search(len(t.dates), func(i int) bool { return !t.dates[i].Before(d) })
	if i < len(t.dates) && t.dates[i].Equal(d) {
		return i, true
	}
	return 0, false
}

// RowsUpTo returns how many rows have a date <= asOf
func (t *Table) RowsUpTo(asOf time.Time) int {
	d := contracts.TruncateDay(asOf)
	return sort.Search(len(t.dates), func(i int) bool { return t.dates[i].After(d) })
}

// FirstOnOrAfter returns the first market date >= tick
func (t *Table) FirstOnOrAfter(tick time.Time) (time.Time, bool) {
	d := contracts.TruncateDay(tick)
	i := sort.Search(len(t.dates), func(i int) bool { return !t.dates[i].Before(d) })
	if i == len(t.dates) {
		return time.Time{}, false
	}
	return t.dates[i], true
}

// MissingSymbols lists symbols whose column holds no data at all
func (t *Table) MissingSymbols() []string {
	var out []string
	for i, sym := range t.symbols {
		empty := true
		for _, v := range t.prices[i] {
			if !IsMissing(v) {
				empty = false
				break
			}
		}
		if empty {
			out = append(out, sym)
		}
	}
	return out
}
