package contracts

import (
	"math"
	"sort"
	"time"
)

// FrameAssembler collects (symbol, field, date, value) observations from a
// provider response and lays them out as a RawFrame over the union of dates.
type FrameAssembler struct {
	values map[ColumnKey]map[time.Time]float64
	dates  map[time.Time]bool
}

// NewFrameAssembler creates an empty assembler
func NewFrameAssembler() *FrameAssembler {
	return &FrameAssembler{
		values: make(map[ColumnKey]map[time.Time]float64),
		dates:  make(map[time.Time]bool),
	}
}

// Add records one observation. Dates are normalized to calendar days.
func (a *FrameAssembler) Add(symbol, field string, date time.Time, value float64) {
	key := ColumnKey{Symbol: symbol, Field: field}
	col, ok := a.values[key]
	if !ok {
		col = make(map[time.Time]float64)
		a.values[key] = col
	}
	day := TruncateDay(date)
	col[day] = value
	a.dates[day] = true
}

// Len returns the number of distinct dates seen
func (a *FrameAssembler) Len() int {
	return len(a.dates)
}

// Frame builds the RawFrame. Gaps are NaN.
// flat drops the symbol level (single-symbol response shape).
func (a *FrameAssembler) Frame(flat bool) *RawFrame {
	dates := make([]time.Time, 0, len(a.dates))
	for d := range a.dates {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	frame := NewRawFrame(dates)
	for key, col := range a.values {
		values := make([]float64, len(dates))
		for i, d := range dates {
			v, ok := col[d]
			if !ok {
				v = math.NaN()
			}
			values[i] = v
		}
		symbol := key.Symbol
		if flat {
			symbol = ""
		}
		frame.Set(symbol, key.Field, values)
	}
	return frame
}
