package momentum

import (
	"math"
	"sort"
	"time"

	"github.com/wonny/momentum/internal/pricetable"
)

// DefaultLookback is the rebalance lookback in trading rows (~1 month)
const DefaultLookback = 20

// Score is one symbol's cumulative return
type Score struct {
	Symbol string  `json:"symbol"`
	Value  float64 `json:"value"`

	pos int // column position in the source table, for stable ordering
}

// Scores is a ranking ordered by Value descending; ties keep table order.
type Scores []Score

// AsOf scores every symbol as of a date with a trailing lookback of rows.
//
// Rows after asOf are ignored. With fewer than 2 rows the result is empty.
// The reference row is lookback rows back from the end (counting the last
// row), or the first row when history is shorter than lookback.
// ⭐ SSOT: 모멘텀 점수 계산은 여기서만
func AsOf(table *pricetable.Table, asOf time.Time, lookback int) Scores {
	n := table.RowsUpTo(asOf)
	if n < 2 {
		return Scores{}
	}

	last := n - 1
	ref := 0
	if lookback > 0 && n >= lookback {
		ref = n - lookback
	}

	out := make(Scores, 0, len(table.Symbols()))
	for pos, sym := range table.Symbols() {
		if v, ok := change(table.Price(sym, ref), table.Price(sym, last)); ok {
			out = append(out, Score{Symbol: sym, Value: v, pos: pos})
		}
	}
	out.sortDesc()
	return out
}

// Cumulative scores each symbol first-to-last over the whole table, using
// the symbol's first and last observed prices.
func Cumulative(table *pricetable.Table) Scores {
	if table.Len() < 2 {
		return Scores{}
	}

	out := make(Scores, 0, len(table.Symbols()))
	for pos, sym := range table.Symbols() {
		col := table.Column(sym)
		first, last := -1, -1
		for i, v := range col {
			if pricetable.IsMissing(v) {
				continue
			}
			if first < 0 {
				first = i
			}
			last = i
		}
		if first < 0 || first == last {
			continue
		}
		if v, ok := change(col[first], col[last]); ok {
			out = append(out, Score{Symbol: sym, Value: v, pos: pos})
		}
	}
	out.sortDesc()
	return out
}

func change(reference, latest float64) (float64, bool) {
	if pricetable.IsMissing(reference) || pricetable.IsMissing(latest) || reference <= 0 {
		return 0, false
	}
	v := (latest - reference) / reference
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func (s Scores) sortDesc() {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Value > s[j].Value })
}

// Descending returns the full ranking, best first
func (s Scores) Descending() Scores {
	return append(Scores(nil), s...)
}

// Ascending returns the full ranking, worst first; ties keep table order
func (s Scores) Ascending() Scores {
	out := append(Scores(nil), s...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value < out[j].Value
		}
		return out[i].pos < out[j].pos
	})
	return out
}

// Top returns up to n best scores
func (s Scores) Top(n int) Scores {
	if n > len(s) {
		n = len(s)
	}
	if n < 0 {
		n = 0
	}
	return append(Scores(nil), s[:n]...)
}

// Bottom returns up to n worst scores, worst first
func (s Scores) Bottom(n int) Scores {
	return s.Ascending().Top(n)
}

// Symbols lists the symbols in ranking order
func (s Scores) Symbols() []string {
	out := make([]string, len(s))
	for i, sc := range s {
		out[i] = sc.Symbol
	}
	return out
}

// Map indexes scores by symbol
func (s Scores) Map() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, sc := range s {
		out[sc.Symbol] = sc.Value
	}
	return out
}
