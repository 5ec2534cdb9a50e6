package scanner

import (
	"math"

	"github.com/wonny/momentum/internal/momentum"
)

// SplitTopBottom selects the n best and n worst symbols with no symbol in both.
//
// A symbol drawn into both lists stays in the top list when its score is
// non-negative and in the bottom list otherwise. Short lists are then
// backfilled from the remaining unassigned symbols: the top list from the
// descending ranking, the bottom list from the ascending ranking.
func SplitTopBottom(scores momentum.Scores, n int) (top, bottom momentum.Scores) {
	top = scores.Top(n)
	bottom = scores.Bottom(n)

	values := scores.Map()
	inTop := symbolSet(top)
	inBottom := symbolSet(bottom)
	for _, sc := range top {
		sym := sc.Symbol
		if !inBottom[sym] {
			continue
		}
		if values[sym] >= 0 {
			delete(inBottom, sym)
		} else {
			delete(inTop, sym)
		}
	}
	top = keep(top, inTop)
	bottom = keep(bottom, inBottom)

	assigned := func(sym string) bool { return inTop[sym] || inBottom[sym] }

	for _, sc := range scores.Descending() {
		if len(top) >= n {
			break
		}
		if !assigned(sc.Symbol) {
			top = append(top, sc)
			inTop[sc.Symbol] = true
		}
	}
	for _, sc := range scores.Ascending() {
		if len(bottom) >= n {
			break
		}
		if !assigned(sc.Symbol) {
			bottom = append(bottom, sc)
			inBottom[sc.Symbol] = true
		}
	}
	return top, bottom
}

// Compare builds the short-vs-long top-n comparison.
//
// A symbol that is top-n in one window and bottom-n in the other is removed
// from the set where its absolute score is smaller; on a tie it stays in the
// top set. Entered = long top minus short top, dropped = short top minus long top.
func Compare(short, long momentum.Scores, n int) Comparison {
	shortTop, shortBottom := short.Top(n), short.Bottom(n)
	longTop, longBottom := long.Top(n), long.Bottom(n)

	shortScores, longScores := short.Map(), long.Map()

	shortTop, _ = resolveCross(shortTop, longBottom, shortScores, longScores)
	longTop, _ = resolveCross(longTop, shortBottom, longScores, shortScores)

	inShort := symbolSet(shortTop)
	inLong := symbolSet(longTop)

	cmp := emptyComparison()
	for _, sc := range longTop {
		if !inShort[sc.Symbol] {
			cmp.EnteredTop = append(cmp.EnteredTop, sc.Symbol)
		}
	}
	for _, sc := range shortTop {
		if !inLong[sc.Symbol] {
			cmp.DroppedFromTop = append(cmp.DroppedFromTop, sc.Symbol)
		}
	}
	cmp.ShortTop = append(cmp.ShortTop, shortTop.Symbols()...)
	cmp.LongTop = append(cmp.LongTop, longTop.Symbols()...)
	return cmp
}

// resolveCross removes symbols present in both a top set (scored by topScores)
// and a bottom set of the other window (scored by bottomScores).
func resolveCross(top, bottom momentum.Scores, topScores, bottomScores map[string]float64) (momentum.Scores, momentum.Scores) {
	keepTop := symbolSet(top)
	keepBottom := symbolSet(bottom)

	for _, sc := range top {
		if !keepBottom[sc.Symbol] {
			continue
		}
		if math.Abs(topScores[sc.Symbol]) < math.Abs(bottomScores[sc.Symbol]) {
			delete(keepTop, sc.Symbol)
		} else {
			delete(keepBottom, sc.Symbol)
		}
	}
	return keep(top, keepTop), keep(bottom, keepBottom)
}

func symbolSet(s momentum.Scores) map[string]bool {
	out := make(map[string]bool, len(s))
	for _, sc := range s {
		out[sc.Symbol] = true
	}
	return out
}

func keep(s momentum.Scores, set map[string]bool) momentum.Scores {
	out := make(momentum.Scores, 0, len(s))
	for _, sc := range s {
		if set[sc.Symbol] {
			out = append(out, sc)
		}
	}
	return out
}
