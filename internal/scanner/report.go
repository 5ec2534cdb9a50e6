package scanner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/wonny/momentum/internal/momentum"
)

// Performer is one ranked symbol with its return in percent (2 dp)
type Performer struct {
	Symbol    string  `json:"symbol"`
	ReturnPct float64 `json:"return_pct"`
}

// Performers is a ranked list that serializes as {symbol: pct} in rank order
type Performers []Performer

// MarshalJSON writes an object whose keys keep the ranking order
func (p Performers) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, perf := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(perf.Symbol)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(perf.ReturnPct)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a {symbol: pct} object preserving key order
func (p *Performers) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("performers: expected object, got %v", tok)
	}

	out := Performers{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		symbol, _ := tok.(string)
		var pct float64
		if err := dec.Decode(&pct); err != nil {
			return fmt.Errorf("performers: %s: %w", symbol, err)
		}
		out = append(out, Performer{Symbol: symbol, ReturnPct: pct})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*p = out
	return nil
}

// WindowResult holds one window's performer lists
type WindowResult struct {
	Label            string     `json:"-"`
	TopPerformers    Performers `json:"top_performers"`
	BottomPerformers Performers `json:"bottom_performers"`
	Error            string     `json:"error,omitempty"`
}

// Comparison is the short-vs-long top set comparison
type Comparison struct {
	DroppedFromTop []string `json:"dropped_from_top_10"`
	EnteredTop     []string `json:"entered_top_10"`
	ShortTop       []string `json:"full_5d_top_10"`
	LongTop        []string `json:"full_3mo_top_10"`
}

// Report is a full scan result. It always carries every window.
type Report struct {
	Comparison Comparison
	Windows    []WindowResult
	Error      string
}

// Window looks up a window result by label
func (r Report) Window(label string) (WindowResult, bool) {
	for _, w := range r.Windows {
		if w.Label == label {
			return w, true
		}
	}
	return WindowResult{}, false
}

// MarshalJSON flattens windows into top-level keys next to "comparison"
func (r Report) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Windows)+2)
	out["comparison"] = r.Comparison
	for _, w := range r.Windows {
		out[w.Label] = w
	}
	if r.Error != "" {
		out["error"] = r.Error
	}
	return json.Marshal(out)
}

func newReport(windows []Window) *Report {
	r := &Report{
		Comparison: emptyComparison(),
		Windows:    make([]WindowResult, len(windows)),
	}
	for i, w := range windows {
		r.Windows[i] = placeholder(w)
	}
	return r
}

func placeholder(w Window) WindowResult {
	return WindowResult{
		Label:            w.Label,
		TopPerformers:    Performers{},
		BottomPerformers: Performers{},
	}
}

func emptyComparison() Comparison {
	return Comparison{
		DroppedFromTop: []string{},
		EnteredTop:     []string{},
		ShortTop:       []string{},
		LongTop:        []string{},
	}
}

func performers(scores momentum.Scores) Performers {
	out := make(Performers, len(scores))
	for i, sc := range scores {
		out[i] = Performer{Symbol: sc.Symbol, ReturnPct: roundPct(sc.Value)}
	}
	return out
}

func roundPct(v float64) float64 {
	return math.Round(v*10000) / 100
}
