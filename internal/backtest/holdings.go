package backtest

import (
	"sort"

	"github.com/wonny/momentum/internal/contracts"
)

// HoldingDetail is one position of a formatted holdings entry
type HoldingDetail struct {
	Symbol     string  `json:"symbol" csv:"symbol"`
	Shares     float64 `json:"shares" csv:"shares"`
	Price      float64 `json:"price" csv:"price"`
	Value      float64 `json:"value" csv:"value"`
	Percentage float64 `json:"percentage" csv:"percentage"`
}

// HoldingsEntry is a RebalanceEvent enriched for display
type HoldingsEntry struct {
	Date     string          `json:"date"`
	Holdings []HoldingDetail `json:"holdings"`
	Cash     float64         `json:"cash"`
}

// FormatHoldings enriches every event with per-position value and share of
// the portfolio, largest position first.
func FormatHoldings(events []RebalanceEvent) []HoldingsEntry {
	out := make([]HoldingsEntry, 0, len(events))
	for _, e := range events {
		out = append(out, FormatEvent(e))
	}
	return out
}

// FormatEvent formats a single rebalance
func FormatEvent(e RebalanceEvent) HoldingsEntry {
	details := make([]HoldingDetail, 0, len(e.Holdings))
	for _, p := range e.Holdings {
		value := p.Shares * p.Price
		pct := 0.0
		if e.Value > 0 {
			pct = value / e.Value * 100
		}
		details = append(details, HoldingDetail{
			Symbol:     p.Symbol,
			Shares:     p.Shares,
			Price:      p.Price,
			Value:      value,
			Percentage: pct,
		})
	}
	sort.SliceStable(details, func(i, j int) bool { return details[i].Value > details[j].Value })

	return HoldingsEntry{
		Date:     e.Date.Format(contracts.DateLayout),
		Holdings: details,
		Cash:     e.Cash,
	}
}
