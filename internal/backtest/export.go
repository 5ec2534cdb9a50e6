package backtest

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

// holdingsRow is one CSV line of the holdings export
type holdingsRow struct {
	Date       string  `csv:"date"`
	Symbol     string  `csv:"symbol"`
	Shares     float64 `csv:"shares"`
	Price      float64 `csv:"price"`
	Value      float64 `csv:"value"`
	Percentage float64 `csv:"percentage"`
	Cash       float64 `csv:"cash"`
}

// WriteHoldingsCSV writes the holdings history as one row per position.
// Rebalances that bought nothing produce a row with an empty symbol.
func WriteHoldingsCSV(w io.Writer, history []HoldingsEntry) error {
	rows := make([]*holdingsRow, 0)
	for _, entry := range history {
		if len(entry.Holdings) == 0 {
			rows = append(rows, &holdingsRow{Date: entry.Date, Cash: entry.Cash})
			continue
		}
		for _, h := range entry.Holdings {
			rows = append(rows, &holdingsRow{
				Date:       entry.Date,
				Symbol:     h.Symbol,
				Shares:     h.Shares,
				Price:      h.Price,
				Value:      h.Value,
				Percentage: h.Percentage,
				Cash:       entry.Cash,
			})
		}
	}

	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("write holdings csv: %w", err)
	}
	return nil
}
