package universe

import (
	"context"
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
)

// constituentRow is one line of a constituents CSV (NSE index export layout)
type constituentRow struct {
	Company  string `csv:"Company Name"`
	Industry string `csv:"Industry"`
	Symbol   string `csv:"Symbol"`
}

// CSVSource loads symbols from a constituents CSV file
type CSVSource struct {
	path   string
	suffix string
}

// NewCSVSource creates a CSV-backed universe. suffix is appended to bare tickers.
func NewCSVSource(path, suffix string) *CSVSource {
	return &CSVSource{path: path, suffix: suffix}
}

// Symbols reads the file on every call so edits are picked up without restart
func (s *CSVSource) Symbols(_ context.Context) ([]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open universe csv: %w", err)
	}
	defer f.Close()

	var rows []constituentRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parse universe csv: %w", err)
	}

	symbols := make([]string, 0, len(rows))
	for _, r := range rows {
		symbols = append(symbols, r.Symbol)
	}
	symbols = Normalize(WithSuffix(Normalize(symbols), s.suffix))
	if len(symbols) == 0 {
		return nil, fmt.Errorf("universe csv %s has no symbols", s.path)
	}
	return symbols, nil
}
