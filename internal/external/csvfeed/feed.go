package csvfeed

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/pkg/logger"
)

// priceRow is one line of a long-format price file:
// date,symbol,close,adj_close (adj_close optional, blanks allowed)
type priceRow struct {
	Date     string `csv:"date"`
	Symbol   string `csv:"symbol"`
	Close    string `csv:"close"`
	AdjClose string `csv:"adj_close"`
}

type observation struct {
	date     time.Time
	close    float64
	adjClose float64
	hasClose bool
	hasAdj   bool
}

// Feed serves prices from an offline CSV file
// ⭐ SSOT: 오프라인 가격 파일 파싱은 여기서만
type Feed struct {
	bySymbol map[string][]observation
	last     time.Time
	logger   *logger.Logger
}

// Open loads a price file from disk
func Open(path string, log *logger.Logger) (*Feed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open price csv: %w", err)
	}
	defer f.Close()

	feed, err := Parse(f, log)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return feed, nil
}

// Parse reads a price file
func Parse(r io.Reader, log *logger.Logger) (*Feed, error) {
	var rows []priceRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("parse price csv: %w", err)
	}

	feed := &Feed{
		bySymbol: make(map[string][]observation),
		logger:   log.WithComponent("csvfeed"),
	}

	for i, row := range rows {
		date, err := contracts.ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		symbol := strings.ToUpper(strings.TrimSpace(row.Symbol))
		if symbol == "" {
			return nil, fmt.Errorf("row %d: empty symbol", i+2)
		}

		obs := observation{date: date}
		if obs.close, obs.hasClose, err = parseNumber(row.Close); err != nil {
			return nil, fmt.Errorf("row %d close: %w", i+2, err)
		}
		if obs.adjClose, obs.hasAdj, err = parseNumber(row.AdjClose); err != nil {
			return nil, fmt.Errorf("row %d adj_close: %w", i+2, err)
		}

		feed.bySymbol[symbol] = append(feed.bySymbol[symbol], obs)
		if date.After(feed.last) {
			feed.last = date
		}
	}

	for _, series := range feed.bySymbol {
		sort.SliceStable(series, func(i, j int) bool { return series[i].date.Before(series[j].date) })
	}

	return feed, nil
}

// Name implements contracts.PriceProvider
func (f *Feed) Name() string {
	return "csv"
}

// LastDate is the newest date in the file
func (f *Feed) LastDate() time.Time {
	return f.last
}

// Symbols lists the symbols available in the file
func (f *Feed) Symbols(_ context.Context) ([]string, error) {
	out := make([]string, 0, len(f.bySymbol))
	for s := range f.bySymbol {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

// FetchPrices slices the file. Trailing periods are anchored at the file's
// last date rather than today, so historical files stay usable.
func (f *Feed) FetchPrices(ctx context.Context, symbols []string, req contracts.FetchRequest) (*contracts.RawFrame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(symbols) == 0 || len(f.bySymbol) == 0 {
		return contracts.NewRawFrame(nil), nil
	}

	start, end, err := req.Resolve(f.last)
	if err != nil {
		return nil, fmt.Errorf("resolve request: %w", err)
	}

	assembler := contracts.NewFrameAssembler()
	for _, symbol := range symbols {
		for _, obs := range f.bySymbol[strings.ToUpper(symbol)] {
			if obs.date.Before(start) || obs.date.After(end) {
				continue
			}
			if obs.hasClose {
				assembler.Add(symbol, contracts.FieldClose, obs.date, obs.close)
			}
			if obs.hasAdj {
				assembler.Add(symbol, contracts.FieldAdjClose, obs.date, obs.adjClose)
			}
		}
	}

	f.logger.WithFields(map[string]interface{}{
		"symbols": len(symbols),
		"dates":   assembler.Len(),
	}).Debug("Sliced price file")

	return req.Trim(assembler.Frame(len(symbols) == 1)), nil
}

func parseNumber(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "null") {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}
