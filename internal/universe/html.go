package universe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/momentum/pkg/httputil"
)

// HTMLSource scrapes symbols from the first HTML table that has a
// "Symbol" (or "Ticker") header column. Works on a local file or a URL.
type HTMLSource struct {
	location   string
	suffix     string
	httpClient *httputil.Client
}

// NewHTMLSource creates an HTML-backed universe. httpClient may be nil for local files.
func NewHTMLSource(location, suffix string, httpClient *httputil.Client) *HTMLSource {
	return &HTMLSource{location: location, suffix: suffix, httpClient: httpClient}
}

// Symbols fetches and parses the page
func (s *HTMLSource) Symbols(ctx context.Context) ([]string, error) {
	body, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	symbols, err := ParseConstituentsHTML(body)
	if err != nil {
		return nil, err
	}
	return Normalize(WithSuffix(symbols, s.suffix)), nil
}

func (s *HTMLSource) open(ctx context.Context) (io.ReadCloser, error) {
	if !isURL(s.location) {
		f, err := os.Open(s.location)
		if err != nil {
			return nil, fmt.Errorf("open universe html: %w", err)
		}
		return f, nil
	}

	if s.httpClient == nil {
		return nil, fmt.Errorf("universe url %s needs an http client", s.location)
	}
	resp, err := s.httpClient.Get(ctx, s.location)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// ParseConstituentsHTML extracts the symbol column of the first matching table
func ParseConstituentsHTML(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var symbols []string
	found := false

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		col := symbolColumn(table)
		if col < 0 {
			return true
		}
		found = true

		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() <= col {
				return // 헤더 행 또는 빈 행
			}
			if sym := strings.TrimSpace(cells.Eq(col).Text()); sym != "" {
				symbols = append(symbols, sym)
			}
		})
		return false
	})

	if !found {
		return nil, fmt.Errorf("no table with a symbol column")
	}
	symbols = Normalize(symbols)
	if len(symbols) == 0 {
		return nil, fmt.Errorf("symbol table is empty")
	}
	return symbols, nil
}

// symbolColumn returns the index of the symbol header cell, or -1
func symbolColumn(table *goquery.Selection) int {
	col := -1
	table.Find("tr").First().Find("th,td").EachWithBreak(func(i int, cell *goquery.Selection) bool {
		switch strings.ToLower(strings.TrimSpace(cell.Text())) {
		case "symbol", "ticker":
			col = i
			return false
		}
		return true
	})
	return col
}

func isURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
