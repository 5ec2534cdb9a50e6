package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/pkg/httputil"
	"github.com/wonny/momentum/pkg/logger"
)

// DefaultBaseURL is the public Yahoo Finance query host
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Client fetches daily bars from the Yahoo Finance chart API
// ⭐ SSOT: Yahoo 차트 API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Yahoo chart client
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("yahoo"),
		baseURL:    baseURL,
	}
}

// Name implements contracts.PriceProvider
func (c *Client) Name() string {
	return "yahoo"
}

// FetchPrices downloads each symbol's chart and merges them into one frame.
// Symbols Yahoo does not know are omitted; the call fails only when
// nothing could be fetched. A single-symbol request returns flat columns.
func (c *Client) FetchPrices(ctx context.Context, symbols []string, req contracts.FetchRequest) (*contracts.RawFrame, error) {
	if len(symbols) == 0 {
		return contracts.NewRawFrame(nil), nil
	}

	assembler := contracts.NewFrameAssembler()
	var lastErr error
	fetched := 0

	for _, symbol := range symbols {
		chart, err := c.fetchChart(ctx, symbol, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			c.logger.WithFields(map[string]interface{}{
				"symbol": symbol,
				"error":  err.Error(),
			}).Warn("Chart fetch failed, symbol omitted")
			continue
		}
		fetched++
		chart.addTo(assembler, symbol)
	}

	if fetched == 0 && lastErr != nil {
		return nil, fmt.Errorf("yahoo chart: %w", lastErr)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbols": len(symbols),
		"fetched": fetched,
		"dates":   assembler.Len(),
	}).Debug("Fetched charts")

	return assembler.Frame(len(symbols) == 1), nil
}

// fetchChart calls /v8/finance/chart/{symbol}
func (c *Client) fetchChart(ctx context.Context, symbol string, req contracts.FetchRequest) (*chartResult, error) {
	fullURL, err := c.chartURL(symbol, req)
	if err != nil {
		return nil, err
	}

	var resp chartResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, &resp); err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("symbol %s not found", symbol)
		}
		return nil, err
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("%s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("empty chart result for %s", symbol)
	}
	return &resp.Chart.Result[0], nil
}

// chartURL builds the request URL. Ranges are sent as unix seconds with an
// exclusive period2, so the inclusive end date gets one extra day.
func (c *Client) chartURL(symbol string, req contracts.FetchRequest) (string, error) {
	interval := req.Interval
	if interval == "" {
		interval = contracts.IntervalDaily
	}

	params := url.Values{}
	params.Set("interval", interval)
	params.Set("includeAdjustedClose", "true")
	params.Set("events", "div,splits")

	if req.IsPeriod() {
		params.Set("range", req.Period)
	} else {
		start, end, err := req.Resolve(time.Now())
		if err != nil {
			return "", err
		}
		params.Set("period1", strconv.FormatInt(start.Unix(), 10))
		params.Set("period2", strconv.FormatInt(end.AddDate(0, 0, 1).Unix(), 10))
	}

	return fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode()), nil
}
