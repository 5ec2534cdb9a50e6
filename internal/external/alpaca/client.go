package alpaca

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/pkg/config"
	"github.com/wonny/momentum/pkg/logger"
	"github.com/wonny/momentum/pkg/redis"
)

// barsClient is the subset of marketdata.Client used here
type barsClient interface {
	GetMultiBars(symbols []string, req marketdata.GetBarsRequest) (map[string][]marketdata.Bar, error)
}

// Client fetches split/dividend adjusted daily bars from Alpaca market data.
// Bars carry only a Close field (already adjusted), so the table builder
// falls back from Adj Close to Close for this provider.
// ⭐ SSOT: Alpaca 시세 API 호출은 이 클라이언트에서만
type Client struct {
	bars   barsClient
	feed   marketdata.Feed
	loc    *time.Location
	now    func() time.Time
	logger *logger.Logger

	limiter *redis.RateLimiter
}

// NewClient creates an Alpaca provider from config
func NewClient(cfg config.AlpacaConfig, log *logger.Logger) *Client {
	opts := marketdata.ClientOpts{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
	}
	if cfg.DataURL != "" {
		opts.BaseURL = cfg.DataURL
	}
	return newClient(marketdata.NewClient(opts), cfg.Feed, log)
}

func newClient(bars barsClient, feed string, log *logger.Logger) *Client {
	if feed == "" {
		feed = "iex"
	}
	return &Client{
		bars:   bars,
		feed:   marketdata.Feed(feed),
		loc:    marketLocation(),
		now:    time.Now,
		logger: log.WithComponent("alpaca"),
	}
}

// WithRateLimiter shares the Alpaca request budget across processes
func (c *Client) WithRateLimiter(limiter *redis.RateLimiter) *Client {
	c.limiter = limiter
	return c
}

// Name implements contracts.PriceProvider
func (c *Client) Name() string {
	return "alpaca"
}

// FetchPrices downloads daily bars for all symbols in one multi-symbol call.
// Periods are resolved against today since the bars API only takes ranges.
func (c *Client) FetchPrices(ctx context.Context, symbols []string, req contracts.FetchRequest) (*contracts.RawFrame, error) {
	if len(symbols) == 0 {
		return contracts.NewRawFrame(nil), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start, end, err := req.Resolve(c.now().In(c.loc))
	if err != nil {
		return nil, fmt.Errorf("resolve request: %w", err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, redis.AlpacaRateLimit); err != nil {
			return nil, fmt.Errorf("rate limit wait failed: %w", err)
		}
	}

	multiBars, err := c.bars.GetMultiBars(symbols, marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Adjustment: marketdata.All,
		Start:      start,
		End:        end.AddDate(0, 0, 1), // 종료일 포함
		Feed:       c.feed,
	})
	if err != nil {
		return nil, fmt.Errorf("GetMultiBars: %w", err)
	}

	assembler := contracts.NewFrameAssembler()
	for symbol, bars := range multiBars {
		for _, bar := range bars {
			assembler.Add(strings.ToUpper(symbol), contracts.FieldClose, bar.Timestamp.In(c.loc), bar.Close)
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"symbols":  len(symbols),
		"returned": len(multiBars),
		"start":    start.Format(contracts.DateLayout),
		"end":      end.Format(contracts.DateLayout),
	}).Debug("Fetched bars")

	return req.Trim(assembler.Frame(len(symbols) == 1)), nil
}

// marketLocation is the US equity session timezone; daily bars are stamped
// at New York midnight.
func marketLocation() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}
