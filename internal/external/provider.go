package external

import (
	"context"
	"fmt"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/data/repos"
	"github.com/wonny/momentum/internal/external/alpaca"
	"github.com/wonny/momentum/internal/external/csvfeed"
	"github.com/wonny/momentum/internal/external/yahoo"
	"github.com/wonny/momentum/pkg/config"
	"github.com/wonny/momentum/pkg/database"
	"github.com/wonny/momentum/pkg/httputil"
	"github.com/wonny/momentum/pkg/logger"
	"github.com/wonny/momentum/pkg/redis"
)

// Provider bundles the configured price provider with what it holds open
type Provider struct {
	contracts.PriceProvider

	// Repository is set for the postgres provider
	Repository *repos.PriceRepository
	// Feed is set for the csv provider
	Feed *csvfeed.Feed

	closers []func()
}

// Close releases connections held by the provider
func (p *Provider) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
	p.closers = nil
}

// NewProvider builds the price provider selected by PROVIDER
// ⭐ SSOT: 가격 제공자 선택은 여기서만
func NewProvider(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Provider, error) {
	switch cfg.Provider {
	case config.ProviderYahoo:
		return newYahoo(ctx, cfg, log)

	case config.ProviderAlpaca:
		rc, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		client := alpaca.NewClient(cfg.Alpaca, log)
		if rl := rc.RateLimiter(); rl != nil {
			client = client.WithRateLimiter(rl)
		}
		return &Provider{PriceProvider: client, closers: []func(){func() { rc.Close() }}}, nil

	case config.ProviderCSV:
		feed, err := csvfeed.Open(cfg.CSV.PricesPath, log)
		if err != nil {
			return nil, err
		}
		return &Provider{PriceProvider: feed, Feed: feed}, nil

	case config.ProviderPostgres:
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		repo := repos.NewPriceRepository(db.Pool, log)
		return &Provider{PriceProvider: repo, Repository: repo, closers: []func(){db.Close}}, nil
	}

	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}

// NewYahoo builds the Yahoo provider regardless of PROVIDER
// (used as the live source when syncing into postgres)
func NewYahoo(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Provider, error) {
	return newYahoo(ctx, cfg, log)
}

func newYahoo(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Provider, error) {
	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	// 종목별 호출이라 배치 재시도와 별개로 5xx/429는 요청 단위로 재시도
	httpClient := httputil.New(cfg, log).
		WithRetry(cfg.Fetch.MaxRetries, cfg.Fetch.RetryDelay).
		WithLocalLimit(cfg.Yahoo.RateLimit)
	if rl := rc.RateLimiter(); rl != nil {
		limit := redis.YahooRateLimit
		if cfg.Yahoo.RateLimit > 0 {
			limit.Limit = cfg.Yahoo.RateLimit
		}
		httpClient = httpClient.WithRateLimiter(rl, limit)
	}

	return &Provider{
		PriceProvider: yahoo.NewClient(httpClient, cfg.Yahoo.BaseURL, log),
		closers:       []func(){func() { rc.Close() }},
	}, nil
}
