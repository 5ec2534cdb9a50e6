package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/momentum"
	"github.com/wonny/momentum/pkg/logger"
)

// Request is the caller-facing backtest input. Zero values take defaults:
// end = today, start = end - 90 days, capital 500000, rebalance every 14 days,
// symbols = the configured universe.
type Request struct {
	Symbols             []string `json:"symbols,omitempty"`
	StartDate           string   `json:"start_date,omitempty"`
	EndDate             string   `json:"end_date,omitempty"`
	InitialInvestment   float64  `json:"initial_investment,omitempty"`
	RebalancePeriodDays int      `json:"rebalance_period_days,omitempty"`
}

// Response is always fully shaped; failures fill Error
type Response struct {
	RunID           string          `json:"run_id"`
	State           State           `json:"state"`
	Result          Metrics         `json:"result"`
	Summary         Summary         `json:"summary"`
	PortfolioValues []DatedValue    `json:"portfolio_values"`
	RebalanceDates  []string        `json:"rebalance_dates"`
	HoldingsHistory []HoldingsEntry `json:"holdings_history"`
	Error           string          `json:"error,omitempty"`
}

// DatedValue is a portfolio value keyed by ISO date
type DatedValue struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Parameters are strategy knobs the service applies to every run
type Parameters struct {
	Lookback   int
	TopN       int
	WarmupDays int
	Currency   string

	// request defaults
	InitialCapital float64
	RebalanceDays  int
}

// DefaultParameters returns the standard strategy knobs
func DefaultParameters() Parameters {
	return Parameters{
		Lookback:   momentum.DefaultLookback,
		TopN:       DefaultTopN,
		WarmupDays: DefaultWarmupDays,
		Currency:   DefaultCurrency,

		InitialCapital: DefaultInitialCapital,
		RebalanceDays:  DefaultRebalanceDays,
	}
}

// Service turns Requests into Responses around an Engine
type Service struct {
	engine   *Engine
	universe contracts.UniverseSource
	params   Parameters
	logger   *logger.Logger
	now      func() time.Time
}

// NewService creates a backtest service
func NewService(engine *Engine, universe contracts.UniverseSource, params Parameters, log *logger.Logger) *Service {
	return &Service{
		engine:   engine,
		universe: universe,
		params:   params,
		logger:   log.WithField("module", "backtest_service"),
		now:      time.Now,
	}
}

// Config resolves a Request into an engine Config
func (s *Service) Config(ctx context.Context, req Request) (Config, error) {
	cfg := Config{
		Symbols:        req.Symbols,
		InitialCapital: req.InitialInvestment,
		RebalanceDays:  req.RebalancePeriodDays,
		Lookback:       s.params.Lookback,
		TopN:           s.params.TopN,
		WarmupDays:     s.params.WarmupDays,
	}

	if len(cfg.Symbols) == 0 && s.universe != nil {
		symbols, err := s.universe.Symbols(ctx)
		if err != nil {
			return cfg, fmt.Errorf("%w: load universe: %v", ErrInvalidConfig, err)
		}
		cfg.Symbols = symbols
	}
	if cfg.InitialCapital == 0 {
		cfg.InitialCapital = s.params.InitialCapital
	}
	if cfg.InitialCapital == 0 {
		cfg.InitialCapital = DefaultInitialCapital
	}
	if cfg.RebalanceDays == 0 {
		cfg.RebalanceDays = s.params.RebalanceDays
	}
	if cfg.RebalanceDays == 0 {
		cfg.RebalanceDays = DefaultRebalanceDays
	}

	cfg.EndDate = contracts.TruncateDay(s.now())
	if req.EndDate != "" {
		end, err := contracts.ParseDate(req.EndDate)
		if err != nil {
			return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		cfg.EndDate = end
	}
	cfg.StartDate = cfg.EndDate.AddDate(0, 0, -DefaultRangeDays)
	if req.StartDate != "" {
		start, err := contracts.ParseDate(req.StartDate)
		if err != nil {
			return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		cfg.StartDate = start
	}

	err := cfg.Validate()
	return cfg, err
}

// Run executes a backtest. observer, when non-nil, receives every event.
// Errors are reported in Response.Error; the returned error is non-nil only
// for configuration problems so callers can map them to a client error.
func (s *Service) Run(ctx context.Context, req Request, observer func(RebalanceEvent)) (*Response, error) {
	cfg, err := s.Config(ctx, req)
	if err != nil {
		return failedResponse(cfg, err), err
	}
	cfg.OnRebalance = observer

	result, err := s.engine.Run(ctx, cfg)
	if err != nil {
		if result == nil || errors.Is(err, ErrInvalidConfig) {
			return failedResponse(cfg, err), err
		}
		resp := NewResponse(result, s.params.Currency)
		resp.Error = err.Error()
		return resp, nil
	}
	return NewResponse(result, s.params.Currency), nil
}

// NewResponse shapes a finished result
func NewResponse(result *Result, currency string) *Response {
	resp := &Response{
		RunID:           result.RunID,
		State:           result.State,
		Result:          result.Metrics,
		Summary:         Summarize(result, currency),
		PortfolioValues: make([]DatedValue, 0, len(result.PortfolioValues)),
		RebalanceDates:  make([]string, 0, len(result.RebalanceDates)),
		HoldingsHistory: FormatHoldings(result.Events),
	}
	for _, p := range result.PortfolioValues {
		resp.PortfolioValues = append(resp.PortfolioValues, DatedValue{
			Date:  p.Date.Format(contracts.DateLayout),
			Value: p.Value,
		})
	}
	for _, d := range result.RebalanceDates {
		resp.RebalanceDates = append(resp.RebalanceDates, d.Format(contracts.DateLayout))
	}
	return resp
}

func failedResponse(cfg Config, err error) *Response {
	result := newResult(cfg)
	result.State = StateFailed
	result.Metrics = Metrics{InitialInvestment: cfg.InitialCapital}
	resp := NewResponse(result, DefaultCurrency)
	resp.Error = err.Error()
	return resp
}
