package backtest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/momentum"
	"github.com/wonny/momentum/internal/pricetable"
	"github.com/wonny/momentum/pkg/logger"
)

// ErrInvalidConfig is returned before any download when a Config is unusable
var ErrInvalidConfig = errors.New("invalid backtest configuration")

// Defaults
const (
	DefaultInitialCapital = 500000.0
	DefaultRebalanceDays  = 14
	DefaultTopN           = 10
	DefaultWarmupDays     = 30
	DefaultRangeDays      = 90
)

// Config holds backtest configuration
type Config struct {
	Symbols        []string
	StartDate      time.Time
	EndDate        time.Time
	InitialCapital float64
	RebalanceDays  int // calendar days between rebalance ticks
	Lookback       int // momentum lookback in rows
	TopN           int
	WarmupDays     int // calendar days downloaded before StartDate

	// OnRebalance is called after every appended event
	OnRebalance func(RebalanceEvent)
}

// Validate checks the config and fills optional defaults
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("%w: no symbols", ErrInvalidConfig)
	}
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidConfig)
	}
	c.StartDate = contracts.TruncateDay(c.StartDate)
	c.EndDate = contracts.TruncateDay(c.EndDate)
	if c.StartDate.After(c.EndDate) {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidConfig,
			c.StartDate.Format(contracts.DateLayout), c.EndDate.Format(contracts.DateLayout))
	}
	if c.InitialCapital <= 0 || math.IsNaN(c.InitialCapital) || math.IsInf(c.InitialCapital, 0) {
		return fmt.Errorf("%w: initial capital must be positive", ErrInvalidConfig)
	}
	if c.RebalanceDays <= 0 {
		return fmt.Errorf("%w: rebalance period must be positive", ErrInvalidConfig)
	}
	if c.Lookback <= 0 {
		c.Lookback = momentum.DefaultLookback
	}
	if c.TopN <= 0 {
		c.TopN = DefaultTopN
	}
	if c.WarmupDays < 0 {
		c.WarmupDays = 0
	}
	return nil
}

// Metrics are the derived performance figures of a run
type Metrics struct {
	InitialInvestment   float64 `json:"initial_investment"`
	FinalValue          float64 `json:"final_value"`
	AbsoluteReturn      float64 `json:"absolute_return"`
	TotalReturnPct      float64 `json:"total_return_pct"`
	AnnualizedReturnPct float64 `json:"annualized_return_pct"`
	DaysHeld            int     `json:"days_held"`
	NumberOfRebalances  int     `json:"number_of_rebalances"`
}

// ValuePoint is the portfolio value right after a rebalance
type ValuePoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Result is a backtest run: its audit trail and metrics
type Result struct {
	RunID           string
	State           State
	Config          Config
	Events          []RebalanceEvent
	RebalanceDates  []time.Time // every market date the loop visited
	PortfolioValues []ValuePoint
	Metrics         Metrics
	Duration        time.Duration
}

// Engine runs backtesting simulations
// ⭐ SSOT: 백테스팅 실행은 여기서만
type Engine struct {
	builder *pricetable.Builder
	logger  *logger.Logger
}

// NewEngine creates a new backtest engine
func NewEngine(builder *pricetable.Builder, log *logger.Logger) *Engine {
	return &Engine{
		builder: builder,
		logger:  log.WithField("module", "backtest"),
	}
}

// Run downloads prices for the configured range (plus warm-up) and simulates.
// A download failure leaves the result FAILED and returns the error.
func (e *Engine) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	result := newResult(cfg)
	log := e.logger.WithField("run_id", result.RunID)

	log.WithFields(map[string]interface{}{
		"symbols":         len(cfg.Symbols),
		"start_date":      cfg.StartDate.Format(contracts.DateLayout),
		"end_date":        cfg.EndDate.Format(contracts.DateLayout),
		"initial_capital": cfg.InitialCapital,
		"rebalance_days":  cfg.RebalanceDays,
	}).Info("Starting backtest")

	startTime := time.Now()

	if err := result.moveTo(StateDownloading); err != nil {
		return nil, err
	}
	from := cfg.StartDate.AddDate(0, 0, -cfg.WarmupDays)
	table, report, err := e.builder.Build(ctx, cfg.Symbols, contracts.RangeRequest(from, cfg.EndDate))
	if err != nil {
		_ = result.moveTo(StateFailed)
		result.Metrics = Metrics{InitialInvestment: cfg.InitialCapital}
		result.Duration = time.Since(startTime)
		log.WithError(err).Error("Backtest failed while downloading prices")
		return result, fmt.Errorf("download prices: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"rows":    table.Len(),
		"missing": len(report.MissingSymbols),
	}).Info("Price table ready")

	if err := result.moveTo(StateSimulating); err != nil {
		return nil, err
	}
	simulate(result, table, e.logger.WithField("run_id", result.RunID))
	if err := result.moveTo(StateCompleted); err != nil {
		return nil, err
	}
	result.Duration = time.Since(startTime)

	log.WithFields(map[string]interface{}{
		"duration":     result.Duration.Seconds(),
		"rebalances":   result.Metrics.NumberOfRebalances,
		"final_value":  fmt.Sprintf("%.2f", result.Metrics.FinalValue),
		"total_return": fmt.Sprintf("%.2f%%", result.Metrics.TotalReturnPct),
	}).Info("Backtest completed")

	return result, nil
}

// Simulate runs the rebalance loop over an already built table.
// It is deterministic: equal inputs give equal events and metrics.
func Simulate(table *pricetable.Table, cfg Config, log *logger.Logger) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	result := newResult(cfg)
	result.State = StateSimulating
	simulate(result, table, log)
	result.State = StateCompleted
	return result, nil
}

func newResult(cfg Config) *Result {
	return &Result{
		RunID:           uuid.New().String(),
		State:           StateInitialized,
		Config:          cfg,
		Events:          []RebalanceEvent{},
		RebalanceDates:  []time.Time{},
		PortfolioValues: []ValuePoint{},
	}
}

func simulate(result *Result, table *pricetable.Table, log *logger.Logger) {
	cfg := result.Config
	sim := NewSimulator()
	sim.Initialize(cfg.InitialCapital)

	for tick := cfg.StartDate; !tick.After(cfg.EndDate); tick = tick.AddDate(0, 0, cfg.RebalanceDays) {
		date, ok := table.FirstOnOrAfter(tick)
		if !ok {
			break
		}
		result.RebalanceDates = append(result.RebalanceDates, date)

		scores := momentum.AsOf(table, date, cfg.Lookback)
		if len(scores) == 0 {
			log.WithField("date", date.Format(contracts.DateLayout)).Warn("No momentum data, skipping rebalance")
			continue
		}

		row, _ := table.RowOf(date)
		event := sim.Rebalance(table, row, scores.Top(cfg.TopN))
		result.Events = append(result.Events, event)
		result.PortfolioValues = append(result.PortfolioValues, ValuePoint{Date: date, Value: event.Value})

		log.WithFields(map[string]interface{}{
			"date":     date.Format(contracts.DateLayout),
			"holdings": len(event.Holdings),
			"cash":     event.Cash,
			"value":    event.Value,
		}).Debug("Rebalanced")

		if cfg.OnRebalance != nil {
			cfg.OnRebalance(event)
		}
	}

	result.Metrics = calculateMetrics(cfg, result)
}

// calculateMetrics derives the run metrics from the recorded events
func calculateMetrics(cfg Config, result *Result) Metrics {
	m := Metrics{
		InitialInvestment:  cfg.InitialCapital,
		FinalValue:         cfg.InitialCapital,
		DaysHeld:           daysBetween(cfg.StartDate, cfg.EndDate),
		NumberOfRebalances: len(result.RebalanceDates),
	}
	if n := len(result.Events); n > 0 {
		m.FinalValue = result.Events[n-1].Value
	}

	m.AbsoluteReturn = m.FinalValue - m.InitialInvestment
	m.TotalReturnPct = m.AbsoluteReturn / m.InitialInvestment * 100
	m.AnnualizedReturnPct = annualizedReturnPct(m.InitialInvestment, m.FinalValue, m.DaysHeld)
	return m
}

// annualizedReturnPct is 0 unless days, initial and final are all positive
func annualizedReturnPct(initial, final float64, days int) float64 {
	if days <= 0 || initial <= 0 || final <= 0 {
		return 0
	}
	return (math.Pow(final/initial, 365.0/float64(days)) - 1) * 100
}

func daysBetween(start, end time.Time) int {
	return int(contracts.TruncateDay(end).Sub(contracts.TruncateDay(start)).Hours() / 24)
}
