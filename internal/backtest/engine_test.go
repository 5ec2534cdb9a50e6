package backtest

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/pricetable"
	"github.com/wonny/momentum/pkg/logger"
)

// frameProvider serves a fixed frame and records requests
type frameProvider struct {
	frame    *contracts.RawFrame
	err      error
	requests []contracts.FetchRequest
}

func (p *frameProvider) Name() string { return "frame" }

func (p *frameProvider) FetchPrices(_ context.Context, _ []string, req contracts.FetchRequest) (*contracts.RawFrame, error) {
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	return p.frame, nil
}

func quietBuilder(p contracts.PriceProvider) *pricetable.Builder {
	policy := pricetable.DefaultFetchPolicy()
	policy.BatchSize = 50
	policy.MaxRetries = 0
	policy.RetryDelay = 0
	policy.BatchDelay = 0
	return pricetable.NewBuilder(p, policy, logger.Nop())
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func days(start time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

// syntheticTable builds a deterministic multi-symbol table
func syntheticTable(t *testing.T, n int) *pricetable.Table {
	t.Helper()
	symbols := []string{"RELIANCE.NS", "TCS.NS", "INFY.NS", "HDFCBANK.NS", "ITC.NS"}
	cols := make(map[string][]float64, len(symbols))
	for s, sym := range symbols {
		col := make([]float64, n)
		for i := range col {
			col[i] = 100 + float64(s*5) + 10*math.Sin(float64(i+s)/(3+float64(s)))
		}
		cols[sym] = col
	}
	table, err := pricetable.FromColumns(days(date(2024, 1, 1), n), symbols, cols)
	require.NoError(t, err)
	return table
}

func TestSimulate_Deterministic(t *testing.T) {
	table := syntheticTable(t, 90)
	cfg := Config{
		Symbols:        table.Symbols(),
		StartDate:      date(2024, 1, 25),
		EndDate:        date(2024, 3, 25),
		InitialCapital: 500000,
		RebalanceDays:  7,
		TopN:           2,
	}

	first, err := Simulate(table, cfg, logger.Nop())
	require.NoError(t, err)
	second, err := Simulate(table, cfg, logger.Nop())
	require.NoError(t, err)

	require.NotEmpty(t, first.Events)
	assert.Equal(t, first.Events, second.Events)
	assert.Equal(t, first.Metrics, second.Metrics)
	assert.Equal(t, first.RebalanceDates, second.RebalanceDates)
	assert.Equal(t, StateCompleted, first.State)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestSimulate_FlatVersusRisingPicksRising(t *testing.T) {
	dates := days(date(2024, 1, 1), 21)
	a := make([]float64, 21)
	b := make([]float64, 21)
	for i := range dates {
		a[i] = 100
		b[i] = 100 + float64(i)
	}
	table, err := pricetable.FromColumns(dates, []string{"A", "B"}, map[string][]float64{"A": a, "B": b})
	require.NoError(t, err)

	result, err := Simulate(table, Config{
		Symbols:        []string{"A", "B"},
		StartDate:      dates[20],
		EndDate:        dates[20],
		InitialCapital: 500000,
		RebalanceDays:  14,
		TopN:           1,
	}, logger.Nop())
	require.NoError(t, err)

	require.Len(t, result.Events, 1)
	assert.Equal(t, []string{"B"}, result.Events[0].Selected)
	assert.Equal(t, 1, result.Metrics.NumberOfRebalances)
	assert.InDelta(t, 500000, result.Metrics.FinalValue, 1e-6)
	assert.Equal(t, 0, result.Metrics.DaysHeld)
	assert.Equal(t, 0.0, result.Metrics.AnnualizedReturnPct)
}

func TestSimulate_ZeroPriceLeavesResidualCash(t *testing.T) {
	dates := days(date(2024, 1, 1), 5)
	table, err := pricetable.FromColumns(dates, []string{"A", "B", "C"}, map[string][]float64{
		"A": {10, 10, 10, 10, 11},
		"B": {10, 10, 10, 10, 12},
		"C": {10, 10, 10, 10, 0},
	})
	require.NoError(t, err)

	result, err := Simulate(table, Config{
		Symbols:        table.Symbols(),
		StartDate:      dates[4],
		EndDate:        dates[4],
		InitialCapital: 900,
		RebalanceDays:  14,
	}, logger.Nop())
	require.NoError(t, err)

	require.Len(t, result.Events, 1)
	event := result.Events[0]
	assert.Equal(t, []string{"C"}, event.Skipped)
	assert.Len(t, event.Holdings, 2)
	assert.InDelta(t, 300.0, event.Cash, 1e-9)
	assert.InDelta(t, 900.0, event.Value, 1e-9)
}

func TestSimulate_SkippedCyclesStillCountAsRebalanceDates(t *testing.T) {
	dates := days(date(2024, 1, 1), 10)
	col := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	table, err := pricetable.FromColumns(dates, []string{"A"}, map[string][]float64{"A": col})
	require.NoError(t, err)

	result, err := Simulate(table, Config{
		Symbols:        []string{"A"},
		StartDate:      dates[0], // only one row as of the first tick
		EndDate:        dates[9],
		InitialCapital: 100,
		RebalanceDays:  5,
	}, logger.Nop())
	require.NoError(t, err)

	assert.Equal(t, []time.Time{dates[0], dates[5]}, result.RebalanceDates)
	assert.Len(t, result.Events, 1)
	assert.Equal(t, 2, result.Metrics.NumberOfRebalances)
	assert.Equal(t, 9, result.Metrics.DaysHeld)
}

func TestRun_ZeroRebalances(t *testing.T) {
	frame := contracts.NewRawFrame(days(date(2023, 12, 1), 5))
	frame.Set("A", contracts.FieldAdjClose, []float64{1, 2, 3, 4, 5})
	p := &frameProvider{frame: frame}

	engine := NewEngine(quietBuilder(p), logger.Nop())
	result, err := engine.Run(context.Background(), Config{
		Symbols:        []string{"A"},
		StartDate:      date(2024, 1, 10),
		EndDate:        date(2024, 1, 20),
		InitialCapital: 500000,
		RebalanceDays:  14,
		WarmupDays:     DefaultWarmupDays,
	})
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, result.State)
	assert.Equal(t, 500000.0, result.Metrics.FinalValue)
	assert.Equal(t, 0, result.Metrics.NumberOfRebalances)
	assert.Equal(t, 0.0, result.Metrics.TotalReturnPct)

	require.Len(t, p.requests, 1)
	assert.Equal(t, date(2023, 12, 11), p.requests[0].Start)
	assert.Equal(t, date(2024, 1, 20), p.requests[0].End)
}

func TestRun_DownloadFailure(t *testing.T) {
	p := &frameProvider{err: errors.New("dial tcp: i/o timeout")}

	engine := NewEngine(quietBuilder(p), logger.Nop())
	result, err := engine.Run(context.Background(), Config{
		Symbols:        []string{"A", "B"},
		StartDate:      date(2024, 1, 10),
		EndDate:        date(2024, 2, 10),
		InitialCapital: 1000,
		RebalanceDays:  14,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pricetable.ErrProviderUnavailable))
	require.NotNil(t, result)
	assert.Equal(t, StateFailed, result.State)
	assert.Empty(t, result.Events)
}

func TestRun_InvalidConfigFailsBeforeDownload(t *testing.T) {
	base := Config{
		Symbols:        []string{"A"},
		StartDate:      date(2024, 1, 10),
		EndDate:        date(2024, 2, 10),
		InitialCapital: 1000,
		RebalanceDays:  14,
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"start after end", func(c *Config) { c.StartDate = date(2024, 3, 1) }},
		{"zero capital", func(c *Config) { c.InitialCapital = 0 }},
		{"negative capital", func(c *Config) { c.InitialCapital = -5 }},
		{"zero rebalance period", func(c *Config) { c.RebalanceDays = 0 }},
		{"no symbols", func(c *Config) { c.Symbols = nil }},
		{"missing end", func(c *Config) { c.EndDate = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &frameProvider{}
			cfg := base
			tt.mutate(&cfg)

			_, err := NewEngine(quietBuilder(p), logger.Nop()).Run(context.Background(), cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Empty(t, p.requests)
		})
	}
}

func TestRun_ObserverSeesEveryEvent(t *testing.T) {
	table := syntheticTable(t, 60)
	frame := contracts.NewRawFrame(table.Dates())
	for _, sym := range table.Symbols() {
		frame.Set(sym, contracts.FieldAdjClose, table.Column(sym))
	}

	var seen []RebalanceEvent
	engine := NewEngine(quietBuilder(&frameProvider{frame: frame}), logger.Nop())
	result, err := engine.Run(context.Background(), Config{
		Symbols:        table.Symbols(),
		StartDate:      date(2024, 1, 21),
		EndDate:        date(2024, 2, 28),
		InitialCapital: 100000,
		RebalanceDays:  7,
		OnRebalance:    func(e RebalanceEvent) { seen = append(seen, e) },
	})
	require.NoError(t, err)
	assert.Equal(t, result.Events, seen)
	assert.Len(t, result.PortfolioValues, len(result.Events))
}

func TestAnnualizedReturnGuard(t *testing.T) {
	assert.Equal(t, 0.0, annualizedReturnPct(1000, 1200, 0))
	assert.Equal(t, 0.0, annualizedReturnPct(1000, 0, 365))
	assert.Equal(t, 0.0, annualizedReturnPct(1000, -10, 365))
	assert.Equal(t, 0.0, annualizedReturnPct(0, 1000, 365))
	assert.InDelta(t, 20.0, annualizedReturnPct(1000, 1200, 365), 1e-9)
	assert.InDelta(t, 44.0, annualizedReturnPct(1000, 1200, 182), 1.0)
}

func TestStateTransitions(t *testing.T) {
	assert.True(t, CanTransition(StateInitialized, StateDownloading))
	assert.True(t, CanTransition(StateDownloading, StateFailed))
	assert.True(t, CanTransition(StateSimulating, StateCompleted))
	assert.False(t, CanTransition(StateSimulating, StateFailed))
	assert.False(t, CanTransition(StateCompleted, StateDownloading))
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateSimulating.Terminal())

	r := &Result{State: StateInitialized}
	assert.Error(t, r.moveTo(StateCompleted))
	assert.NoError(t, r.moveTo(StateDownloading))
}
