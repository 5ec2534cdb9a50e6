package pricetable

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/pkg/config"
	"github.com/wonny/momentum/pkg/logger"
)

var (
	// ErrProviderUnavailable is returned when every batch failed after retries
	ErrProviderUnavailable = errors.New("price provider unavailable")

	// ErrNoSymbols is returned when Build is called without symbols
	ErrNoSymbols = errors.New("no symbols requested")
)

// FetchPolicy controls batching and retries of provider calls
type FetchPolicy struct {
	BatchSize   int
	MaxRetries  int // retries after the first attempt
	RetryDelay  time.Duration
	BatchDelay  time.Duration
	PriceFields []string // preference order
}

// DefaultFetchPolicy returns the standard batching policy
func DefaultFetchPolicy() FetchPolicy {
	return FetchPolicy{
		BatchSize:   5,
		MaxRetries:  3,
		RetryDelay:  2 * time.Second,
		BatchDelay:  1 * time.Second,
		PriceFields: []string{contracts.FieldAdjClose, contracts.FieldClose},
	}
}

// PolicyFromConfig maps env configuration onto a FetchPolicy
func PolicyFromConfig(cfg config.FetchConfig) FetchPolicy {
	p := DefaultFetchPolicy()
	if cfg.BatchSize > 0 {
		p.BatchSize = cfg.BatchSize
	}
	if cfg.MaxRetries >= 0 {
		p.MaxRetries = cfg.MaxRetries
	}
	p.RetryDelay = cfg.RetryDelay
	p.BatchDelay = cfg.BatchDelay
	return p
}

// BatchResult tags the outcome of one provider batch
type BatchResult struct {
	Symbols  []string `json:"symbols"`
	Attempts int      `json:"attempts"`
	Rows     int      `json:"rows"`
	Err      error    `json:"-"`
}

// OK reports whether the batch call succeeded
func (r BatchResult) OK() bool {
	return r.Err == nil
}

// BuildReport summarizes a Build call
type BuildReport struct {
	Provider       string            `json:"provider"`
	Batches        []BatchResult     `json:"batches"`
	MissingSymbols []string          `json:"missing_symbols"`
	FieldUsed      map[string]string `json:"field_used"` // symbol -> price field
}

// FailedBatches counts batches that failed after retries
func (r *BuildReport) FailedBatches() int {
	n := 0
	for _, b := range r.Batches {
		if !b.OK() {
			n++
		}
	}
	return n
}

// Builder fetches raw provider frames in sequential batches and aligns them
// into a Table.
// ⭐ SSOT: 가격 테이블 생성은 여기서만
type Builder struct {
	provider contracts.PriceProvider
	policy   FetchPolicy
	logger   *logger.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewBuilder creates a Builder
func NewBuilder(provider contracts.PriceProvider, policy FetchPolicy, log *logger.Logger) *Builder {
	if policy.BatchSize <= 0 {
		policy.BatchSize = 1
	}
	if len(policy.PriceFields) == 0 {
		policy.PriceFields = DefaultFetchPolicy().PriceFields
	}
	return &Builder{
		provider: provider,
		policy:   policy,
		logger:   log.WithField("module", "pricetable"),
		sleep:    sleepContext,
	}
}

// Policy returns the builder's fetch policy
func (b *Builder) Policy() FetchPolicy {
	return b.policy
}

// symbolSeries is one symbol's resolved price series from a batch
type symbolSeries struct {
	field  string
	dates  []time.Time
	values []float64
}

// Build downloads prices for symbols and returns an aligned table.
// Failed batches leave their symbols Missing; only a total failure is an error.
func (b *Builder) Build(ctx context.Context, symbols []string, req contracts.FetchRequest) (*Table, *BuildReport, error) {
	symbols = dedupe(symbols)
	if len(symbols) == 0 {
		return nil, nil, ErrNoSymbols
	}
	if req.Interval == "" {
		req.Interval = contracts.IntervalDaily
	}

	report := &BuildReport{
		Provider:  b.provider.Name(),
		FieldUsed: make(map[string]string),
	}
	series := make(map[string]symbolSeries)

	batches := chunk(symbols, b.policy.BatchSize)
	b.logger.WithFields(map[string]interface{}{
		"provider": b.provider.Name(),
		"symbols":  len(symbols),
		"batches":  len(batches),
		"period":   req.Period,
	}).Debug("Building price table")

	for i, batch := range batches {
		if i > 0 && b.policy.BatchDelay > 0 {
			if err := b.sleep(ctx, b.policy.BatchDelay); err != nil {
				return nil, report, b.cancelled(err, i, len(batches))
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, report, b.cancelled(err, i, len(batches))
		}

		frame, result := b.fetchBatch(ctx, batch, req)
		if result.OK() {
			for sym, s := range normalize(frame, batch, b.policy.PriceFields) {
				series[sym] = s
				report.FieldUsed[sym] = s.field
			}
		}
		report.Batches = append(report.Batches, result)
	}

	if report.FailedBatches() == len(batches) {
		last := report.Batches[len(report.Batches)-1].Err
		return nil, report, fmt.Errorf("%w: all %d batches failed: %v", ErrProviderUnavailable, len(batches), last)
	}

	table := align(symbols, series)
	report.MissingSymbols = table.MissingSymbols()

	if len(report.MissingSymbols) > 0 {
		b.logger.WithFields(map[string]interface{}{
			"provider": b.provider.Name(),
			"missing":  report.MissingSymbols,
		}).Warn("Symbols without price data, filled as missing")
	}

	return table, report, nil
}

// cancelled stops the build once the caller's context is done;
// remaining batches are not attempted.
func (b *Builder) cancelled(err error, done, total int) error {
	b.logger.WithError(err).WithFields(map[string]interface{}{
		"provider": b.provider.Name(),
		"batches":  done,
		"total":    total,
	}).Warn("Price table build cancelled")
	return fmt.Errorf("price table build cancelled after %d/%d batches: %w", done, total, err)
}

// fetchBatch calls the provider with retries
func (b *Builder) fetchBatch(ctx context.Context, batch []string, req contracts.FetchRequest) (*contracts.RawFrame, BatchResult) {
	result := BatchResult{Symbols: batch}
	maxAttempts := b.policy.MaxRetries + 1

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result.Attempts = attempt

		frame, err := b.provider.FetchPrices(ctx, batch, req)
		if err == nil {
			if frame != nil {
				result.Rows = len(frame.Dates)
			}
			result.Err = nil
			return frame, result
		}
		result.Err = err

		b.logger.WithError(err).WithFields(map[string]interface{}{
			"symbols": batch,
			"attempt": attempt,
		}).Warn("Batch fetch failed")

		if attempt < maxAttempts {
			if sleepErr := b.sleep(ctx, b.policy.RetryDelay); sleepErr != nil {
				result.Err = sleepErr
				break
			}
		}
	}

	b.logger.WithError(result.Err).WithField("symbols", batch).Error("Batch failed after retries, marking symbols missing")
	return nil, result
}

// normalize maps a raw frame onto per-symbol series using the first
// available price field. Single-symbol batches accept flat columns.
func normalize(frame *contracts.RawFrame, batch []string, fields []string) map[string]symbolSeries {
	out := make(map[string]symbolSeries)
	if frame.Empty() {
		return out
	}

	flat := frame.Flat() && len(batch) == 1
	for _, sym := range batch {
		key := sym
		if flat {
			key = ""
		}
		for _, field := range fields {
			values, ok := frame.Column(key, field)
			if !ok || len(values) != len(frame.Dates) {
				continue
			}
			out[sym] = symbolSeries{field: field, dates: frame.Dates, values: values}
			break
		}
	}
	return out
}

// align merges series onto the sorted union of their dates
func align(symbols []string, series map[string]symbolSeries) *Table {
	seen := make(map[time.Time]bool)
	var dates []time.Time
	for _, s := range series {
		for _, d := range s.dates {
			day := contracts.TruncateDay(d)
			if !seen[day] {
				seen[day] = true
				dates = append(dates, day)
			}
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	t := newTable(dates, symbols)
	for sym, s := range series {
		col := t.prices[t.index[sym]]
		for i, d := range s.dates {
			row, ok := t.RowOf(d)
			if !ok {
				continue
			}
			col[row] = s.values[i]
		}
	}
	return t
}

func chunk(symbols []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(symbols); start += size {
		end := start + size
		if end > len(symbols) {
			end = len(symbols)
		}
		out = append(out, symbols[start:end])
	}
	return out
}

func dedupe(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
