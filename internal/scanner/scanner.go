package scanner

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/momentum"
	"github.com/wonny/momentum/internal/pricetable"
	"github.com/wonny/momentum/pkg/logger"
)

// DefaultTopN is the size of every top/bottom performer list
const DefaultTopN = 10

// ErrUnresolvableComparison aborts a scan when the short/long comparison fails
var ErrUnresolvableComparison = errors.New("cross-window comparison failed")

// errNoScores marks a window where no symbol could be scored
var errNoScores = errors.New("no scorable symbols")

// Window is a labelled provider-native lookback period
type Window struct {
	Label  string `json:"label" yaml:"label"`
	Period string `json:"period" yaml:"period"`
}

// DefaultWindows are the scan windows, shortest first
var DefaultWindows = []Window{
	{Label: "5d", Period: "5d"},
	{Label: "10d", Period: "10d"},
	{Label: "1mo", Period: "1mo"},
	{Label: "3mo", Period: "3mo"},
	{Label: "6mo", Period: "6mo"},
	{Label: "1y", Period: "1y"},
}

// Scanner ranks a universe over several windows
// ⭐ SSOT: 모멘텀 스캔은 여기서만
type Scanner struct {
	builder *pricetable.Builder
	logger  *logger.Logger
	windows []Window
	topN    int
	short   Window
	long    Window
}

// Option configures a Scanner
type Option func(*Scanner)

// WithWindows replaces the scan windows
func WithWindows(windows []Window) Option {
	return func(s *Scanner) {
		if len(windows) > 0 {
			s.windows = windows
		}
	}
}

// WithTopN sets the performer list size
func WithTopN(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.topN = n
		}
	}
}

// WithComparison sets the short and long windows that are compared
func WithComparison(short, long Window) Option {
	return func(s *Scanner) {
		s.short = short
		s.long = long
	}
}

// New creates a Scanner
func New(builder *pricetable.Builder, log *logger.Logger, opts ...Option) *Scanner {
	s := &Scanner{
		builder: builder,
		logger:  log.WithField("module", "scanner"),
		windows: DefaultWindows,
		topN:    DefaultTopN,
		short:   DefaultWindows[0],
		long:    DefaultWindows[3],
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Windows returns the configured windows
func (s *Scanner) Windows() []Window {
	return append([]Window(nil), s.windows...)
}

// Scan runs the comparison and then every window.
// A window failure is reported in that window only; a comparison failure
// aborts the scan and leaves every window as an empty placeholder.
func (s *Scanner) Scan(ctx context.Context, symbols []string) *Report {
	report := newReport(s.windows)

	s.logger.WithFields(map[string]interface{}{
		"symbols": len(symbols),
		"windows": len(s.windows),
	}).Info("Starting momentum scan")

	cmp, err := s.compare(ctx, symbols)
	if err != nil {
		s.logger.WithError(err).Error("Momentum scan aborted")
		report.Error = err.Error()
		return report
	}
	report.Comparison = cmp

	failed := 0
	for i, w := range s.windows {
		report.Windows[i] = s.scanWindow(ctx, symbols, w)
		if report.Windows[i].Error != "" {
			failed++
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"entered": cmp.EnteredTop,
		"dropped": cmp.DroppedFromTop,
		"failed":  failed,
	}).Info("Momentum scan completed")

	return report
}

func (s *Scanner) compare(ctx context.Context, symbols []string) (Comparison, error) {
	short, err := s.score(ctx, symbols, s.short)
	if err != nil {
		return emptyComparison(), fmt.Errorf("%w: %s window: %v", ErrUnresolvableComparison, s.short.Label, err)
	}
	long, err := s.score(ctx, symbols, s.long)
	if err != nil {
		return emptyComparison(), fmt.Errorf("%w: %s window: %v", ErrUnresolvableComparison, s.long.Label, err)
	}
	return Compare(short, long, s.topN), nil
}

func (s *Scanner) scanWindow(ctx context.Context, symbols []string, w Window) WindowResult {
	result := placeholder(w)

	scores, err := s.score(ctx, symbols, w)
	if err != nil {
		s.logger.WithError(err).WithField("window", w.Label).Warn("Window scan failed")
		result.Error = err.Error()
		return result
	}

	top, bottom := SplitTopBottom(scores, s.topN)
	result.TopPerformers = performers(top)
	result.BottomPerformers = performers(bottom)
	return result
}

func (s *Scanner) score(ctx context.Context, symbols []string, w Window) (momentum.Scores, error) {
	table, _, err := s.builder.Build(ctx, symbols, contracts.PeriodRequest(w.Period))
	if err != nil {
		return nil, fmt.Errorf("build %s price table: %w", w.Label, err)
	}

	scores := momentum.Cumulative(table)
	if len(scores) == 0 {
		return nil, errNoScores
	}
	return scores, nil
}
