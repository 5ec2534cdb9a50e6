package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/scanner"
	"github.com/wonny/momentum/pkg/logger"
)

// DefaultScanSchedule runs after the NSE close on weekdays (with seconds)
const DefaultScanSchedule = "0 30 16 * * 1-5"

// ScanJob runs the momentum scan over the universe and keeps the last report
// ⭐ SSOT: 정기 모멘텀 스캔은 이 Job에서만
type ScanJob struct {
	scanner  *scanner.Scanner
	universe contracts.UniverseSource
	schedule string
	onReport func(*scanner.Report)
	logger   *logger.Logger

	mu   sync.RWMutex
	last *scanner.Report
}

// NewScanJob creates a new scan job. onReport may be nil.
func NewScanJob(s *scanner.Scanner, u contracts.UniverseSource, schedule string, onReport func(*scanner.Report), log *logger.Logger) *ScanJob {
	if schedule == "" {
		schedule = DefaultScanSchedule
	}
	return &ScanJob{
		scanner:  s,
		universe: u,
		schedule: schedule,
		onReport: onReport,
		logger:   log,
	}
}

// Name returns the job name
func (j *ScanJob) Name() string {
	return "momentum_scan"
}

// Schedule returns the cron schedule
func (j *ScanJob) Schedule() string {
	return j.schedule
}

// Run executes the scan. An aborted scan is an error so the scheduler retries it;
// single-window failures are not.
func (j *ScanJob) Run(ctx context.Context) error {
	symbols, err := j.universe.Symbols(ctx)
	if err != nil {
		return fmt.Errorf("load universe: %w", err)
	}

	report := j.scanner.Scan(ctx, symbols)

	j.mu.Lock()
	j.last = report
	j.mu.Unlock()

	if j.onReport != nil {
		j.onReport(report)
	}

	if report.Error != "" {
		return fmt.Errorf("momentum scan: %s", report.Error)
	}

	j.logger.WithFields(map[string]interface{}{
		"symbols": len(symbols),
		"entered": report.Comparison.EnteredTop,
		"dropped": report.Comparison.DroppedFromTop,
	}).Info("Scheduled momentum scan completed")
	return nil
}

// Last returns the most recent report, or nil
func (j *ScanJob) Last() *scanner.Report {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.last
}
