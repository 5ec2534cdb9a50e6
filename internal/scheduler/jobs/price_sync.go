package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/pkg/logger"
)

// DefaultSyncSchedule runs before the scan (with seconds)
const DefaultSyncSchedule = "0 0 16 * * 1-5"

// FrameSaver stores provider frames (repos.PriceRepository)
type FrameSaver interface {
	SaveFrame(ctx context.Context, frame *contracts.RawFrame, flatSymbol string) (int, error)
}

// PriceSyncJob copies recent prices from a live provider into the store so
// the postgres provider can serve them
type PriceSyncJob struct {
	source    contracts.PriceProvider
	store     FrameSaver
	universe  contracts.UniverseSource
	period    string
	batchSize int
	schedule  string
	logger    *logger.Logger
}

// NewPriceSyncJob creates a new price sync job
func NewPriceSyncJob(source contracts.PriceProvider, store FrameSaver, u contracts.UniverseSource, period string, batchSize int, log *logger.Logger) *PriceSyncJob {
	if period == "" {
		period = "5d"
	}
	if batchSize <= 0 {
		batchSize = 5
	}
	return &PriceSyncJob{
		source:    source,
		store:     store,
		universe:  u,
		period:    period,
		batchSize: batchSize,
		schedule:  DefaultSyncSchedule,
		logger:    log,
	}
}

// Name returns the job name
func (j *PriceSyncJob) Name() string {
	return "price_sync"
}

// Schedule returns the cron schedule
func (j *PriceSyncJob) Schedule() string {
	return j.schedule
}

// Run downloads the trailing period batch by batch and upserts it.
// It fails only when no batch could be stored.
func (j *PriceSyncJob) Run(ctx context.Context) error {
	symbols, err := j.universe.Symbols(ctx)
	if err != nil {
		return fmt.Errorf("load universe: %w", err)
	}

	saved, failed := 0, 0
	var lastErr error
	for start := 0; start < len(symbols); start += j.batchSize {
		end := start + j.batchSize
		if end > len(symbols) {
			end = len(symbols)
		}
		batch := symbols[start:end]

		frame, err := j.source.FetchPrices(ctx, batch, contracts.PeriodRequest(j.period))
		if err == nil {
			var n int
			n, err = j.store.SaveFrame(ctx, frame, batch[0])
			saved += n
		}
		if err != nil {
			failed++
			lastErr = err
			j.logger.WithFields(map[string]interface{}{
				"symbols": batch,
				"error":   err.Error(),
			}).Warn("Price sync batch failed")
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"symbols":        len(symbols),
		"rows":           saved,
		"failed_batches": failed,
	}).Info("Price sync completed")

	if failed > 0 && saved == 0 {
		return fmt.Errorf("price sync: %w", lastErr)
	}
	return nil
}
