package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/pricetable"
	"github.com/wonny/momentum/internal/scanner"
	"github.com/wonny/momentum/internal/universe"
	"github.com/wonny/momentum/pkg/logger"
)

type stubProvider struct {
	err   error
	calls [][]string
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) FetchPrices(_ context.Context, symbols []string, _ contracts.FetchRequest) (*contracts.RawFrame, error) {
	p.calls = append(p.calls, symbols)
	if p.err != nil {
		return nil, p.err
	}
	a := contracts.NewFrameAssembler()
	for i, s := range symbols {
		a.Add(s, contracts.FieldAdjClose, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), 100)
		a.Add(s, contracts.FieldAdjClose, time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), 100+float64(i))
	}
	return a.Frame(len(symbols) == 1), nil
}

func newScanner(p contracts.PriceProvider) *scanner.Scanner {
	policy := pricetable.DefaultFetchPolicy()
	policy.MaxRetries = 0
	policy.RetryDelay = 0
	policy.BatchDelay = 0
	return scanner.New(pricetable.NewBuilder(p, policy, logger.Nop()), logger.Nop())
}

func TestScanJob(t *testing.T) {
	var delivered *scanner.Report
	job := NewScanJob(newScanner(&stubProvider{}), universe.NewStatic([]string{"A", "B", "C"}), "",
		func(r *scanner.Report) { delivered = r }, logger.Nop())

	assert.Equal(t, DefaultScanSchedule, job.Schedule())
	assert.Nil(t, job.Last())

	require.NoError(t, job.Run(context.Background()))
	require.NotNil(t, job.Last())
	assert.Same(t, job.Last(), delivered)
	assert.Empty(t, job.Last().Error)
}

func TestScanJob_AbortedScanIsError(t *testing.T) {
	job := NewScanJob(newScanner(&stubProvider{err: errors.New("timeout")}),
		universe.NewStatic([]string{"A", "B"}), "0 0 * * * *", nil, logger.Nop())

	err := job.Run(context.Background())
	require.Error(t, err)
	require.NotNil(t, job.Last())
	assert.NotEmpty(t, job.Last().Error)
}

type memorySaver struct {
	frames []*contracts.RawFrame
	flat   []string
	err    error
}

func (m *memorySaver) SaveFrame(_ context.Context, frame *contracts.RawFrame, flatSymbol string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.frames = append(m.frames, frame)
	m.flat = append(m.flat, flatSymbol)
	return len(frame.Dates), nil
}

func TestPriceSyncJob_Batches(t *testing.T) {
	source := &stubProvider{}
	saver := &memorySaver{}
	job := NewPriceSyncJob(source, saver, universe.NewStatic([]string{"A", "B", "C"}), "", 2, logger.Nop())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, [][]string{{"A", "B"}, {"C"}}, source.calls)
	require.Len(t, saver.frames, 2)
	assert.True(t, saver.frames[1].Flat())
	assert.Equal(t, "C", saver.flat[1])
}

func TestPriceSyncJob_AllFailed(t *testing.T) {
	job := NewPriceSyncJob(&stubProvider{}, &memorySaver{err: errors.New("db down")},
		universe.NewStatic([]string{"A"}), "5d", 5, logger.Nop())

	assert.Error(t, job.Run(context.Background()))
}
