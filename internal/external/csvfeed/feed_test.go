package csvfeed

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/pkg/logger"
)

func jan(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func openTestFeed(t *testing.T) *Feed {
	t.Helper()
	feed, err := Open("testdata/prices.csv", logger.Nop())
	require.NoError(t, err)
	return feed
}

func TestOpen(t *testing.T) {
	feed := openTestFeed(t)

	assert.Equal(t, jan(4), feed.LastDate())
	symbols, err := feed.Symbols(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"INFY.NS", "TCS.NS"}, symbols)
}

func TestFetchPrices_Range(t *testing.T) {
	feed := openTestFeed(t)

	frame, err := feed.FetchPrices(context.Background(), []string{"INFY.NS", "TCS.NS", "WIPRO.NS"},
		contracts.RangeRequest(jan(1), jan(4)))
	require.NoError(t, err)

	require.Equal(t, []time.Time{jan(2), jan(3), jan(4)}, frame.Dates)
	assert.Equal(t, []string{"INFY.NS", "TCS.NS"}, frame.Symbols())

	adj, _ := frame.Column("INFY.NS", contracts.FieldAdjClose)
	assert.Equal(t, 1490.0, adj[0])
	assert.True(t, math.IsNaN(adj[2]))

	tcs, _ := frame.Column("TCS.NS", contracts.FieldClose)
	assert.True(t, math.IsNaN(tcs[1]))
	assert.Equal(t, 3750.0, tcs[2])
}

func TestFetchPrices_PeriodAnchoredAtLastDate(t *testing.T) {
	feed := openTestFeed(t)

	// 2d: 마지막 두 거래일
	frame, err := feed.FetchPrices(context.Background(), []string{"TCS.NS"}, contracts.PeriodRequest("2d"))
	require.NoError(t, err)

	assert.True(t, frame.Flat())
	assert.Equal(t, []time.Time{jan(2), jan(4)}, frame.Dates)

	// 1개월 창에는 12-01 행도 포함
	frame, err = feed.FetchPrices(context.Background(), []string{"TCS.NS"}, contracts.PeriodRequest("1mo"))
	require.NoError(t, err)
	assert.Len(t, frame.Dates, 2)

	frame, err = feed.FetchPrices(context.Background(), []string{"TCS.NS"}, contracts.PeriodRequest("3mo"))
	require.NoError(t, err)
	assert.Len(t, frame.Dates, 3)
}

func TestFetchPrices_DayPeriodCountsTradingRows(t *testing.T) {
	feed := openTestFeed(t)

	frame, err := feed.FetchPrices(context.Background(), []string{"INFY.NS"}, contracts.PeriodRequest("2d"))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{jan(3), jan(4)}, frame.Dates)

	closes, ok := frame.Column("", contracts.FieldClose)
	require.True(t, ok)
	assert.Equal(t, []float64{1510, 1530}, closes)

	// 보유 행보다 긴 구간은 전부 반환
	frame, err = feed.FetchPrices(context.Background(), []string{"INFY.NS"}, contracts.PeriodRequest("10d"))
	require.NoError(t, err)
	assert.Len(t, frame.Dates, 3)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad date", "date,symbol,close,adj_close\n01/02/2024,A,1,1\n"},
		{"bad number", "date,symbol,close,adj_close\n2024-01-02,A,abc,1\n"},
		{"empty symbol", "date,symbol,close,adj_close\n2024-01-02,,1,1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.body), logger.Nop())
			assert.Error(t, err)
		})
	}
}

func TestFetchPrices_InvalidRange(t *testing.T) {
	feed := openTestFeed(t)

	_, err := feed.FetchPrices(context.Background(), []string{"TCS.NS"}, contracts.RangeRequest(jan(4), jan(1)))
	assert.Error(t, err)
}
