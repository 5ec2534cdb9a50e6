package yahoo

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/pkg/config"
	"github.com/wonny/momentum/pkg/httputil"
	"github.com/wonny/momentum/pkg/logger"
)

// 2024-01-02 / 2024-01-03 09:15 IST (UTC+5:30)
const (
	ts1 = 1704167100
	ts2 = 1704253500
)

func chartJSON(symbol string, closes, adj string) string {
	return fmt.Sprintf(`{"chart":{"result":[{"meta":{"symbol":%q,"currency":"INR","gmtoffset":19800},
"timestamp":[%d,%d],
"indicators":{"quote":[{"close":%s}],"adjclose":[{"adjclose":%s}]}}],"error":null}}`,
		symbol, ts1, ts2, closes, adj)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *[]string) {
	t.Helper()
	var (
		mu    sync.Mutex
		paths []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.String())
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	httpClient := httputil.New(&config.Config{}, logger.Nop()).DisableRetry()
	return NewClient(httpClient, server.URL, logger.Nop()), &paths
}

func TestFetchPrices_MultiSymbol(t *testing.T) {
	client, paths := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "INFY.NS"):
			w.Write([]byte(chartJSON("INFY.NS", "[100, 101]", "[99, 100.5]")))
		case strings.Contains(r.URL.Path, "TCS.NS"):
			w.Write([]byte(chartJSON("TCS.NS", "[200, null]", "[198, null]")))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
		}
	})

	frame, err := client.FetchPrices(context.Background(),
		[]string{"INFY.NS", "TCS.NS", "DELISTED.NS"}, contracts.PeriodRequest("5d"))
	require.NoError(t, err)

	require.Len(t, frame.Dates, 2)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), frame.Dates[0])
	assert.Equal(t, []string{"INFY.NS", "TCS.NS"}, frame.Symbols())

	adj, ok := frame.Column("INFY.NS", contracts.FieldAdjClose)
	require.True(t, ok)
	assert.Equal(t, []float64{99, 100.5}, adj)

	tcs, _ := frame.Column("TCS.NS", contracts.FieldClose)
	assert.Equal(t, 200.0, tcs[0])
	assert.True(t, math.IsNaN(tcs[1]))

	require.Len(t, *paths, 3)
	assert.Contains(t, (*paths)[0], "range=5d")
	assert.Contains(t, (*paths)[0], "interval=1d")
}

func TestFetchPrices_SingleSymbolIsFlat(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chartJSON("INFY.NS", "[100, 101]", "[99, 100]")))
	})

	frame, err := client.FetchPrices(context.Background(), []string{"INFY.NS"}, contracts.PeriodRequest("5d"))
	require.NoError(t, err)
	assert.True(t, frame.Flat())

	_, ok := frame.Column("", contracts.FieldAdjClose)
	assert.True(t, ok)
}

func TestFetchPrices_RangeRequestUsesUnixBounds(t *testing.T) {
	client, paths := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chartJSON("A", "[1, 2]", "[1, 2]")))
	})

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	_, err := client.FetchPrices(context.Background(), []string{"A"}, contracts.RangeRequest(start, end))
	require.NoError(t, err)

	require.Len(t, *paths, 1)
	assert.Contains(t, (*paths)[0], fmt.Sprintf("period1=%d", start.Unix()))
	// 종료일 포함: period2 = end + 1일
	assert.Contains(t, (*paths)[0], fmt.Sprintf("period2=%d", end.AddDate(0, 0, 1).Unix()))
}

func TestFetchPrices_AllSymbolsFail(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.FetchPrices(context.Background(), []string{"A", "B"}, contracts.PeriodRequest("1mo"))
	assert.Error(t, err)
}

func TestFetchPrices_ChartErrorPayload(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[],"error":{"code":"Bad Request","description":"Invalid input"}}}`))
	})

	_, err := client.FetchPrices(context.Background(), []string{"A"}, contracts.PeriodRequest("1mo"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid input")
}

func TestFetchPrices_NoSymbols(t *testing.T) {
	client, paths := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	frame, err := client.FetchPrices(context.Background(), nil, contracts.PeriodRequest("5d"))
	require.NoError(t, err)
	assert.True(t, frame.Empty())
	assert.Empty(t, *paths)
}
