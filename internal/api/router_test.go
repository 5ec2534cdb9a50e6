package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/momentum/internal/api/handlers"
	"github.com/wonny/momentum/internal/backtest"
	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/pricetable"
	"github.com/wonny/momentum/internal/scanner"
	"github.com/wonny/momentum/internal/universe"
	"github.com/wonny/momentum/pkg/logger"
)

// trendProvider serves 120 daily bars from 2024-01-01 regardless of request
type trendProvider struct{}

func (trendProvider) Name() string { return "trend" }

func (trendProvider) FetchPrices(_ context.Context, symbols []string, _ contracts.FetchRequest) (*contracts.RawFrame, error) {
	a := contracts.NewFrameAssembler()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for s, sym := range symbols {
		for i := 0; i < 120; i++ {
			a.Add(sym, contracts.FieldAdjClose, start.AddDate(0, 0, i), 100+float64(i*(s+1)))
		}
	}
	return a.Frame(len(symbols) == 1), nil
}

func newTestRouter() http.Handler {
	log := logger.Nop()
	policy := pricetable.DefaultFetchPolicy()
	policy.RetryDelay = 0
	policy.BatchDelay = 0
	builder := pricetable.NewBuilder(trendProvider{}, policy, log)
	u := universe.NewStatic([]string{"A", "B", "C"})

	service := backtest.NewService(backtest.NewEngine(builder, log), u, backtest.DefaultParameters(), log)
	return NewRouter(Handlers{
		Backtest: handlers.NewBacktestHandler(service, log),
		Momentum: handlers.NewMomentumHandler(scanner.New(builder, log), u, log),
		Universe: handlers.NewUniverseHandler(u, log),
		Stream:   handlers.NewStreamHandler(service, log),
		Provider: "trend",
	}, log)
}

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := serve(newTestRouter(), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "trend", body["provider"])
}

func TestUniverseEndpoint(t *testing.T) {
	rec := serve(newTestRouter(), http.MethodGet, "/api/universe", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body handlers.UniverseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Count)
	assert.Equal(t, []string{"A", "B", "C"}, body.Symbols)
}

func TestMomentumEndpoint(t *testing.T) {
	rec := serve(newTestRouter(), http.MethodGet, "/api/momentum?symbols=a,b", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "comparison")
	assert.Contains(t, body, "5d")
	assert.Contains(t, body, "1y")
	assert.NotContains(t, body, "error")

	var window struct {
		Top    scanner.Performers `json:"top_performers"`
		Bottom map[string]float64 `json:"bottom_performers"`
	}
	require.NoError(t, json.Unmarshal(body["5d"], &window))
	require.NotEmpty(t, window.Top)
	// B는 A보다 두 배 기울기
	assert.Equal(t, "B", window.Top[0].Symbol)
}

func TestBacktestEndpoint(t *testing.T) {
	body := `{"start_date":"2024-02-15","end_date":"2024-04-15","initial_investment":100000,"rebalance_period_days":14}`
	rec := serve(newTestRouter(), http.MethodPost, "/api/backtest", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp backtest.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, backtest.StateCompleted, resp.State)
	assert.Empty(t, resp.Error)
	assert.NotEmpty(t, resp.RebalanceDates)
	assert.NotEmpty(t, resp.HoldingsHistory)
	assert.Equal(t, 100000.0, resp.Result.InitialInvestment)
	assert.Greater(t, resp.Result.FinalValue, 100000.0)
}

func TestBacktestEndpoint_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"start_date":`},
		{"start after end", `{"start_date":"2024-04-15","end_date":"2024-02-15"}`},
		{"bad date", `{"start_date":"15/02/2024"}`},
		{"negative capital", `{"initial_investment":-5}`},
	}

	router := newTestRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, http.MethodPost, "/api/backtest", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		method, target string
		want           int
	}{
		{http.MethodGet, "/api/backtest", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/momentum", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/api/universe", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := serve(router, tt.method, tt.target, "")
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestBacktestStream(t *testing.T) {
	server := httptest.NewServer(newTestRouter())
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") +
		"/ws/backtest?symbols=A,B,C&start_date=2024-02-15&end_date=2024-04-15&rebalance_period_days=14"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	rebalances := 0
	var final struct {
		Type    string            `json:"type"`
		Payload backtest.Response `json:"payload"`
	}
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg.Type == handlers.MessageRebalance {
			rebalances++
			continue
		}
		require.NoError(t, json.Unmarshal(data, &final))
		break
	}

	assert.Equal(t, handlers.MessageResult, final.Type)
	assert.Equal(t, backtest.StateCompleted, final.Payload.State)
	assert.Equal(t, len(final.Payload.HoldingsHistory), rebalances)

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
