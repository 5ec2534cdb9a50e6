package external

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/pkg/config"
	"github.com/wonny/momentum/pkg/logger"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		wantName string
		wantErr  bool
	}{
		{
			name:     "yahoo",
			cfg:      config.Config{Provider: config.ProviderYahoo, Yahoo: config.YahooConfig{BaseURL: "http://localhost", RateLimit: 2}},
			wantName: "yahoo",
		},
		{
			name:     "alpaca",
			cfg:      config.Config{Provider: config.ProviderAlpaca, Alpaca: config.AlpacaConfig{APIKey: "k", APISecret: "s"}},
			wantName: "alpaca",
		},
		{
			name:     "csv",
			cfg:      config.Config{Provider: config.ProviderCSV, CSV: config.CSVConfig{PricesPath: "csvfeed/testdata/prices.csv"}},
			wantName: "csv",
		},
		{
			name:    "csv missing file",
			cfg:     config.Config{Provider: config.ProviderCSV, CSV: config.CSVConfig{PricesPath: "nope.csv"}},
			wantErr: true,
		},
		{
			name:    "unknown",
			cfg:     config.Config{Provider: "bloomberg"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			p, err := NewProvider(context.Background(), &cfg, logger.Nop())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer p.Close()
			assert.Equal(t, tt.wantName, p.Name())
		})
	}
}

func TestNewProvider_CSVExposesFeed(t *testing.T) {
	cfg := &config.Config{Provider: config.ProviderCSV, CSV: config.CSVConfig{PricesPath: "csvfeed/testdata/prices.csv"}}
	p, err := NewProvider(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer p.Close()

	require.NotNil(t, p.Feed)
	assert.Nil(t, p.Repository)
}

func TestNewYahoo_RetriesTransientSymbolFailure(t *testing.T) {
	var tcsCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		symbol := strings.TrimPrefix(r.URL.Path, "/v8/finance/chart/")
		if symbol == "TCS.NS" && atomic.AddInt32(&tcsCalls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintf(w, `{"chart":{"result":[{"meta":{"symbol":%q,"gmtoffset":19800},
"timestamp":[1704167100],"indicators":{"quote":[{"close":[100]}],"adjclose":[{"adjclose":[99]}]}}],"error":null}}`, symbol)
	}))
	defer server.Close()

	cfg := &config.Config{
		Provider: config.ProviderYahoo,
		Yahoo:    config.YahooConfig{BaseURL: server.URL},
		Fetch:    config.FetchConfig{MaxRetries: 2, RetryDelay: time.Millisecond},
	}
	p, err := NewYahoo(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer p.Close()

	frame, err := p.FetchPrices(context.Background(), []string{"INFY.NS", "TCS.NS"}, contracts.PeriodRequest("5d"))
	require.NoError(t, err)

	assert.Equal(t, []string{"INFY.NS", "TCS.NS"}, frame.Symbols())
	assert.Equal(t, int32(2), atomic.LoadInt32(&tcsCalls))
}
