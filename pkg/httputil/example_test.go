package httputil_test

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/momentum/pkg/config"
	"github.com/wonny/momentum/pkg/httputil"
	"github.com/wonny/momentum/pkg/logger"
)

// Example_chart fetches a Yahoo chart document with a paced, retrying client
func Example_chart() {
	cfg := &config.Config{
		Env:      "production",
		LogLevel: "info",
		Fetch:    config.FetchConfig{Timeout: 30 * time.Second},
	}
	log := logger.New(cfg)

	// 초당 2회, 5xx/429는 최대 3회 재시도
	client := httputil.New(cfg, log).
		WithRetry(3, 2*time.Second).
		WithLocalLimit(2)

	var doc map[string]interface{}
	err := client.GetJSON(context.Background(), "https://query1.finance.yahoo.com/v8/finance/chart/TCS.NS?range=5d&interval=1d", &doc)
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		return
	}
	fmt.Printf("chart keys: %d\n", len(doc))
}
