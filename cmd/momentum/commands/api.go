package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/momentum/internal/api"
	"github.com/wonny/momentum/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST/WebSocket API 서버를 시작합니다.

Endpoints:
  GET  /health          - Health check
  POST /api/backtest    - 모멘텀 로테이션 백테스트
  GET  /api/momentum    - 멀티 구간 모멘텀 스캔
  GET  /api/universe    - Universe 조회
  GET  /ws/backtest     - 리밸런싱 이벤트 스트리밍

Example:
  go run ./cmd/momentum api
  go run ./cmd/momentum api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Momentum API Server ===")

	a, err := initApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	service := a.backtestService()
	router := api.NewRouter(api.Handlers{
		Backtest: handlers.NewBacktestHandler(service, a.log),
		Momentum: handlers.NewMomentumHandler(a.scanner(), a.universe, a.log),
		Universe: handlers.NewUniverseHandler(a.universe, a.log),
		Stream:   handlers.NewStreamHandler(service, a.log),
		Provider: a.provider.Name(),
	}, a.log)

	server := api.New(a.cfg, a.log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s (provider: %s)\n", a.cfg.Port, a.provider.Name())
	fmt.Println("\nAvailable endpoints:")
	PrintList([]string{
		"GET  /health",
		"POST /api/backtest",
		"GET  /api/momentum",
		"GET  /api/universe",
		"GET  /ws/backtest",
	})
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	a.log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
