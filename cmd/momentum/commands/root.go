package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
	universeFile string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "momentum",
	Short: "Momentum scanner & rotation backtester",
	Long: `Momentum CLI

멀티 구간 모멘텀 스캐너와 top-N 모멘텀 로테이션 백테스터.
가격 제공자는 PROVIDER 환경변수로 선택 (yahoo | alpaca | csv | postgres).

Usage:
  go run ./cmd/momentum [command]

Examples:
  go run ./cmd/momentum api
  go run ./cmd/momentum scan
  go run ./cmd/momentum backtest run --from 2024-01-01 --to 2024-06-30
  go run ./cmd/momentum scheduler start
  go run ./cmd/momentum universe`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML (default: STRATEGY_FILE or built-in)")
	rootCmd.PersistentFlags().StringVar(&universeFile, "universe", "", "universe CSV/HTML file or URL (default: UNIVERSE_FILE or NIFTY 100)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
