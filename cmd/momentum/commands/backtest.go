package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/momentum/internal/backtest"
	"github.com/wonny/momentum/internal/universe"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "모멘텀 로테이션 백테스트",
	Long: `과거 가격으로 top-N 모멘텀 로테이션 전략을 시뮬레이션합니다.

매 리밸런싱 시점마다 lookback 수익률 상위 N개 종목을 동일 비중으로 보유합니다.

Example:
  go run ./cmd/momentum backtest run --from 2024-01-01 --to 2024-06-30
  go run ./cmd/momentum backtest run --capital 1000000 --rebalance 7
  go run ./cmd/momentum backtest run --symbols TCS.NS,INFY.NS --json`,
}

var (
	backtestRunCmd = &cobra.Command{
		Use:   "run",
		Short: "백테스트 실행",
		Long: `지정된 기간 동안 백테스트를 실행합니다.

Flags:
  --from          시작 날짜 (YYYY-MM-DD, 기본: 종료일 - 90일)
  --to            종료 날짜 (YYYY-MM-DD, 기본: 오늘)
  --capital       초기 자본 (기본: 전략 설정)
  --rebalance     리밸런싱 주기 (일, 기본: 전략 설정)
  --symbols       쉼표 구분 종목 (기본: universe)
  --json          API와 동일한 JSON 응답 출력
  --holdings-csv  보유 내역 CSV 저장 경로`,
		RunE: runBacktest,
	}

	// Flags
	backtestFrom        string
	backtestTo          string
	backtestCapital     float64
	backtestRebalance   int
	backtestSymbols     string
	backtestJSON        bool
	backtestHoldingsCSV string
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd)

	// Flags
	backtestRunCmd.Flags().StringVar(&backtestFrom, "from", "", "시작 날짜 (YYYY-MM-DD)")
	backtestRunCmd.Flags().StringVar(&backtestTo, "to", "", "종료 날짜 (YYYY-MM-DD, 기본: 오늘)")
	backtestRunCmd.Flags().Float64Var(&backtestCapital, "capital", 0, "초기 자본")
	backtestRunCmd.Flags().IntVar(&backtestRebalance, "rebalance", 0, "리밸런싱 주기 (일)")
	backtestRunCmd.Flags().StringVar(&backtestSymbols, "symbols", "", "쉼표 구분 종목 목록")
	backtestRunCmd.Flags().BoolVar(&backtestJSON, "json", false, "JSON 출력")
	backtestRunCmd.Flags().StringVar(&backtestHoldingsCSV, "holdings-csv", "", "보유 내역 CSV 경로")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	a, err := initApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	req := backtest.Request{
		Symbols:             universe.ParseList(backtestSymbols),
		StartDate:           backtestFrom,
		EndDate:             backtestTo,
		InitialInvestment:   backtestCapital,
		RebalancePeriodDays: backtestRebalance,
	}

	if !backtestJSON {
		fmt.Println("=== Momentum Rotation Backtest ===")
		fmt.Printf("\n📡 Provider: %s\n", a.provider.Name())
		fmt.Printf("🎯 Strategy: %s (lookback %d, top %d)\n",
			a.strategy.Meta.StrategyID, a.strategy.Backtest.LookbackDays, a.strategy.Backtest.TopN)
		fmt.Println("\n🚀 Starting backtest...")
	}

	resp, err := a.backtestService().Run(cmd.Context(), req, nil)
	if backtestJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(resp); encErr != nil {
			return encErr
		}
	} else if resp != nil {
		printBacktestResult(resp, a.strategy.Backtest.Currency)
	}
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	if backtestHoldingsCSV != "" {
		if err := writeHoldingsCSV(backtestHoldingsCSV, resp.HoldingsHistory); err != nil {
			return err
		}
		if !backtestJSON {
			PrintSuccess(fmt.Sprintf("Holdings written to %s", backtestHoldingsCSV))
		}
	}

	if resp.Error != "" {
		return fmt.Errorf("backtest failed: %s", resp.Error)
	}
	return nil
}

func writeHoldingsCSV(path string, history []backtest.HoldingsEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create holdings csv: %w", err)
	}
	defer f.Close()

	if err := backtest.WriteHoldingsCSV(f, history); err != nil {
		return fmt.Errorf("write holdings csv: %w", err)
	}
	return nil
}

func printBacktestResult(resp *backtest.Response, currency string) {
	if resp.Error != "" {
		fmt.Println()
		PrintError(resp.Error)
	} else {
		fmt.Println("\n✅ Backtest Completed")
	}
	PrintDoubleSeparator()
	fmt.Println()

	// Summary
	s := resp.Summary
	fmt.Println("📊 Summary")
	PrintKeyValue("Run ID", resp.RunID, 22)
	PrintKeyValue("State", string(resp.State), 22)
	PrintKeyValue("Rebalancing Frequency", s.RebalancingFrequency, 22)
	PrintKeyValue("Number of Rebalances", fmt.Sprintf("%d", s.NumberOfRebalances), 22)
	fmt.Println()

	// Performance
	fmt.Println("💰 Performance")
	PrintKeyValue("Initial Investment", s.InitialInvestment, 22)
	PrintKeyValue("Final Value", s.FinalValue, 22)
	PrintKeyValue("Absolute Return", s.AbsoluteReturn, 22)
	PrintKeyValue("Return", s.ReturnPct, 22)
	PrintKeyValue("Annualized Return", fmt.Sprintf("%.2f%%", resp.Result.AnnualizedReturnPct), 22)
	fmt.Println()

	// Risk
	fmt.Println("📉 Risk")
	PrintKeyValue("Max Drawdown", s.MaxDrawdownPct, 22)
	PrintKeyValue("Mean Period Return", s.MeanPeriodReturnPct, 22)
	PrintKeyValue("Period Volatility", s.PeriodVolatilityPct, 22)
	fmt.Println()

	// Portfolio values (last 10 rebalances)
	if len(resp.PortfolioValues) > 0 {
		fmt.Println("📈 Portfolio Value (Last 10 Rebalances)")
		startIdx := len(resp.PortfolioValues) - 10
		if startIdx < 0 {
			startIdx = 0
		}
		widths := []int{12, 16}
		PrintTableHeader([]string{"Date", "Value"}, widths)
		for _, p := range resp.PortfolioValues[startIdx:] {
			PrintTableRow([]string{p.Date, backtest.FormatMoney(currency, p.Value)}, widths)
		}
		fmt.Println()
	}

	// Latest holdings
	if n := len(resp.HoldingsHistory); n > 0 {
		last := resp.HoldingsHistory[n-1]
		fmt.Printf("💼 Holdings on %s\n", last.Date)
		widths := []int{16, 12, 12, 8}
		PrintTableHeader([]string{"Symbol", "Shares", "Value", "Weight"}, widths)
		for _, h := range last.Holdings {
			PrintTableRow([]string{
				h.Symbol,
				fmt.Sprintf("%.4f", h.Shares),
				fmt.Sprintf("%.2f", h.Value),
				fmt.Sprintf("%.2f%%", h.Percentage),
			}, widths)
		}
		fmt.Println()
	}
}
