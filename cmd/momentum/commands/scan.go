package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/momentum/internal/scanner"
	"github.com/wonny/momentum/internal/universe"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "멀티 구간 모멘텀 스캔",
	Long: `Universe 전체에 대해 구간별 top/bottom 종목과 단기/장기 비교를 계산합니다.

Example:
  go run ./cmd/momentum scan
  go run ./cmd/momentum scan --json
  go run ./cmd/momentum scan --symbols TCS.NS,INFY.NS,HDFCBANK.NS`,
	RunE: runScan,
}

var (
	scanSymbols string
	scanJSON    bool
)

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanSymbols, "symbols", "", "쉼표 구분 종목 목록 (기본: universe)")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "API와 동일한 JSON 출력")
}

func runScan(cmd *cobra.Command, args []string) error {
	a, err := initApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	symbols := universe.ParseList(scanSymbols)
	if len(symbols) == 0 {
		symbols, err = a.universe.Symbols(cmd.Context())
		if err != nil {
			return fmt.Errorf("load universe: %w", err)
		}
	}

	report := a.scanner().Scan(cmd.Context(), symbols)

	if scanJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printScanReport(report, len(symbols))
	}

	if report.Error != "" {
		return fmt.Errorf("scan failed: %s", report.Error)
	}
	return nil
}

func printScanReport(report *scanner.Report, universeSize int) {
	fmt.Println("=== Momentum Scan ===")
	fmt.Printf("Universe: %d symbols\n\n", universeSize)

	if report.Error != "" {
		PrintError(report.Error)
		return
	}

	for _, w := range report.Windows {
		PrintDoubleSeparator()
		fmt.Printf("  %s\n", w.Label)
		PrintSeparator()
		if w.Error != "" {
			PrintWarning(w.Error)
			continue
		}

		widths := []int{4, 16, 10, 4, 16, 10}
		PrintTableHeader([]string{"#", "Top", "Return", "#", "Bottom", "Return"}, widths)
		rows := len(w.TopPerformers)
		if len(w.BottomPerformers) > rows {
			rows = len(w.BottomPerformers)
		}
		for i := 0; i < rows; i++ {
			row := []string{"", "", "", "", "", ""}
			if i < len(w.TopPerformers) {
				p := w.TopPerformers[i]
				row[0], row[1], row[2] = fmt.Sprintf("%d", i+1), p.Symbol, fmt.Sprintf("%+.2f%%", p.ReturnPct)
			}
			if i < len(w.BottomPerformers) {
				p := w.BottomPerformers[i]
				row[3], row[4], row[5] = fmt.Sprintf("%d", i+1), p.Symbol, fmt.Sprintf("%+.2f%%", p.ReturnPct)
			}
			PrintTableRow(row, widths)
		}
		fmt.Println()
	}

	c := report.Comparison
	PrintDoubleSeparator()
	fmt.Println("  Short vs Long comparison")
	PrintSeparator()
	PrintKeyValue("Short top", strings.Join(c.ShortTop, ", "), 14)
	PrintKeyValue("Long top", strings.Join(c.LongTop, ", "), 14)
	PrintKeyValue("Entered top", strings.Join(c.EnteredTop, ", "), 14)
	PrintKeyValue("Dropped", strings.Join(c.DroppedFromTop, ", "), 14)
	fmt.Println()
}
