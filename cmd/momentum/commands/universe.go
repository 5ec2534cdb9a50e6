package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// universeCmd represents the universe command
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "Universe 조회",
	Long: `현재 설정된 universe (UNIVERSE_FILE 또는 내장 NIFTY 100)를 출력합니다.

Example:
  go run ./cmd/momentum universe
  go run ./cmd/momentum universe --universe ind_nifty100list.csv`,
	RunE: runUniverse,
}

func init() {
	rootCmd.AddCommand(universeCmd)
}

func runUniverse(cmd *cobra.Command, args []string) error {
	a, err := initApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	symbols, err := a.universe.Symbols(cmd.Context())
	if err != nil {
		return fmt.Errorf("load universe: %w", err)
	}

	fmt.Printf("Universe: %d symbols\n", len(symbols))
	PrintNumberedList(symbols)
	return nil
}
