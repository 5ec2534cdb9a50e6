package commands

import (
	"context"
	"fmt"

	"github.com/wonny/momentum/internal/backtest"
	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/external"
	"github.com/wonny/momentum/internal/pricetable"
	"github.com/wonny/momentum/internal/scanner"
	"github.com/wonny/momentum/internal/strategyconfig"
	"github.com/wonny/momentum/internal/universe"
	"github.com/wonny/momentum/pkg/config"
	"github.com/wonny/momentum/pkg/httputil"
	"github.com/wonny/momentum/pkg/logger"
)

// app holds the wired dependencies shared by every command
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	strategy *strategyconfig.Config
	provider *external.Provider
	universe contracts.UniverseSource
	builder  *pricetable.Builder
}

// initApp loads env + strategy config and wires the configured provider
// ⭐ SSOT: 커맨드 공통 의존성 조립은 여기서만
func initApp(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if strategyFile != "" {
		cfg.StrategyFile = strategyFile
	}
	if universeFile != "" {
		cfg.UniverseFile = universeFile
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Load strategy
	strategy, err := strategyconfig.LoadOrDefault(cfg.StrategyFile)
	if err != nil {
		return nil, fmt.Errorf("load strategy: %w", err)
	}
	for _, w := range strategyconfig.Warn(strategy) {
		log.WithFields(map[string]interface{}{
			"code":    w.Code,
			"message": w.Message,
		}).Warn("Strategy warning")
	}

	// 4. Price provider
	provider, err := external.NewProvider(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("init provider: %w", err)
	}

	// 5. Universe + price table builder
	policy := pricetable.PolicyFromConfig(cfg.Fetch)
	policy.PriceFields = strategy.Fetch.PriceFields

	a := &app{
		cfg:      cfg,
		log:      log,
		strategy: strategy,
		provider: provider,
		universe: universe.FromFile(cfg.UniverseFile, httputil.New(cfg, log)),
		builder:  pricetable.NewBuilder(provider, policy, log),
	}

	log.WithFields(map[string]interface{}{
		"provider": provider.Name(),
		"strategy": strategy.Meta.StrategyID,
		"universe": cfg.UniverseFile,
	}).Debug("Dependencies initialized")

	return a, nil
}

// Close releases the provider's connections
func (a *app) Close() {
	a.provider.Close()
}

// scanner builds a scanner from the strategy's scanner section
func (a *app) scanner() *scanner.Scanner {
	return scanner.New(a.builder, a.log, scannerOptions(a.strategy)...)
}

func scannerOptions(strategy *strategyconfig.Config) []scanner.Option {
	windows := make([]scanner.Window, 0, len(strategy.Scanner.Windows))
	for _, w := range strategy.Scanner.Windows {
		windows = append(windows, scanner.Window{Label: w.Label, Period: w.Period})
	}

	opts := []scanner.Option{
		scanner.WithWindows(windows),
		scanner.WithTopN(strategy.Scanner.TopN),
	}

	short, okShort := strategy.Scanner.Window(strategy.Scanner.Comparison.Short)
	long, okLong := strategy.Scanner.Window(strategy.Scanner.Comparison.Long)
	if okShort && okLong {
		opts = append(opts, scanner.WithComparison(
			scanner.Window{Label: short.Label, Period: short.Period},
			scanner.Window{Label: long.Label, Period: long.Period},
		))
	}
	return opts
}

// backtestService builds the backtest service from the strategy's backtest section
func (a *app) backtestService() *backtest.Service {
	return backtest.NewService(backtest.NewEngine(a.builder, a.log), a.universe, backtestParameters(a.strategy), a.log)
}

func backtestParameters(strategy *strategyconfig.Config) backtest.Parameters {
	return backtest.Parameters{
		Lookback:   strategy.Backtest.LookbackDays,
		TopN:       strategy.Backtest.TopN,
		WarmupDays: strategy.Backtest.WarmupDays,
		Currency:   strategy.Backtest.Currency,

		InitialCapital: strategy.Backtest.InitialInvestment,
		RebalanceDays:  strategy.Backtest.RebalancePeriodDays,
	}
}
