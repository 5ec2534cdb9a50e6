package strategyconfig

import (
	"fmt"
	"regexp"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

var periodPattern = regexp.MustCompile(`^[1-9][0-9]*(d|wk|mo|y)$`)

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Scanner ===
	if len(cfg.Scanner.Windows) == 0 {
		return ValidationError{"scanner.windows", "at least one window required"}
	}
	seen := make(map[string]bool)
	for i, w := range cfg.Scanner.Windows {
		field := fmt.Sprintf("scanner.windows[%d]", i)
		if w.Label == "" {
			return ValidationError{field + ".label", "required"}
		}
		if w.Label == "comparison" || w.Label == "error" {
			return ValidationError{field + ".label", "reserved label"}
		}
		if seen[w.Label] {
			return ValidationError{field + ".label", "duplicate label " + w.Label}
		}
		seen[w.Label] = true
		if !periodPattern.MatchString(w.Period) {
			return ValidationError{field + ".period", fmt.Sprintf("unsupported period %q", w.Period)}
		}
	}
	if cfg.Scanner.TopN <= 0 {
		return ValidationError{"scanner.top_n", "must be > 0"}
	}
	if _, ok := cfg.Scanner.Window(cfg.Scanner.Comparison.Short); !ok {
		return ValidationError{"scanner.comparison.short", "must reference a window label"}
	}
	if _, ok := cfg.Scanner.Window(cfg.Scanner.Comparison.Long); !ok {
		return ValidationError{"scanner.comparison.long", "must reference a window label"}
	}

	// === Backtest ===
	if cfg.Backtest.LookbackDays < 2 {
		return ValidationError{"backtest.lookback_days", "must be >= 2"}
	}
	if cfg.Backtest.TopN <= 0 {
		return ValidationError{"backtest.top_n", "must be > 0"}
	}
	if cfg.Backtest.RebalancePeriodDays <= 0 {
		return ValidationError{"backtest.rebalance_period_days", "must be > 0"}
	}
	if cfg.Backtest.InitialInvestment <= 0 {
		return ValidationError{"backtest.initial_investment", "must be > 0"}
	}
	if cfg.Backtest.WarmupDays < 0 {
		return ValidationError{"backtest.warmup_days", "must be >= 0"}
	}

	// === Fetch ===
	if len(cfg.Fetch.PriceFields) == 0 {
		return ValidationError{"fetch.price_fields", "at least one field required"}
	}

	return nil
}

// Warn returns non-fatal recommendations
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 워밍업이 lookback(거래일)을 못 덮으면 초반 리밸런싱은 짧은 이력으로 계산됨
	if cfg.Backtest.WarmupDays*5/7 < cfg.Backtest.LookbackDays {
		warnings = append(warnings, Warning{
			Code:    "SHORT_WARMUP",
			Message: fmt.Sprintf("warmup_days=%d may not cover lookback_days=%d trading days", cfg.Backtest.WarmupDays, cfg.Backtest.LookbackDays),
		})
	}

	if cfg.Scanner.Comparison.Short == cfg.Scanner.Comparison.Long {
		warnings = append(warnings, Warning{
			Code:    "SAME_COMPARISON_WINDOW",
			Message: "comparison short and long windows are identical",
		})
	}

	if cfg.Backtest.TopN > 20 {
		warnings = append(warnings, Warning{
			Code:    "WIDE_PORTFOLIO",
			Message: fmt.Sprintf("top_n=%d dilutes the momentum signal", cfg.Backtest.TopN),
		})
	}

	return warnings
}
