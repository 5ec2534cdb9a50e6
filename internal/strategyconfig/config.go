package strategyconfig

// Config는 모멘텀 스캐너/백테스트 전략의 전체 설정
type Config struct {
	Meta     Meta     `yaml:"meta" json:"meta"`
	Scanner  Scanner  `yaml:"scanner" json:"scanner"`
	Backtest Backtest `yaml:"backtest" json:"backtest"`
	Fetch    Fetch    `yaml:"fetch" json:"fetch"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Window 스캔 구간 (label → provider period)
type Window struct {
	Label  string `yaml:"label" json:"label"`
	Period string `yaml:"period" json:"period"`
}

// Scanner 멀티 구간 스캔 설정
type Scanner struct {
	Windows    []Window   `yaml:"windows" json:"windows"`
	TopN       int        `yaml:"top_n" json:"top_n"`
	Comparison Comparison `yaml:"comparison" json:"comparison"`
}

// Comparison 단기/장기 top-N 비교 구간 (windows의 label 참조)
type Comparison struct {
	Short string `yaml:"short" json:"short"`
	Long  string `yaml:"long" json:"long"`
}

// Backtest 리밸런싱 백테스트 설정
type Backtest struct {
	LookbackDays        int     `yaml:"lookback_days" json:"lookback_days"`
	TopN                int     `yaml:"top_n" json:"top_n"`
	RebalancePeriodDays int     `yaml:"rebalance_period_days" json:"rebalance_period_days"`
	InitialInvestment   float64 `yaml:"initial_investment" json:"initial_investment"`
	WarmupDays          int     `yaml:"warmup_days" json:"warmup_days"`
	Currency            string  `yaml:"currency" json:"currency"`
}

// Fetch 가격 필드 우선순위
type Fetch struct {
	PriceFields []string `yaml:"price_fields" json:"price_fields"`
}

// Default returns the built-in strategy used when no file is configured
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "momentum_nifty100",
			Version:    "1",
		},
		Scanner: Scanner{
			Windows: []Window{
				{Label: "5d", Period: "5d"},
				{Label: "10d", Period: "10d"},
				{Label: "1mo", Period: "1mo"},
				{Label: "3mo", Period: "3mo"},
				{Label: "6mo", Period: "6mo"},
				{Label: "1y", Period: "1y"},
			},
			TopN: 10,
			Comparison: Comparison{
				Short: "5d",
				Long:  "3mo",
			},
		},
		Backtest: Backtest{
			LookbackDays:        20,
			TopN:                10,
			RebalancePeriodDays: 14,
			InitialInvestment:   500000,
			WarmupDays:          30,
			Currency:            "Rs",
		},
		Fetch: Fetch{
			PriceFields: []string{"Adj Close", "Close"},
		},
	}
}

// Window looks up a scan window by label
func (s Scanner) Window(label string) (Window, bool) {
	for _, w := range s.Windows {
		if w.Label == label {
			return w, true
		}
	}
	return Window{}, false
}
