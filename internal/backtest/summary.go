package backtest

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// DefaultCurrency prefixes formatted money values
const DefaultCurrency = "Rs"

// Summary is the human-formatted view of a run
type Summary struct {
	InitialInvestment    string `json:"Initial Investment"`
	FinalValue           string `json:"Final Value"`
	AbsoluteReturn       string `json:"Absolute Return"`
	ReturnPct            string `json:"Return (%)"`
	MaxDrawdownPct       string `json:"Max Drawdown (%)"`
	MeanPeriodReturnPct  string `json:"Mean Period Return (%)"`
	PeriodVolatilityPct  string `json:"Period Return Volatility (%)"`
	RebalancingFrequency string `json:"Rebalancing Frequency"`
	NumberOfRebalances   int    `json:"Number of Rebalances"`
}

// Summarize formats a result's metrics. Drawdown and the period-return
// statistics are taken over the post-rebalance portfolio values.
func Summarize(result *Result, currency string) Summary {
	if currency == "" {
		currency = DefaultCurrency
	}
	m := result.Metrics
	values := make([]float64, len(result.PortfolioValues))
	for i, p := range result.PortfolioValues {
		values[i] = p.Value
	}
	mean, vol := periodReturnStats(values)

	return Summary{
		InitialInvestment:    FormatMoney(currency, m.InitialInvestment),
		FinalValue:           FormatMoney(currency, m.FinalValue),
		AbsoluteReturn:       FormatMoney(currency, m.AbsoluteReturn),
		ReturnPct:            fmt.Sprintf("%.2f%%", m.TotalReturnPct),
		MaxDrawdownPct:       fmt.Sprintf("%.2f%%", MaxDrawdown(values)*100),
		MeanPeriodReturnPct:  fmt.Sprintf("%.2f%%", mean*100),
		PeriodVolatilityPct:  fmt.Sprintf("%.2f%%", vol*100),
		RebalancingFrequency: fmt.Sprintf("Every %d days", result.Config.RebalanceDays),
		NumberOfRebalances:   m.NumberOfRebalances,
	}
}

// MaxDrawdown is the largest fall of cumulative return (relative to the
// first value) below its running peak. Cumulative returns start at the
// second value, so the first period's change seeds the peak rather than
// counting as a drawdown.
func MaxDrawdown(values []float64) float64 {
	if len(values) < 2 || values[0] <= 0 {
		return 0
	}

	base := values[0]
	peak := values[1]/base - 1
	maxDrawdown := 0.0
	for _, v := range values[1:] {
		cumulative := v/base - 1
		if cumulative > peak {
			peak = cumulative
		}
		if dd := peak - cumulative; dd > maxDrawdown {
			maxDrawdown = dd
		}
	}
	return maxDrawdown
}

// periodReturnStats returns mean and sample standard deviation of the
// value-to-value returns
func periodReturnStats(values []float64) (mean, std float64) {
	returns := make([]float64, 0, len(values))
	for i := 1; i < len(values); i++ {
		if values[i-1] <= 0 {
			continue
		}
		returns = append(returns, values[i]/values[i-1]-1)
	}

	switch len(returns) {
	case 0:
		return 0, 0
	case 1:
		return returns[0], 0
	}
	mean, std = stat.MeanStdDev(returns, nil)
	if math.IsNaN(std) {
		std = 0
	}
	return mean, std
}

// FormatMoney renders v as "<currency> 1,234,567.89"
func FormatMoney(currency string, v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	intPart, frac := s[:len(s)-3], s[len(s)-2:]

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s %s%s.%s", currency, sign, b.String(), frac)
}
