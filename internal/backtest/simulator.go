package backtest

import (
	"time"

	"github.com/wonny/momentum/internal/momentum"
	"github.com/wonny/momentum/internal/pricetable"
)

// Position is a holding bought at a rebalance
type Position struct {
	Symbol string  `json:"symbol"`
	Shares float64 `json:"shares"`
	Price  float64 `json:"price"` // price paid at the rebalance date
}

// RebalanceEvent is one rebalancing action. Events are append-only.
type RebalanceEvent struct {
	Date     time.Time  `json:"date"`
	Holdings []Position `json:"holdings"`
	Cash     float64    `json:"cash"`
	Value    float64    `json:"value"`    // holdings + cash right after the rebalance
	Selected []string   `json:"selected"` // ranked selection before price checks
	Skipped  []string   `json:"skipped,omitempty"`
}

// Shares returns holdings as symbol -> share count
func (e RebalanceEvent) Shares() map[string]float64 {
	out := make(map[string]float64, len(e.Holdings))
	for _, p := range e.Holdings {
		out[p.Symbol] = p.Shares
	}
	return out
}

// Simulator holds a cash + positions portfolio with fractional shares
// ⭐ SSOT: 백테스팅 포트폴리오 시뮬레이션은 여기서만
type Simulator struct {
	cash      float64
	positions []Position
}

// NewSimulator creates an empty simulator
func NewSimulator() *Simulator {
	return &Simulator{}
}

// Initialize resets the simulator to all cash
func (s *Simulator) Initialize(capital float64) {
	s.cash = capital
	s.positions = nil
}

// Cash returns uninvested cash
func (s *Simulator) Cash() float64 {
	return s.cash
}

// Value marks the portfolio to the prices at row.
// Positions without a price at row contribute nothing.
func (s *Simulator) Value(table *pricetable.Table, row int) float64 {
	value := s.cash
	for _, p := range s.positions {
		price := table.Price(p.Symbol, row)
		if pricetable.IsMissing(price) {
			continue
		}
		value += p.Shares * price
	}
	return value
}

// Rebalance liquidates everything at row and splits the proceeds equally
// across selected. Symbols without a positive price keep their share as cash.
func (s *Simulator) Rebalance(table *pricetable.Table, row int, selected momentum.Scores) RebalanceEvent {
	event := RebalanceEvent{
		Date:     table.Date(row),
		Selected: selected.Symbols(),
		Holdings: []Position{},
	}

	s.cash = s.Value(table, row)
	s.positions = nil

	if len(selected) > 0 {
		perSymbol := s.cash / float64(len(selected))
		for _, sc := range selected {
			price := table.Price(sc.Symbol, row)
			if pricetable.IsMissing(price) || price <= 0 {
				event.Skipped = append(event.Skipped, sc.Symbol)
				continue
			}
			shares := perSymbol / price
			s.positions = append(s.positions, Position{Symbol: sc.Symbol, Shares: shares, Price: price})
			s.cash -= shares * price
		}
	}

	event.Holdings = append(event.Holdings, s.positions...)
	event.Cash = s.cash
	event.Value = s.Value(table, row)
	return event
}
