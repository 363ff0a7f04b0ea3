package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/alejom99/cycletrader/internal/indicators"
	"github.com/alejom99/cycletrader/pkg/types"
)

// SMACross trades moving-average crossovers: long when the fast average
// crosses above the slow one, flat when it crosses back below. It holds at
// most one position and sizes every entry at a fixed quantity.
type SMACross struct {
	fast     *indicators.SMA
	slow     *indicators.SMA
	quantity decimal.Decimal

	slowPeriod int
	wasAbove   bool
	primed     bool
}

// NewSMACross creates the crossover strategy. fastPeriod must be strictly
// smaller than slowPeriod.
func NewSMACross(fastPeriod, slowPeriod int, quantity decimal.Decimal) *SMACross {
	return &SMACross{
		fast:       indicators.NewSMA(fastPeriod),
		slow:       indicators.NewSMA(slowPeriod),
		quantity:   quantity,
		slowPeriod: slowPeriod,
	}
}

// GetName returns the strategy name.
func (s *SMACross) GetName() string {
	return "sma_cross"
}

// WarmupPeriod returns the slow period plus one bar for cross detection.
func (s *SMACross) WarmupPeriod() int {
	return s.slowPeriod + 1
}

// OnCandle emits a market buy on an upward cross and a market sell of the
// held quantity on a downward cross. The first evaluated bar only records
// which side the averages are on.
func (s *SMACross) OnCandle(history []types.Candle, snapshot types.AccountSnapshot) []types.OrderRequest {
	closes := extractCloses(history)

	fast, err := s.fast.Calculate(closes)
	if err != nil {
		return nil
	}
	slow, err := s.slow.Calculate(closes)
	if err != nil {
		return nil
	}

	above := fast > slow
	if !s.primed {
		s.primed = true
		s.wasAbove = above
		return nil
	}

	crossedUp := above && !s.wasAbove
	crossedDown := !above && s.wasAbove
	s.wasAbove = above

	symbol := history[len(history)-1].Symbol

	if crossedUp && snapshot.PositionQty.IsZero() {
		return []types.OrderRequest{{
			Symbol:   symbol,
			Side:     types.Buy,
			Type:     types.Market,
			Quantity: s.quantity,
		}}
	}

	if crossedDown && snapshot.PositionQty.IsPositive() {
		return []types.OrderRequest{{
			Symbol:   symbol,
			Side:     types.Sell,
			Type:     types.Market,
			Quantity: snapshot.PositionQty,
		}}
	}

	return nil
}

// extractCloses converts candle closes to float64 for indicator math. Money
// stays decimal everywhere; indicators are analytics only.
func extractCloses(history []types.Candle) []float64 {
	closes := make([]float64, len(history))
	for i, c := range history {
		closes[i], _ = c.Close.Float64()
	}
	return closes
}
