package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/alejom99/cycletrader/internal/indicators"
	"github.com/alejom99/cycletrader/pkg/types"
)

// RSIReversion buys oversold conditions and exits when the oscillator
// recovers past the overbought level. Long-only, one position at a time.
type RSIReversion struct {
	rsi        *indicators.RSI
	quantity   decimal.Decimal
	oversold   float64
	overbought float64
	period     int
}

// NewRSIReversion creates the mean-reversion strategy with the usual 30/70
// style thresholds.
func NewRSIReversion(period int, oversold, overbought float64, quantity decimal.Decimal) *RSIReversion {
	return &RSIReversion{
		rsi:        indicators.NewRSI(period),
		quantity:   quantity,
		oversold:   oversold,
		overbought: overbought,
		period:     period,
	}
}

// GetName returns the strategy name.
func (s *RSIReversion) GetName() string {
	return "rsi_reversion"
}

// WarmupPeriod returns the RSI period plus one bar of changes.
func (s *RSIReversion) WarmupPeriod() int {
	return s.period + 1
}

// OnCandle enters on RSI below the oversold level and exits on RSI above the
// overbought level.
func (s *RSIReversion) OnCandle(history []types.Candle, snapshot types.AccountSnapshot) []types.OrderRequest {
	value, err := s.rsi.Calculate(extractCloses(history))
	if err != nil {
		return nil
	}

	symbol := history[len(history)-1].Symbol

	if value < s.oversold && snapshot.PositionQty.IsZero() {
		return []types.OrderRequest{{
			Symbol:   symbol,
			Side:     types.Buy,
			Type:     types.Market,
			Quantity: s.quantity,
		}}
	}

	if value > s.overbought && snapshot.PositionQty.IsPositive() {
		return []types.OrderRequest{{
			Symbol:   symbol,
			Side:     types.Sell,
			Type:     types.Market,
			Quantity: snapshot.PositionQty,
		}}
	}

	return nil
}
