package strategy

import (
	"github.com/alejom99/cycletrader/pkg/types"
)

// Strategy produces order intents from market data. Implementations must be
// deterministic: the same candle history and account snapshot always yield
// the same requests, with no wall-clock or random input.
type Strategy interface {
	// OnCandle is called once per closed candle with the full history up to
	// and including it. Returned requests are submitted in slice order.
	OnCandle(history []types.Candle, snapshot types.AccountSnapshot) []types.OrderRequest

	// WarmupPeriod returns how many candles the strategy needs before it can
	// emit its first request. OnCandle is still called during warm-up.
	WarmupPeriod() int

	// GetName returns a human-readable strategy name.
	GetName() string
}

// Params carries the per-strategy tuning knobs from configuration. Fields not
// used by a given strategy are ignored.
type Params struct {
	OrderQuantity string // decimal string, base asset units

	FastPeriod int // sma_cross
	SlowPeriod int // sma_cross

	RSIPeriod     int     // rsi_reversion
	OversoldLevel float64 // rsi_reversion
	OverboughtLvl float64 // rsi_reversion
}
