package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"

	engerrors "github.com/alejom99/cycletrader/internal/errors"
)

// NewStrategy builds a strategy by name from its parameters. Unknown names
// and invalid parameter combinations are configuration errors.
func NewStrategy(name string, params Params) (Strategy, error) {
	quantity, err := decimal.NewFromString(params.OrderQuantity)
	if err != nil || quantity.LessThanOrEqual(decimal.Zero) {
		return nil, engerrors.NewConfigurationError("strategy", "new_strategy",
			fmt.Sprintf("order quantity must be a positive decimal, got %q", params.OrderQuantity))
	}

	switch name {
	case "sma_cross":
		if params.FastPeriod <= 0 || params.SlowPeriod <= 0 {
			return nil, engerrors.NewConfigurationError("strategy", "new_strategy", "sma_cross periods must be positive")
		}
		if params.FastPeriod >= params.SlowPeriod {
			return nil, engerrors.NewConfigurationError("strategy", "new_strategy",
				fmt.Sprintf("sma_cross fast period %d must be below slow period %d", params.FastPeriod, params.SlowPeriod))
		}
		return NewSMACross(params.FastPeriod, params.SlowPeriod, quantity), nil

	case "rsi_reversion":
		if params.RSIPeriod <= 0 {
			return nil, engerrors.NewConfigurationError("strategy", "new_strategy", "rsi_reversion period must be positive")
		}
		if params.OversoldLevel >= params.OverboughtLvl {
			return nil, engerrors.NewConfigurationError("strategy", "new_strategy",
				fmt.Sprintf("rsi_reversion oversold %.1f must be below overbought %.1f", params.OversoldLevel, params.OverboughtLvl))
		}
		return NewRSIReversion(params.RSIPeriod, params.OversoldLevel, params.OverboughtLvl, quantity), nil

	default:
		return nil, engerrors.NewConfigurationError("strategy", "new_strategy", fmt.Sprintf("unknown strategy %q", name))
	}
}
