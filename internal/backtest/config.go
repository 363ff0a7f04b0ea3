package backtest

import (
	"fmt"

	"github.com/shopspring/decimal"

	engerrors "github.com/alejom99/cycletrader/internal/errors"
	"github.com/alejom99/cycletrader/internal/strategy"
	"github.com/alejom99/cycletrader/pkg/types"
)

// Config is the full parameter set for one run. Two runs with equal configs
// over the same feed must produce identical results.
type Config struct {
	Symbol    string
	Timeframe types.Timeframe
	StartMs   int64
	EndMs     int64

	InitialBalance decimal.Decimal
	Leverage       decimal.Decimal
	MakerFee       decimal.Decimal
	TakerFee       decimal.Decimal

	MaxNotional decimal.Decimal // per-order exposure cap, zero disables
	MaxDrawdown decimal.Decimal // halt threshold as fraction of peak, zero disables
	StopOnLoss  bool
	MaxLoss     decimal.Decimal // halt threshold as fraction of initial balance

	StrategyName   string
	StrategyParams strategy.Params

	GapToleranceBars int
}

// DefaultConfig returns the standard futures backtest parameters.
func DefaultConfig() Config {
	return Config{
		Timeframe:        types.Timeframe5m,
		InitialBalance:   decimal.NewFromInt(2500),
		Leverage:         decimal.NewFromInt(100),
		MakerFee:         decimal.NewFromFloat(0.0002),
		TakerFee:         decimal.NewFromFloat(0.0005),
		MaxNotional:      decimal.NewFromInt(50000),
		StopOnLoss:       true,
		MaxLoss:          decimal.NewFromFloat(0.5),
		GapToleranceBars: 2,
	}
}

// Validate rejects impossible parameter combinations before any candle is
// touched. All failures are configuration errors.
func (c Config) Validate() error {
	if c.Symbol == "" {
		return engerrors.NewConfigurationError("backtest", "validate", "symbol is required")
	}
	if !c.Timeframe.IsValid() {
		return engerrors.NewConfigurationError("backtest", "validate", fmt.Sprintf("unknown timeframe %q", c.Timeframe))
	}
	if c.StartMs >= c.EndMs {
		return engerrors.NewConfigurationError("backtest", "validate",
			fmt.Sprintf("start %d must be before end %d", c.StartMs, c.EndMs))
	}
	if c.InitialBalance.LessThanOrEqual(decimal.Zero) {
		return engerrors.NewConfigurationError("backtest", "validate", "initial balance must be positive")
	}
	if c.Leverage.LessThan(decimal.NewFromInt(1)) {
		return engerrors.NewConfigurationError("backtest", "validate", "leverage must be at least 1")
	}
	if c.MakerFee.IsNegative() || c.TakerFee.IsNegative() {
		return engerrors.NewConfigurationError("backtest", "validate", "fee rates cannot be negative")
	}
	if c.MaxNotional.IsNegative() {
		return engerrors.NewConfigurationError("backtest", "validate", "max notional cannot be negative")
	}
	if c.MaxDrawdown.IsNegative() || c.MaxDrawdown.GreaterThan(decimal.NewFromInt(1)) {
		return engerrors.NewConfigurationError("backtest", "validate", "max drawdown must be within [0, 1]")
	}
	if c.StopOnLoss {
		if c.MaxLoss.LessThanOrEqual(decimal.Zero) || c.MaxLoss.GreaterThan(decimal.NewFromInt(1)) {
			return engerrors.NewConfigurationError("backtest", "validate", "max loss must be within (0, 1] when stop on loss is enabled")
		}
	}
	if c.StrategyName == "" {
		return engerrors.NewConfigurationError("backtest", "validate", "strategy name is required")
	}
	return nil
}
