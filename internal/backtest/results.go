package backtest

import (
	"github.com/shopspring/decimal"

	"github.com/alejom99/cycletrader/internal/cycle"
	"github.com/alejom99/cycletrader/internal/risk"
	"github.com/alejom99/cycletrader/pkg/types"
)

// EquityPoint is one mark-to-market observation, recorded once per candle
// after all fills for that candle settled.
type EquityPoint struct {
	Timestamp int64
	Equity    decimal.Decimal
	Balance   decimal.Decimal
	Exposure  decimal.Decimal
}

// CycleStats summarizes the closed cycles of a run.
type CycleStats struct {
	Completed   int
	Winning     int
	Losing      int
	Forced      int
	AvgDuration float64 // minutes
	AvgPnL      decimal.Decimal
	BestPnL     decimal.Decimal
	WorstPnL    decimal.Decimal
}

// Results is the complete outcome of one run. A halted run is still a valid
// result; StopReason records why it ended early.
type Results struct {
	RunID  string // unique per execution, never derived from the config
	Config Config

	InitialBalance  decimal.Decimal
	FinalBalance    decimal.Decimal
	FinalEquity     decimal.Decimal
	RealizedPnL     decimal.Decimal
	UnrealizedAtEnd decimal.Decimal
	TotalFees       decimal.Decimal

	TotalReturnPct float64
	WinRate        float64
	ProfitFactor   float64 // +Inf when profitable with no losing cycle
	MaxDrawdown    float64 // fraction of peak equity
	SharpeRatio    float64 // daily resampled, annualized by sqrt(365)
	CalmarRatio    float64

	Trades      []types.Trade
	Cycles      []cycle.Cycle
	EquityCurve []EquityPoint
	CycleStats  CycleStats

	OrdersPlaced    int
	OrdersRejected  int
	CandlesTotal    int
	CandlesConsumed int

	StopReason risk.StopReason
	Liquidated bool
	Warnings   []string
}

// Halted reports whether the run ended before the feed was exhausted.
func (r *Results) Halted() bool {
	return r.StopReason != risk.StopNone
}
