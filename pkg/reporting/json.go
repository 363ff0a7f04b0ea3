package reporting

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/alejom99/cycletrader/internal/backtest"
)

// JSONReporter writes a machine-readable run summary. Money fields are
// decimal strings; the trade and cycle ledgers are included in full.
type JSONReporter struct {
	path string
}

// NewJSONReporter creates a reporter writing to the given path.
func NewJSONReporter(path string) *JSONReporter {
	return &JSONReporter{path: path}
}

type jsonSummary struct {
	RunID           string  `json:"run_id"`
	Symbol          string  `json:"symbol"`
	Timeframe       string  `json:"timeframe"`
	Strategy        string  `json:"strategy"`
	InitialBalance  string  `json:"initial_balance"`
	FinalBalance    string  `json:"final_balance"`
	FinalEquity     string  `json:"final_equity"`
	RealizedPnL     string  `json:"realized_pnl"`
	UnrealizedAtEnd string  `json:"unrealized_at_end"`
	TotalFees       string  `json:"total_fees"`
	TotalReturnPct  float64 `json:"total_return_pct"`
	WinRate         float64 `json:"win_rate"`
	ProfitFactor    string  `json:"profit_factor"` // "inf" sentinel survives JSON
	MaxDrawdown     float64 `json:"max_drawdown"`
	SharpeRatio     float64 `json:"sharpe_ratio"`
	CalmarRatio     float64 `json:"calmar_ratio"`
	TradeCount      int     `json:"trade_count"`
	CycleCount      int     `json:"cycle_count"`
	WinningCycles   int     `json:"winning_cycles"`
	LosingCycles    int     `json:"losing_cycles"`
	ForcedCycles    int     `json:"forced_cycles"`
	OrdersPlaced    int     `json:"orders_placed"`
	OrdersRejected  int     `json:"orders_rejected"`
	CandlesConsumed int     `json:"candles_consumed"`
	StopReason      string  `json:"stop_reason,omitempty"`
	Liquidated      bool    `json:"liquidated"`

	Trades   []jsonTrade `json:"trades"`
	Cycles   []jsonCycle `json:"cycles"`
	Warnings []string    `json:"warnings,omitempty"`
}

type jsonTrade struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	Side             string `json:"side"`
	Price            string `json:"price"`
	Quantity         string `json:"quantity"`
	Fee              string `json:"fee"`
	Timestamp        int64  `json:"timestamp"`
	RealizedPnLDelta string `json:"realized_pnl_delta"`
}

type jsonCycle struct {
	ID          string  `json:"id"`
	Side        string  `json:"side"`
	OpenedAt    int64   `json:"opened_at"`
	ClosedAt    int64   `json:"closed_at"`
	DurationMin float64 `json:"duration_min"`
	TradeCount  int     `json:"trade_count"`
	RealizedPnL string  `json:"realized_pnl"`
	Forced      bool    `json:"forced"`
}

// OutputResults writes the summary JSON.
func (r *JSONReporter) OutputResults(results *backtest.Results) error {
	if err := ensureDir(r.path); err != nil {
		return err
	}

	summary := jsonSummary{
		RunID:           results.RunID,
		Symbol:          results.Config.Symbol,
		Timeframe:       string(results.Config.Timeframe),
		Strategy:        results.Config.StrategyName,
		InitialBalance:  results.InitialBalance.String(),
		FinalBalance:    results.FinalBalance.String(),
		FinalEquity:     results.FinalEquity.String(),
		RealizedPnL:     results.RealizedPnL.String(),
		UnrealizedAtEnd: results.UnrealizedAtEnd.String(),
		TotalFees:       results.TotalFees.String(),
		TotalReturnPct:  results.TotalReturnPct,
		WinRate:         results.WinRate,
		ProfitFactor:    formatRatio(results.ProfitFactor),
		MaxDrawdown:     results.MaxDrawdown,
		SharpeRatio:     results.SharpeRatio,
		CalmarRatio:     results.CalmarRatio,
		TradeCount:      len(results.Trades),
		CycleCount:      len(results.Cycles),
		WinningCycles:   results.CycleStats.Winning,
		LosingCycles:    results.CycleStats.Losing,
		ForcedCycles:    results.CycleStats.Forced,
		OrdersPlaced:    results.OrdersPlaced,
		OrdersRejected:  results.OrdersRejected,
		CandlesConsumed: results.CandlesConsumed,
		StopReason:      string(results.StopReason),
		Liquidated:      results.Liquidated,
		Warnings:        results.Warnings,
	}

	for _, t := range results.Trades {
		summary.Trades = append(summary.Trades, jsonTrade{
			ID:               t.ID,
			OrderID:          t.OrderID,
			Side:             string(t.Side),
			Price:            t.Price.String(),
			Quantity:         t.Quantity.String(),
			Fee:              t.Fee.String(),
			Timestamp:        t.Timestamp,
			RealizedPnLDelta: t.RealizedPnLDelta.String(),
		})
	}
	for _, c := range results.Cycles {
		summary.Cycles = append(summary.Cycles, jsonCycle{
			ID:          c.ID,
			Side:        string(c.Side),
			OpenedAt:    c.OpenedAt,
			ClosedAt:    c.ClosedAt,
			DurationMin: c.Duration(),
			TradeCount:  len(c.Trades),
			RealizedPnL: c.RealizedPnL.String(),
			Forced:      c.Forced,
		})
	}

	raw, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	return os.WriteFile(r.path, raw, 0644)
}
