package reporting

import (
	"fmt"
	"math"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/alejom99/cycletrader/internal/backtest"
)

// ConsoleReporter prints a run summary to stdout.
type ConsoleReporter struct{}

// NewConsoleReporter creates a new console reporter.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{}
}

// OutputResults renders the summary, cycle statistics and any warnings.
func (r *ConsoleReporter) OutputResults(results *backtest.Results) error {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(fmt.Sprintf("Backtest %s %s (%s)", results.Config.Symbol, results.Config.Timeframe, shortID(results.RunID)))

	t.AppendRow(table.Row{"Initial Balance", "$" + results.InitialBalance.StringFixed(2)})
	t.AppendRow(table.Row{"Final Balance", "$" + results.FinalBalance.StringFixed(2)})
	t.AppendRow(table.Row{"Final Equity", "$" + results.FinalEquity.StringFixed(2)})
	t.AppendRow(table.Row{"Realized PnL", "$" + results.RealizedPnL.StringFixed(2)})
	t.AppendRow(table.Row{"Unrealized At End", "$" + results.UnrealizedAtEnd.StringFixed(2)})
	t.AppendRow(table.Row{"Total Fees", "$" + results.TotalFees.StringFixed(2)})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Total Return", fmt.Sprintf("%.2f%%", results.TotalReturnPct)})
	t.AppendRow(table.Row{"Win Rate", fmt.Sprintf("%.1f%%", results.WinRate)})
	t.AppendRow(table.Row{"Profit Factor", formatRatio(results.ProfitFactor)})
	t.AppendRow(table.Row{"Max Drawdown", fmt.Sprintf("%.2f%%", results.MaxDrawdown*100)})
	t.AppendRow(table.Row{"Sharpe Ratio", fmt.Sprintf("%.2f", results.SharpeRatio)})
	t.AppendRow(table.Row{"Calmar Ratio", fmt.Sprintf("%.2f", results.CalmarRatio)})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Trades", len(results.Trades)})
	t.AppendRow(table.Row{"Orders Placed", results.OrdersPlaced})
	t.AppendRow(table.Row{"Orders Rejected", results.OrdersRejected})
	t.AppendRow(table.Row{"Candles", fmt.Sprintf("%d/%d", results.CandlesConsumed, results.CandlesTotal)})
	if results.Halted() {
		t.AppendRow(table.Row{"Stopped Early", string(results.StopReason)})
	}
	if results.Liquidated {
		t.AppendRow(table.Row{"Liquidated", "YES"})
	}
	t.Render()

	r.printCycleStats(results)

	for _, warning := range results.Warnings {
		fmt.Printf("WARNING: %s\n", warning)
	}
	return nil
}

func (r *ConsoleReporter) printCycleStats(results *backtest.Results) {
	stats := results.CycleStats
	if stats.Completed == 0 {
		fmt.Println("No completed cycles.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Cycles")
	t.AppendRow(table.Row{"Completed", stats.Completed})
	t.AppendRow(table.Row{"Winning / Losing", fmt.Sprintf("%d / %d", stats.Winning, stats.Losing)})
	t.AppendRow(table.Row{"Forced Closed", stats.Forced})
	t.AppendRow(table.Row{"Avg Duration", fmt.Sprintf("%.1f min", stats.AvgDuration)})
	t.AppendRow(table.Row{"Avg PnL", "$" + stats.AvgPnL.StringFixed(2)})
	t.AppendRow(table.Row{"Best PnL", "$" + stats.BestPnL.StringFixed(2)})
	t.AppendRow(table.Row{"Worst PnL", "$" + stats.WorstPnL.StringFixed(2)})
	t.Render()
}

func formatRatio(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", v)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
