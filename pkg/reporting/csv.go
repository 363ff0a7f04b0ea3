package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/alejom99/cycletrader/internal/backtest"
)

// CSVReporter writes the trade ledger and the equity curve as CSV files next
// to each other, for spreadsheet work and plotting.
type CSVReporter struct {
	tradesPath string
	equityPath string
}

// NewCSVReporter creates a reporter writing the two files.
func NewCSVReporter(tradesPath, equityPath string) *CSVReporter {
	return &CSVReporter{tradesPath: tradesPath, equityPath: equityPath}
}

// OutputResults writes both files.
func (r *CSVReporter) OutputResults(results *backtest.Results) error {
	if err := r.writeTrades(results); err != nil {
		return err
	}
	return r.writeEquity(results)
}

func (r *CSVReporter) writeTrades(results *backtest.Results) error {
	if err := ensureDir(r.tradesPath); err != nil {
		return err
	}
	file, err := os.Create(r.tradesPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", r.tradesPath, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"trade_id", "order_id", "time", "side", "price", "quantity", "fee", "realized_pnl_delta"}); err != nil {
		return err
	}
	for _, t := range results.Trades {
		record := []string{
			t.ID,
			t.OrderID,
			formatMs(t.Timestamp),
			string(t.Side),
			t.Price.String(),
			t.Quantity.String(),
			t.Fee.String(),
			t.RealizedPnLDelta.String(),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Error()
}

func (r *CSVReporter) writeEquity(results *backtest.Results) error {
	if err := ensureDir(r.equityPath); err != nil {
		return err
	}
	file, err := os.Create(r.equityPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", r.equityPath, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"timestamp", "time", "equity", "balance", "exposure"}); err != nil {
		return err
	}
	for _, p := range results.EquityCurve {
		record := []string{
			strconv.FormatInt(p.Timestamp, 10),
			formatMs(p.Timestamp),
			p.Equity.String(),
			p.Balance.String(),
			p.Exposure.String(),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Error()
}
