package reporting

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/alejom99/cycletrader/internal/backtest"
)

// ExcelReporter writes a multi-sheet workbook: Summary, Trades and Cycles.
type ExcelReporter struct {
	path string
}

// NewExcelReporter creates a reporter writing to the given path.
func NewExcelReporter(path string) *ExcelReporter {
	return &ExcelReporter{path: path}
}

type excelStyles struct {
	Header   int
	Currency int
	Percent  int
}

// OutputResults writes the workbook.
func (r *ExcelReporter) OutputResults(results *backtest.Results) error {
	if err := ensureDir(r.path); err != nil {
		return err
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const summarySheet = "Summary"
	const tradesSheet = "Trades"
	const cyclesSheet = "Cycles"

	fx.SetSheetName(fx.GetSheetName(0), summarySheet)
	if _, err := fx.NewSheet(tradesSheet); err != nil {
		return err
	}
	if _, err := fx.NewSheet(cyclesSheet); err != nil {
		return err
	}

	styles, err := r.createStyles(fx)
	if err != nil {
		return err
	}

	if err := r.writeSummarySheet(fx, summarySheet, results, styles); err != nil {
		return err
	}
	if err := r.writeTradesSheet(fx, tradesSheet, results, styles); err != nil {
		return err
	}
	if err := r.writeCyclesSheet(fx, cyclesSheet, results, styles); err != nil {
		return err
	}

	return fx.SaveAs(r.path)
}

func (r *ExcelReporter) createStyles(fx *excelize.File) (excelStyles, error) {
	var styles excelStyles
	var err error

	styles.Header, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: "Calibri"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2F4F4F"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.Currency, err = fx.NewStyle(&excelize.Style{
		NumFmt:    7,
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return styles, err
	}

	styles.Percent, err = fx.NewStyle(&excelize.Style{
		NumFmt:    9,
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	return styles, err
}

func (r *ExcelReporter) writeSummarySheet(fx *excelize.File, sheet string, results *backtest.Results, styles excelStyles) error {
	rows := [][]interface{}{
		{"Run ID", results.RunID},
		{"Symbol", results.Config.Symbol},
		{"Timeframe", string(results.Config.Timeframe)},
		{"Strategy", results.Config.StrategyName},
		{"Initial Balance", toFloat(results.InitialBalance.String())},
		{"Final Balance", toFloat(results.FinalBalance.String())},
		{"Final Equity", toFloat(results.FinalEquity.String())},
		{"Realized PnL", toFloat(results.RealizedPnL.String())},
		{"Total Fees", toFloat(results.TotalFees.String())},
		{"Total Return %", results.TotalReturnPct},
		{"Win Rate %", results.WinRate},
		{"Profit Factor", formatRatio(results.ProfitFactor)},
		{"Max Drawdown", results.MaxDrawdown},
		{"Sharpe Ratio", results.SharpeRatio},
		{"Calmar Ratio", results.CalmarRatio},
		{"Trades", len(results.Trades)},
		{"Cycles", len(results.Cycles)},
		{"Orders Rejected", results.OrdersRejected},
		{"Stop Reason", string(results.StopReason)},
		{"Liquidated", results.Liquidated},
	}

	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if err := fx.SetColWidth(sheet, "A", "A", 20); err != nil {
		return err
	}
	return fx.SetColWidth(sheet, "B", "B", 40)
}

func (r *ExcelReporter) writeTradesSheet(fx *excelize.File, sheet string, results *backtest.Results, styles excelStyles) error {
	header := []interface{}{"Trade ID", "Order ID", "Time", "Side", "Price", "Quantity", "Fee", "PnL Delta"}
	if err := fx.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := fx.SetCellStyle(sheet, "A1", "H1", styles.Header); err != nil {
		return err
	}

	for i, t := range results.Trades {
		row := []interface{}{
			t.ID,
			t.OrderID,
			formatMs(t.Timestamp),
			string(t.Side),
			toFloat(t.Price.String()),
			toFloat(t.Quantity.String()),
			toFloat(t.Fee.String()),
			toFloat(t.RealizedPnLDelta.String()),
		}
		if err := fx.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}
	return fx.SetColWidth(sheet, "A", "H", 16)
}

func (r *ExcelReporter) writeCyclesSheet(fx *excelize.File, sheet string, results *backtest.Results, styles excelStyles) error {
	header := []interface{}{"Cycle ID", "Side", "Opened", "Closed", "Duration (min)", "Trades", "Realized PnL", "Forced"}
	if err := fx.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := fx.SetCellStyle(sheet, "A1", "H1", styles.Header); err != nil {
		return err
	}

	for i, c := range results.Cycles {
		row := []interface{}{
			c.ID,
			string(c.Side),
			formatMs(c.OpenedAt),
			formatMs(c.ClosedAt),
			c.Duration(),
			len(c.Trades),
			toFloat(c.RealizedPnL.String()),
			c.Forced,
		}
		if err := fx.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}
	return fx.SetColWidth(sheet, "A", "H", 18)
}

// toFloat converts a decimal string for Excel's numeric cells. Report output
// is display only; exact values live in the JSON and CSV ledgers.
func toFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
