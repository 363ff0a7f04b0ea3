package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alejom99/cycletrader/internal/backtest"
)

// Reporter renders finished run results to some destination.
type Reporter interface {
	OutputResults(results *backtest.Results) error
}

// ReportPath builds the output file path for one run:
// <dir>/<symbol>_<timeframe>_<runid8>.<ext>
func ReportPath(dir, ext string, results *backtest.Results) string {
	runID := results.RunID
	if len(runID) > 8 {
		runID = runID[:8]
	}
	name := fmt.Sprintf("%s_%s_%s.%s", results.Config.Symbol, results.Config.Timeframe, runID, ext)
	return filepath.Join(dir, name)
}

// ensureDir creates the parent directory of path when missing.
func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// formatMs renders a simulated timestamp for report output.
func formatMs(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04:05")
}
