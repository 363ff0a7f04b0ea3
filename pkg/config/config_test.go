package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejom99/cycletrader/internal/backtest"
	engerrors "github.com/alejom99/cycletrader/internal/errors"
	"github.com/alejom99/cycletrader/pkg/types"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return v
}

const sampleYAML = `
data_dir: ./data
cache_db: cache.db
report_dir: ./reports
runs:
  - symbol: BTCUSDT
    timeframe: 5m
    start: "2024-01-01"
    end: "2024-06-30"
    data_file: btcusdt_5m.csv
    initial_balance: "5000"
    leverage: "25"
    taker_fee: "0.00055"
    stop_on_loss: false
    strategy:
      name: sma_cross
      order_quantity: "0.01"
      fast_period: 10
      slow_period: 30
  - symbol: ETHUSDT
    timeframe: 15m
    start: "2024-01-01 12:00:00"
    end: "2024-03-31T00:00:00Z"
    data_file: ethusdt_15m.csv
    strategy:
      name: rsi_reversion
      order_quantity: "0.1"
      rsi_period: 14
      oversold: 30
      overbought: 70
`

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backtest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLoad tests parsing a two-run file
func TestLoad(t *testing.T) {
	f, err := Load(writeYAML(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "./data", f.DataDir)
	assert.Equal(t, "cache.db", f.CacheDB)
	require.Len(t, f.Runs, 2)
	assert.Equal(t, "BTCUSDT", f.Runs[0].Symbol)
	assert.Equal(t, "btcusdt_5m.csv", f.Runs[0].DataFile)
	assert.Equal(t, "rsi_reversion", f.Runs[1].Strategy.Name)
}

// TestLoad_Errors tests the load failure modes
func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.True(t, engerrors.IsConfiguration(err))
	})

	t.Run("bad yaml", func(t *testing.T) {
		_, err := Load(writeYAML(t, "runs: [not: valid: yaml"))
		assert.True(t, engerrors.IsConfiguration(err))
	})

	t.Run("no runs", func(t *testing.T) {
		_, err := Load(writeYAML(t, "data_dir: ./data\nruns: []\n"))
		assert.True(t, engerrors.IsConfiguration(err))
	})
}

// TestToBacktestConfig tests conversion with explicit overrides
func TestToBacktestConfig(t *testing.T) {
	f, err := Load(writeYAML(t, sampleYAML))
	require.NoError(t, err)

	cfg, err := f.Runs[0].ToBacktestConfig()
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", cfg.Symbol)
	assert.Equal(t, types.Timeframe5m, cfg.Timeframe)
	assert.True(t, cfg.InitialBalance.Equal(mustDecimal(t, "5000")))
	assert.True(t, cfg.Leverage.Equal(mustDecimal(t, "25")))
	assert.True(t, cfg.TakerFee.Equal(mustDecimal(t, "0.00055")))
	assert.False(t, cfg.StopOnLoss)
	assert.Equal(t, "sma_cross", cfg.StrategyName)
	assert.Equal(t, 10, cfg.StrategyParams.FastPeriod)

	start := time.UnixMilli(cfg.StartMs).UTC()
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), start)
}

// TestToBacktestConfig_DefaultsFillUnsetFields tests that omitted fields keep
// the engine defaults
func TestToBacktestConfig_DefaultsFillUnsetFields(t *testing.T) {
	f, err := Load(writeYAML(t, sampleYAML))
	require.NoError(t, err)

	defaults := backtest.DefaultConfig()
	cfg, err := f.Runs[1].ToBacktestConfig()
	require.NoError(t, err)

	assert.True(t, cfg.InitialBalance.Equal(defaults.InitialBalance))
	assert.True(t, cfg.MakerFee.Equal(defaults.MakerFee))
	assert.Equal(t, defaults.StopOnLoss, cfg.StopOnLoss)
	assert.Equal(t, defaults.GapToleranceBars, cfg.GapToleranceBars)
}

// TestToBacktestConfig_Errors tests the conversion failure modes
func TestToBacktestConfig_Errors(t *testing.T) {
	base := func() RunConfig {
		return RunConfig{
			Symbol:    "BTCUSDT",
			Timeframe: "5m",
			Start:     "2024-01-01",
			End:       "2024-06-30",
			Strategy:  StrategyConfig{Name: "sma_cross", OrderQuantity: "0.01", FastPeriod: 10, SlowPeriod: 30},
		}
	}

	t.Run("bad decimal", func(t *testing.T) {
		rc := base()
		rc.InitialBalance = "plenty"
		_, err := rc.ToBacktestConfig()
		assert.True(t, engerrors.IsConfiguration(err))
	})

	t.Run("unparseable start", func(t *testing.T) {
		rc := base()
		rc.Start = "January 1st"
		_, err := rc.ToBacktestConfig()
		assert.True(t, engerrors.IsConfiguration(err))
	})

	t.Run("missing end", func(t *testing.T) {
		rc := base()
		rc.End = ""
		_, err := rc.ToBacktestConfig()
		assert.True(t, engerrors.IsConfiguration(err))
	})

	t.Run("validation runs on the result", func(t *testing.T) {
		rc := base()
		rc.InitialBalance = "-100"
		_, err := rc.ToBacktestConfig()
		assert.True(t, engerrors.IsConfiguration(err))
	})
}
