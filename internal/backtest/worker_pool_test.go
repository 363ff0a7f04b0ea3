package backtest

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejom99/cycletrader/internal/strategy"
)

// TestWorkerPool_RunBatch tests parallel execution of independent runs
func TestWorkerPool_RunBatch(t *testing.T) {
	candles := flatCandles(100, "100")
	provider := &sliceProvider{candles}

	cfg := testRunConfig(100)
	cfg.StrategyName = "sma_cross"
	cfg.StrategyParams = strategy.Params{OrderQuantity: "1", FastPeriod: 3, SlowPeriod: 8}

	configs := []Config{cfg, cfg, cfg, cfg}
	pool := NewWorkerPool(2, len(configs), provider)

	results := pool.RunBatch(configs)

	require.Len(t, results, 4)
	for _, jr := range results {
		require.NoError(t, jr.Error)
		require.NotNil(t, jr.Results)
		assert.Equal(t, 100, jr.Results.CandlesConsumed)
	}
}

// TestWorkerPool_IsolatedRunsAreIdentical tests determinism under parallelism
func TestWorkerPool_IsolatedRunsAreIdentical(t *testing.T) {
	prices := []string{"100", "102", "105", "109", "112", "110", "106", "101", "98", "97", "99", "103"}
	candles := flatCandles(len(prices)*10, "100")
	for i := range candles {
		p := d(prices[i%len(prices)])
		candles[i].Open = p
		candles[i].High = p.Add(d("1"))
		candles[i].Low = p.Sub(d("1"))
		candles[i].Close = p
	}
	provider := &sliceProvider{candles}

	cfg := testRunConfig(len(candles))
	cfg.StrategyName = "sma_cross"
	cfg.StrategyParams = strategy.Params{OrderQuantity: "1", FastPeriod: 3, SlowPeriod: 8}

	pool := NewWorkerPool(4, 8, provider)
	results := pool.RunBatch([]Config{cfg, cfg, cfg, cfg, cfg, cfg, cfg, cfg})

	require.Len(t, results, 8)
	balances := make([]string, 0, len(results))
	for _, jr := range results {
		require.NoError(t, jr.Error)
		balances = append(balances, jr.Results.FinalBalance.String())
	}
	sort.Strings(balances)
	assert.Equal(t, balances[0], balances[len(balances)-1],
		"equal configs must produce identical balances regardless of interleaving")
}

// TestWorkerPool_ErrorsAreReportedPerJob tests that one bad job does not sink the batch
func TestWorkerPool_ErrorsAreReportedPerJob(t *testing.T) {
	provider := &sliceProvider{flatCandles(50, "100")}

	good := testRunConfig(50)
	good.StrategyName = "sma_cross"
	good.StrategyParams = strategy.Params{OrderQuantity: "1", FastPeriod: 3, SlowPeriod: 8}

	bad := good
	bad.StrategyName = "does_not_exist"

	pool := NewWorkerPool(2, 2, provider)
	results := pool.RunBatch([]Config{good, bad})

	require.Len(t, results, 2)
	errCount := 0
	for _, jr := range results {
		if jr.Error != nil {
			errCount++
		}
	}
	assert.Equal(t, 1, errCount)
}
