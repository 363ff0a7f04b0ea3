package data

import (
	engerrors "github.com/alejom99/cycletrader/internal/errors"
	"github.com/alejom99/cycletrader/pkg/types"
)

// Provider supplies historical candles for a symbol, timeframe and time
// range. Implementations must return candles strictly increasing in
// timestamp with no duplicates; gap checking is the caller's concern via
// ValidateSeries.
type Provider interface {
	GetCandles(symbol string, timeframe types.Timeframe, startMs, endMs int64) ([]types.Candle, error)
}

// CacheStats reports cache performance for providers that cache.
type CacheStats struct {
	HitCount  int64
	MissCount int64
	CacheSize int
}

// ValidateSeries checks a candle series for ordering violations and gaps.
// toleranceBars is the number of consecutive missing bars accepted before the
// series is considered broken; exchanges drop the occasional bar on halts, so
// a small tolerance is normal. A violation returns DataGapError with the gap
// bounds in epoch milliseconds.
func ValidateSeries(candles []types.Candle, symbol string, timeframe types.Timeframe, toleranceBars int) error {
	if len(candles) == 0 {
		return &engerrors.DataGapError{Symbol: symbol, Timeframe: string(timeframe)}
	}

	step := timeframe.Millis()
	maxDelta := step * int64(toleranceBars+1)

	for i := 1; i < len(candles); i++ {
		prev, cur := candles[i-1], candles[i]
		if cur.Timestamp <= prev.Timestamp {
			return &engerrors.DataGapError{
				Symbol:    symbol,
				Timeframe: string(timeframe),
				GapStart:  cur.Timestamp,
				GapEnd:    prev.Timestamp,
			}
		}
		if cur.Timestamp-prev.Timestamp > maxDelta {
			return &engerrors.DataGapError{
				Symbol:    symbol,
				Timeframe: string(timeframe),
				GapStart:  prev.Timestamp + step,
				GapEnd:    cur.Timestamp,
			}
		}
	}
	return nil
}

// FilterRange returns the candles with startMs <= timestamp < endMs.
func FilterRange(candles []types.Candle, startMs, endMs int64) []types.Candle {
	var out []types.Candle
	for _, c := range candles {
		if c.Timestamp >= startMs && c.Timestamp < endMs {
			out = append(out, c)
		}
	}
	return out
}
