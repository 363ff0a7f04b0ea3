package strategy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejom99/cycletrader/pkg/types"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func historyFrom(closes ...string) []types.Candle {
	candles := make([]types.Candle, len(closes))
	for i, c := range closes {
		price := d(c)
		candles[i] = types.Candle{
			Symbol:    "BTCUSDT",
			Timeframe: types.Timeframe1m,
			Timestamp: int64(i) * 60_000,
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    d("1"),
		}
	}
	return candles
}

func flatSnapshot() types.AccountSnapshot {
	return types.AccountSnapshot{Balance: d("1000")}
}

func longSnapshot(qty string) types.AccountSnapshot {
	return types.AccountSnapshot{Balance: d("1000"), PositionQty: d(qty)}
}

// feed replays the history bar by bar and returns the requests emitted on the
// final bar.
func feed(s Strategy, history []types.Candle, snapshot types.AccountSnapshot) []types.OrderRequest {
	var last []types.OrderRequest
	for i := range history {
		last = s.OnCandle(history[:i+1], snapshot)
	}
	return last
}

// TestSMACross_BuysOnUpwardCross tests the entry signal
func TestSMACross_BuysOnUpwardCross(t *testing.T) {
	s := NewSMACross(2, 4, d("0.5"))

	// Declining closes keep fast below slow, then a sharp rally flips it on
	// the final bar.
	history := historyFrom("110", "108", "106", "104", "102", "100", "130")
	requests := feed(s, history, flatSnapshot())

	require.Len(t, requests, 1)
	assert.Equal(t, types.Buy, requests[0].Side)
	assert.Equal(t, types.Market, requests[0].Type)
	assert.Equal(t, "BTCUSDT", requests[0].Symbol)
	assert.True(t, requests[0].Quantity.Equal(d("0.5")))
}

// TestSMACross_NoEntryWhileHoldingPosition tests the single-position rule
func TestSMACross_NoEntryWhileHoldingPosition(t *testing.T) {
	s := NewSMACross(2, 4, d("0.5"))

	history := historyFrom("110", "108", "106", "104", "102", "100", "130")
	requests := feed(s, history, longSnapshot("0.5"))

	assert.Empty(t, requests, "cross-up is ignored while a position is held")
}

// TestSMACross_SellsHeldQuantityOnDownwardCross tests the exit signal
func TestSMACross_SellsHeldQuantityOnDownwardCross(t *testing.T) {
	s := NewSMACross(2, 4, d("0.5"))

	// Rising closes keep fast above slow, then a collapse flips it on the
	// final bar.
	history := historyFrom("100", "102", "104", "106", "108", "110", "80")
	requests := feed(s, history, longSnapshot("0.75"))

	require.Len(t, requests, 1)
	assert.Equal(t, types.Sell, requests[0].Side)
	assert.True(t, requests[0].Quantity.Equal(d("0.75")), "exit sells the held quantity, not the configured one")
}

// TestSMACross_SilentDuringWarmup tests that short histories emit nothing
func TestSMACross_SilentDuringWarmup(t *testing.T) {
	s := NewSMACross(2, 4, d("0.5"))

	requests := s.OnCandle(historyFrom("100", "101", "102"), flatSnapshot())
	assert.Empty(t, requests)
}

// TestSMACross_FirstEvaluatedBarOnlyPrimes tests that the first computable bar
// records state instead of trading
func TestSMACross_FirstEvaluatedBarOnlyPrimes(t *testing.T) {
	s := NewSMACross(2, 4, d("0.5"))

	// Fast is already above slow on the very first bar both averages exist.
	history := historyFrom("100", "100", "100", "130")
	requests := s.OnCandle(history, flatSnapshot())

	assert.Empty(t, requests, "being above is not a cross")
	assert.Equal(t, 5, s.WarmupPeriod())
}

// TestRSIReversion_BuysWhenOversold tests the mean-reversion entry
func TestRSIReversion_BuysWhenOversold(t *testing.T) {
	s := NewRSIReversion(3, 30, 70, d("1"))

	// Straight decline pins RSI at zero.
	history := historyFrom("110", "108", "106", "104", "102")
	requests := s.OnCandle(history, flatSnapshot())

	require.Len(t, requests, 1)
	assert.Equal(t, types.Buy, requests[0].Side)
	assert.True(t, requests[0].Quantity.Equal(d("1")))
}

// TestRSIReversion_SellsWhenOverbought tests the exit
func TestRSIReversion_SellsWhenOverbought(t *testing.T) {
	s := NewRSIReversion(3, 30, 70, d("1"))

	// Straight rally pins RSI at one hundred.
	history := historyFrom("100", "102", "104", "106", "108")
	requests := s.OnCandle(history, longSnapshot("1"))

	require.Len(t, requests, 1)
	assert.Equal(t, types.Sell, requests[0].Side)
}

// TestRSIReversion_IdleInNeutralZone tests that mid-range RSI stays flat
func TestRSIReversion_IdleInNeutralZone(t *testing.T) {
	s := NewRSIReversion(3, 30, 70, d("1"))

	// Alternating bars keep the oscillator near the middle.
	history := historyFrom("100", "102", "100", "102", "100", "102")
	requests := s.OnCandle(history, flatSnapshot())

	assert.Empty(t, requests)
}
