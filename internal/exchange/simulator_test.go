package exchange

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	engerrors "github.com/alejom99/cycletrader/internal/errors"
	"github.com/alejom99/cycletrader/internal/position"
	"github.com/alejom99/cycletrader/pkg/types"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func testConfig() Config {
	return Config{
		InitialBalance: d("2500"),
		Leverage:       d("100"),
		MakerFee:       d("0.0002"),
		TakerFee:       d("0.0005"),
		MaxNotional:    d("50000"),
	}
}

func newTestSim(cfg Config) *Simulator {
	return NewSimulator(cfg, position.NewTracker())
}

func candle(ts int64, open, high, low, close string) types.Candle {
	return types.Candle{
		Symbol:    "BTCUSDT",
		Timeframe: types.Timeframe1m,
		Open:      d(open),
		High:      d(high),
		Low:       d(low),
		Close:     d(close),
		Volume:    d("10"),
		Timestamp: ts,
	}
}

// TestSimulator_MarketOrderFillsAtClose tests immediate market execution
func TestSimulator_MarketOrderFillsAtClose(t *testing.T) {
	sim := newTestSim(testConfig())
	sim.Advance(candle(1000, "99", "101", "98", "100"))

	order, fills, err := sim.PlaceOrder(types.OrderRequest{
		Symbol: "BTCUSDT", Side: types.Buy, Type: types.Market, Quantity: d("1"),
	})

	assert.NoError(t, err)
	assert.Equal(t, types.OrderFilled, order.Status)
	assert.Len(t, fills, 1)
	assert.True(t, fills[0].Trade.Price.Equal(d("100")), "market orders fill at the candle close")
	// fee = 1 * 100 * 0.0005
	assert.True(t, fills[0].Trade.Fee.Equal(d("0.05")), "got %s", fills[0].Trade.Fee)
	assert.True(t, sim.Balance().Equal(d("2499.95")))
}

// TestSimulator_LimitOrderRestsUntilTouched tests resting order behavior
func TestSimulator_LimitOrderRestsUntilTouched(t *testing.T) {
	sim := newTestSim(testConfig())
	sim.Advance(candle(1000, "100", "101", "99", "100"))

	order, fills, err := sim.PlaceOrder(types.OrderRequest{
		Symbol: "BTCUSDT", Side: types.Buy, Type: types.Limit, Quantity: d("1"), Price: d("95"),
	})
	assert.NoError(t, err)
	assert.Empty(t, fills)
	assert.Equal(t, types.OrderNew, order.Status)
	assert.Len(t, sim.OpenOrders(), 1)

	// Candle that does not reach the limit leaves the order resting.
	assert.Empty(t, sim.Advance(candle(2000, "100", "102", "96", "101")))

	// Candle trading through 95 fills at the limit price, not the low.
	results := sim.Advance(candle(3000, "96", "97", "90", "92"))
	assert.Len(t, results, 1)
	assert.True(t, results[0].Trade.Price.Equal(d("95")))
	assert.Empty(t, sim.OpenOrders())

	stored, ok := sim.Order(order.ID)
	assert.True(t, ok)
	assert.Equal(t, types.OrderFilled, stored.Status)
}

// TestSimulator_FillPriority tests price-then-time ordering within one candle
func TestSimulator_FillPriority(t *testing.T) {
	sim := newTestSim(testConfig())
	sim.Advance(candle(1000, "100", "101", "99", "100"))

	first, _, _ := sim.PlaceOrder(types.OrderRequest{
		Symbol: "BTCUSDT", Side: types.Buy, Type: types.Limit, Quantity: d("1"), Price: d("95"),
	})
	second, _, _ := sim.PlaceOrder(types.OrderRequest{
		Symbol: "BTCUSDT", Side: types.Buy, Type: types.Limit, Quantity: d("1"), Price: d("97"),
	})
	third, _, _ := sim.PlaceOrder(types.OrderRequest{
		Symbol: "BTCUSDT", Side: types.Buy, Type: types.Limit, Quantity: d("1"), Price: d("95"),
	})

	results := sim.Advance(candle(2000, "98", "99", "90", "91"))

	assert.Len(t, results, 3)
	assert.Equal(t, second.ID, results[0].Trade.OrderID, "highest buy limit fills first")
	assert.Equal(t, first.ID, results[1].Trade.OrderID, "equal prices fill in submission order")
	assert.Equal(t, third.ID, results[2].Trade.OrderID)
}

// TestSimulator_CancelOrder tests cancel transitions and the not-found path
func TestSimulator_CancelOrder(t *testing.T) {
	sim := newTestSim(testConfig())
	sim.Advance(candle(1000, "100", "101", "99", "100"))

	order, _, err := sim.PlaceOrder(types.OrderRequest{
		Symbol: "BTCUSDT", Side: types.Sell, Type: types.Limit, Quantity: d("1"), Price: d("120"),
	})
	assert.NoError(t, err)

	canceled, err := sim.CancelOrder(order.ID)
	assert.NoError(t, err)
	assert.Equal(t, types.OrderCanceled, canceled.Status)
	assert.Empty(t, sim.OpenOrders())

	// Second cancel and unknown ids both come back as not found.
	_, err = sim.CancelOrder(order.ID)
	var notFound *engerrors.OrderNotFoundError
	assert.ErrorAs(t, err, &notFound)
	_, err = sim.CancelOrder("ord-999999")
	assert.ErrorAs(t, err, &notFound)
	assert.True(t, engerrors.IsRecoverable(err))
}

// TestSimulator_RejectsInvalidRequests tests parameter validation
func TestSimulator_RejectsInvalidRequests(t *testing.T) {
	sim := newTestSim(testConfig())
	sim.Advance(candle(1000, "100", "101", "99", "100"))

	tests := []struct {
		name string
		req  types.OrderRequest
	}{
		{"zero quantity", types.OrderRequest{Symbol: "BTCUSDT", Side: types.Buy, Type: types.Market}},
		{"negative quantity", types.OrderRequest{Symbol: "BTCUSDT", Side: types.Buy, Type: types.Market, Quantity: d("-1")}},
		{"limit without price", types.OrderRequest{Symbol: "BTCUSDT", Side: types.Buy, Type: types.Limit, Quantity: d("1")}},
		{"market with price", types.OrderRequest{Symbol: "BTCUSDT", Side: types.Buy, Type: types.Market, Quantity: d("1"), Price: d("100")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, fills, err := sim.PlaceOrder(tt.req)
			assert.Error(t, err)
			assert.True(t, engerrors.IsRecoverable(err))
			assert.Equal(t, types.OrderRejected, order.Status)
			assert.Empty(t, fills)
		})
	}
}

// TestSimulator_MaxNotionalIncludesOpenExposure tests the notional risk check
func TestSimulator_MaxNotionalIncludesOpenExposure(t *testing.T) {
	cfg := testConfig()
	cfg.MaxNotional = d("150")
	sim := newTestSim(cfg)
	sim.Advance(candle(1000, "100", "101", "99", "100"))

	_, _, err := sim.PlaceOrder(types.OrderRequest{
		Symbol: "BTCUSDT", Side: types.Buy, Type: types.Market, Quantity: d("1"),
	})
	assert.NoError(t, err)

	// Existing 100 exposure + 100 order breaches the 150 cap.
	order, _, err := sim.PlaceOrder(types.OrderRequest{
		Symbol: "BTCUSDT", Side: types.Buy, Type: types.Market, Quantity: d("1"),
	})
	var riskErr *engerrors.RiskLimitError
	assert.ErrorAs(t, err, &riskErr)
	assert.True(t, engerrors.IsRecoverable(err))
	assert.Equal(t, types.OrderRejected, order.Status)

	// Reducing orders bypass the cap.
	_, _, err = sim.PlaceOrder(types.OrderRequest{
		Symbol: "BTCUSDT", Side: types.Sell, Type: types.Market, Quantity: d("1"),
	})
	assert.NoError(t, err)
}

// TestSimulator_InsufficientMargin tests the margin risk check
func TestSimulator_InsufficientMargin(t *testing.T) {
	cfg := testConfig()
	cfg.InitialBalance = d("10")
	cfg.Leverage = d("1")
	cfg.MaxNotional = decimal.Zero
	sim := newTestSim(cfg)
	sim.Advance(candle(1000, "100", "101", "99", "100"))

	order, _, err := sim.PlaceOrder(types.OrderRequest{
		Symbol: "BTCUSDT", Side: types.Buy, Type: types.Market, Quantity: d("1"),
	})
	var marginErr *engerrors.InsufficientMarginError
	assert.ErrorAs(t, err, &marginErr)
	assert.Equal(t, types.OrderRejected, order.Status)
	assert.True(t, sim.Balance().Equal(d("10")), "rejected orders leave the balance untouched")
}

// TestSimulator_Liquidation tests worst-case bankruptcy handling
func TestSimulator_Liquidation(t *testing.T) {
	cfg := testConfig()
	cfg.InitialBalance = d("50")
	cfg.MaxNotional = decimal.Zero
	sim := newTestSim(cfg)
	sim.Advance(candle(1000, "100", "101", "99", "100"))

	_, _, err := sim.PlaceOrder(types.OrderRequest{
		Symbol: "BTCUSDT", Side: types.Buy, Type: types.Market, Quantity: d("1"),
	})
	assert.NoError(t, err)

	// The low of 40 puts the position 60 under water against a sub-50 balance.
	results := sim.Advance(candle(2000, "90", "92", "40", "45"))

	assert.True(t, sim.Liquidated())
	assert.True(t, sim.Balance().IsZero())
	assert.Len(t, results, 1)
	assert.True(t, results[0].Trade.Price.Equal(d("40")), "liquidation closes at the worst extreme")
	assert.True(t, results[0].Trade.Fee.IsZero(), "liquidation charges no fee")
	assert.True(t, sim.Snapshot("BTCUSDT").Flat())
}

// TestSimulator_SnapshotMarksAtClose tests the strategy-facing account view
func TestSimulator_SnapshotMarksAtClose(t *testing.T) {
	sim := newTestSim(testConfig())
	sim.Advance(candle(1000, "100", "101", "99", "100"))
	sim.PlaceOrder(types.OrderRequest{
		Symbol: "BTCUSDT", Side: types.Buy, Type: types.Market, Quantity: d("1"),
	})

	sim.Advance(candle(2000, "100", "111", "100", "110"))
	snap := sim.Snapshot("BTCUSDT")

	assert.True(t, snap.PositionQty.Equal(d("1")))
	assert.True(t, snap.PositionEntry.Equal(d("100")))
	// equity = balance + (110-100)*1
	assert.True(t, snap.Equity.Equal(sim.Balance().Add(d("10"))))
	assert.True(t, sim.Equity("BTCUSDT").Equal(snap.Equity))
}

// TestSimulator_DeterministicIDs tests that ledger ids depend only on inputs
func TestSimulator_DeterministicIDs(t *testing.T) {
	run := func() []string {
		sim := newTestSim(testConfig())
		sim.Advance(candle(1000, "100", "101", "99", "100"))
		sim.PlaceOrder(types.OrderRequest{Symbol: "BTCUSDT", Side: types.Buy, Type: types.Market, Quantity: d("1")})
		sim.PlaceOrder(types.OrderRequest{Symbol: "BTCUSDT", Side: types.Sell, Type: types.Market, Quantity: d("1")})
		var ids []string
		for _, trade := range sim.Trades() {
			ids = append(ids, trade.ID, trade.OrderID)
		}
		return ids
	}

	assert.Equal(t, run(), run())
	assert.Equal(t, []string{"trd-000001", "ord-000001", "trd-000002", "ord-000002"}, run())
}
