package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// TestEnforcer_NoLimitsNeverHalts tests the disabled configuration
func TestEnforcer_NoLimitsNeverHalts(t *testing.T) {
	e := NewEnforcer(d("1000"), decimal.Zero, false, decimal.Zero)

	for _, equity := range []string{"1000", "500", "1", "0"} {
		reason, halt := e.Check(d(equity))
		assert.False(t, halt)
		assert.Equal(t, StopNone, reason)
	}
}

// TestEnforcer_DrawdownTracksHighWater tests the peak-relative drawdown halt
func TestEnforcer_DrawdownTracksHighWater(t *testing.T) {
	e := NewEnforcer(d("1000"), d("0.2"), false, decimal.Zero)

	// Ride up to a 2000 peak.
	_, halt := e.Check(d("2000"))
	assert.False(t, halt)
	assert.True(t, e.HighWater().Equal(d("2000")))

	// 1650 is a 17.5% drawdown from the peak: still fine.
	_, halt = e.Check(d("1650"))
	assert.False(t, halt)

	// 1590 is 20.5% below the peak: halt, even though it is above the
	// initial balance.
	reason, halt := e.Check(d("1590"))
	assert.True(t, halt)
	assert.Equal(t, StopMaxDrawdown, reason)
}

// TestEnforcer_DrawdownBoundaryIsExclusive tests that exactly the limit passes
func TestEnforcer_DrawdownBoundaryIsExclusive(t *testing.T) {
	e := NewEnforcer(d("1000"), d("0.2"), false, decimal.Zero)
	e.Check(d("1000"))

	reason, halt := e.Check(d("800")) // exactly 20%
	assert.False(t, halt)
	assert.Equal(t, StopNone, reason)
}

// TestEnforcer_StopOnLossBoundary tests the inclusive loss threshold
func TestEnforcer_StopOnLossBoundary(t *testing.T) {
	e := NewEnforcer(d("1000"), decimal.Zero, true, d("0.5"))

	// 49% loss continues.
	reason, halt := e.Check(d("510"))
	assert.False(t, halt)
	assert.Equal(t, StopNone, reason)

	// Exactly 50% halts: the threshold is inclusive.
	reason, halt = e.Check(d("500"))
	assert.True(t, halt)
	assert.Equal(t, StopMaxLoss, reason)
}

// TestEnforcer_StopOnLossBeyondThreshold tests a 51% loss
func TestEnforcer_StopOnLossBeyondThreshold(t *testing.T) {
	e := NewEnforcer(d("1000"), decimal.Zero, true, d("0.5"))

	reason, halt := e.Check(d("490"))
	assert.True(t, halt)
	assert.Equal(t, StopMaxLoss, reason)
}

// TestEnforcer_DrawdownCheckedBeforeLoss tests the fixed evaluation order
func TestEnforcer_DrawdownCheckedBeforeLoss(t *testing.T) {
	e := NewEnforcer(d("1000"), d("0.1"), true, d("0.1"))

	reason, halt := e.Check(d("800"))
	assert.True(t, halt)
	assert.Equal(t, StopMaxDrawdown, reason)
}
