package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engerrors "github.com/alejom99/cycletrader/internal/errors"
)

// TestNewStrategy_BuildsKnownStrategies tests the happy paths
func TestNewStrategy_BuildsKnownStrategies(t *testing.T) {
	s, err := NewStrategy("sma_cross", Params{OrderQuantity: "0.5", FastPeriod: 5, SlowPeriod: 20})
	require.NoError(t, err)
	assert.Equal(t, "sma_cross", s.GetName())
	assert.Equal(t, 21, s.WarmupPeriod())

	s, err = NewStrategy("rsi_reversion", Params{OrderQuantity: "1", RSIPeriod: 14, OversoldLevel: 30, OverboughtLvl: 70})
	require.NoError(t, err)
	assert.Equal(t, "rsi_reversion", s.GetName())
	assert.Equal(t, 15, s.WarmupPeriod())
}

// TestNewStrategy_RejectsBadParams tests the configuration error paths
func TestNewStrategy_RejectsBadParams(t *testing.T) {
	tests := []struct {
		name     string
		strategy string
		params   Params
	}{
		{"unknown name", "martingale", Params{OrderQuantity: "1"}},
		{"empty quantity", "sma_cross", Params{FastPeriod: 5, SlowPeriod: 20}},
		{"negative quantity", "sma_cross", Params{OrderQuantity: "-1", FastPeriod: 5, SlowPeriod: 20}},
		{"non-decimal quantity", "sma_cross", Params{OrderQuantity: "lots", FastPeriod: 5, SlowPeriod: 20}},
		{"fast not below slow", "sma_cross", Params{OrderQuantity: "1", FastPeriod: 20, SlowPeriod: 20}},
		{"zero sma period", "sma_cross", Params{OrderQuantity: "1", FastPeriod: 0, SlowPeriod: 20}},
		{"zero rsi period", "rsi_reversion", Params{OrderQuantity: "1", OversoldLevel: 30, OverboughtLvl: 70}},
		{"inverted rsi levels", "rsi_reversion", Params{OrderQuantity: "1", RSIPeriod: 14, OversoldLevel: 70, OverboughtLvl: 30}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStrategy(tt.strategy, tt.params)
			assert.Nil(t, s)
			require.Error(t, err)
			assert.True(t, engerrors.IsConfiguration(err))
		})
	}
}
