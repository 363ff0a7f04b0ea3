package data

import (
	"fmt"

	engerrors "github.com/alejom99/cycletrader/internal/errors"
	"github.com/alejom99/cycletrader/pkg/types"
)

// Mux routes candle requests to the provider registered for the symbol and
// timeframe. Used when a batch of runs spans several data files.
type Mux struct {
	providers map[string]Provider
}

// NewMux returns an empty mux.
func NewMux() *Mux {
	return &Mux{providers: make(map[string]Provider)}
}

func muxKey(symbol string, timeframe types.Timeframe) string {
	return fmt.Sprintf("%s:%s", symbol, timeframe)
}

// Register binds a provider to one symbol and timeframe. Later registrations
// for the same pair replace earlier ones.
func (m *Mux) Register(symbol string, timeframe types.Timeframe, p Provider) {
	m.providers[muxKey(symbol, timeframe)] = p
}

// GetCandles delegates to the registered provider. An unregistered pair is a
// configuration error.
func (m *Mux) GetCandles(symbol string, timeframe types.Timeframe, startMs, endMs int64) ([]types.Candle, error) {
	p, ok := m.providers[muxKey(symbol, timeframe)]
	if !ok {
		return nil, engerrors.NewConfigurationError("data", "get_candles",
			fmt.Sprintf("no data source registered for %s %s", symbol, timeframe))
	}
	return p.GetCandles(symbol, timeframe, startMs, endMs)
}
