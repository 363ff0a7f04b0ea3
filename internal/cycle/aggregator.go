package cycle

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/alejom99/cycletrader/internal/position"
	"github.com/alejom99/cycletrader/pkg/types"
)

// Status of a cycle.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Cycle is one complete logical trading round for a symbol: flat, through one
// or more fills, back to flat. Immutable once closed. Forced marks cycles
// closed by a risk halt at the current mark price rather than by a fill.
type Cycle struct {
	ID          string
	Symbol      string
	Side        position.Side
	OpenedAt    int64
	ClosedAt    int64
	Trades      []types.Trade
	RealizedPnL decimal.Decimal
	Status      Status
	Forced      bool
}

// Duration returns the cycle length in minutes.
func (c Cycle) Duration() float64 {
	return float64(c.ClosedAt-c.OpenedAt) / 60_000
}

// Aggregator groups the trade stream into cycles. Cycles for a symbol are
// strictly sequential: a new one cannot open before the previous one closed.
type Aggregator struct {
	seq    uint64
	active map[string]*Cycle
	closed []Cycle
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{active: make(map[string]*Cycle)}
}

// Closed returns every closed cycle in close order.
func (a *Aggregator) Closed() []Cycle {
	return a.closed
}

// Active returns the open cycle for symbol, or nil.
func (a *Aggregator) Active(symbol string) *Cycle {
	return a.active[symbol]
}

// OnFill applies one trade and its position events. The trade is appended to
// the cycle it affects; a fill that returns the position to flat closes the
// cycle and the closed cycle is returned. A fill that flips direction closes
// the old cycle (the flip trade belongs to it) and opens a fresh one at the
// same timestamp.
func (a *Aggregator) OnFill(trade types.Trade, events []position.Event) []Cycle {
	var out []Cycle

	active := a.active[trade.Symbol]
	hadActive := active != nil
	if hadActive {
		active.Trades = append(active.Trades, trade)
	}

	for _, ev := range events {
		switch ev.Kind {
		case position.Opened:
			a.seq++
			c := &Cycle{
				ID:       fmt.Sprintf("cyc-%06d", a.seq),
				Symbol:   ev.Symbol,
				Side:     ev.Side,
				OpenedAt: ev.Timestamp,
				Status:   StatusOpen,
			}
			if !hadActive {
				// The opening trade belongs to the new cycle. On a flip it
				// already belongs to the cycle it closed.
				c.Trades = append(c.Trades, trade)
			}
			a.active[ev.Symbol] = c
		case position.Closed:
			if active == nil {
				continue
			}
			out = append(out, a.close(active, ev.Timestamp, decimal.Zero, false))
			delete(a.active, ev.Symbol)
			active = nil
		}
	}
	return out
}

// ForceClose closes the open cycle for symbol at the current mark, folding
// the position's unrealized PnL into the cycle result. Used on a risk halt;
// returns false when no cycle is open.
func (a *Aggregator) ForceClose(symbol string, ts int64, unrealized decimal.Decimal) (Cycle, bool) {
	active := a.active[symbol]
	if active == nil {
		return Cycle{}, false
	}
	closed := a.close(active, ts, unrealized, true)
	delete(a.active, symbol)
	return closed, true
}

func (a *Aggregator) close(c *Cycle, ts int64, extra decimal.Decimal, forced bool) Cycle {
	pnl := extra
	for _, t := range c.Trades {
		pnl = pnl.Add(t.RealizedPnLDelta)
	}
	c.ClosedAt = ts
	c.RealizedPnL = pnl
	c.Status = StatusClosed
	c.Forced = forced
	closed := *c
	a.closed = append(a.closed, closed)
	return closed
}
