package position

import (
	"github.com/shopspring/decimal"

	"github.com/alejom99/cycletrader/pkg/types"
)

// Side of an open position.
type Side string

const (
	Long  Side = "long"
	Short Side = "short"
)

// Position is the net open exposure for a symbol. Quantity is always
// positive; direction is carried by Side. EntryPrice is the weighted average
// of the fills that built the exposure.
type Position struct {
	Symbol     string
	Side       Side
	Quantity   decimal.Decimal
	EntryPrice decimal.Decimal
	OpenedAt   int64 // epoch ms, simulated time
}

// SignedQuantity returns the position quantity signed by direction.
func (p Position) SignedQuantity() decimal.Decimal {
	if p.Side == Short {
		return p.Quantity.Neg()
	}
	return p.Quantity
}

// UnrealizedPnL marks the position against the given price.
func (p Position) UnrealizedPnL(mark decimal.Decimal) decimal.Decimal {
	diff := mark.Sub(p.EntryPrice)
	if p.Side == Short {
		diff = diff.Neg()
	}
	return diff.Mul(p.Quantity)
}

// Notional returns the exposure size at the given mark price.
func (p Position) Notional(mark decimal.Decimal) decimal.Decimal {
	return p.Quantity.Mul(mark)
}

// EventKind classifies position transitions emitted by Apply.
type EventKind int

const (
	Opened EventKind = iota
	Increased
	Reduced
	Closed
)

func (k EventKind) String() string {
	switch k {
	case Opened:
		return "opened"
	case Increased:
		return "increased"
	case Reduced:
		return "reduced"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event describes one position transition. A fill that flips direction emits
// Closed for the old position followed by Opened for the new one.
type Event struct {
	Kind      EventKind
	Symbol    string
	Side      Side
	Quantity  decimal.Decimal // position quantity after the transition
	Timestamp int64
}

// ApplyResult is the outcome of applying one fill to the tracker.
type ApplyResult struct {
	// RealizedDelta is the signed balance impact of the fill: price
	// difference PnL on the reduced quantity minus the fee for reducing
	// fills, minus the fee alone for opening fills.
	RealizedDelta decimal.Decimal
	Events        []Event
}

// Tracker derives net exposure per symbol from the fill stream. At most one
// position per symbol is open at any simulated time.
type Tracker struct {
	positions map[string]*Position
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{positions: make(map[string]*Position)}
}

// Get returns the open position for symbol, or nil when flat.
func (t *Tracker) Get(symbol string) *Position {
	return t.positions[symbol]
}

// SignedQuantity returns the signed exposure for symbol, zero when flat.
func (t *Tracker) SignedQuantity(symbol string) decimal.Decimal {
	if p := t.positions[symbol]; p != nil {
		return p.SignedQuantity()
	}
	return decimal.Zero
}

// Exposure returns the open notional for symbol at the given mark price.
func (t *Tracker) Exposure(symbol string, mark decimal.Decimal) decimal.Decimal {
	if p := t.positions[symbol]; p != nil {
		return p.Notional(mark)
	}
	return decimal.Zero
}

// UnrealizedPnL marks the open position for symbol against the given price,
// zero when flat.
func (t *Tracker) UnrealizedPnL(symbol string, mark decimal.Decimal) decimal.Decimal {
	if p := t.positions[symbol]; p != nil {
		return p.UnrealizedPnL(mark)
	}
	return decimal.Zero
}

// Apply updates exposure from one fill and returns the realized PnL delta
// plus the position events it produced. A fill that exactly closes the
// position removes it before Apply returns, so no state exists where the
// quantity is zero but the position is still open.
func (t *Tracker) Apply(symbol string, side types.OrderSide, quantity, price, fee decimal.Decimal, ts int64) ApplyResult {
	fillSide := Long
	if side == types.Sell {
		fillSide = Short
	}

	pos := t.positions[symbol]
	if pos == nil {
		opened := &Position{
			Symbol:     symbol,
			Side:       fillSide,
			Quantity:   quantity,
			EntryPrice: price,
			OpenedAt:   ts,
		}
		t.positions[symbol] = opened
		return ApplyResult{
			RealizedDelta: fee.Neg(),
			Events: []Event{{
				Kind: Opened, Symbol: symbol, Side: fillSide, Quantity: quantity, Timestamp: ts,
			}},
		}
	}

	if pos.Side == fillSide {
		// Same direction: grow and recompute the weighted average entry.
		newQty := pos.Quantity.Add(quantity)
		pos.EntryPrice = pos.EntryPrice.Mul(pos.Quantity).Add(price.Mul(quantity)).Div(newQty)
		pos.Quantity = newQty
		return ApplyResult{
			RealizedDelta: fee.Neg(),
			Events: []Event{{
				Kind: Increased, Symbol: symbol, Side: pos.Side, Quantity: newQty, Timestamp: ts,
			}},
		}
	}

	// Opposite direction: reduce, close, or flip.
	reduced := decimal.Min(quantity, pos.Quantity)
	diff := price.Sub(pos.EntryPrice)
	if pos.Side == Short {
		diff = diff.Neg()
	}
	delta := diff.Mul(reduced).Sub(fee)

	remainder := quantity.Sub(pos.Quantity)
	switch {
	case remainder.IsNegative():
		pos.Quantity = pos.Quantity.Sub(quantity)
		return ApplyResult{
			RealizedDelta: delta,
			Events: []Event{{
				Kind: Reduced, Symbol: symbol, Side: pos.Side, Quantity: pos.Quantity, Timestamp: ts,
			}},
		}
	case remainder.IsZero():
		closedSide := pos.Side
		delete(t.positions, symbol)
		return ApplyResult{
			RealizedDelta: delta,
			Events: []Event{{
				Kind: Closed, Symbol: symbol, Side: closedSide, Quantity: decimal.Zero, Timestamp: ts,
			}},
		}
	default:
		// Flip: the old position closes in full, the remainder opens a new
		// one in the fill's direction at the fill price.
		closedSide := pos.Side
		t.positions[symbol] = &Position{
			Symbol:     symbol,
			Side:       fillSide,
			Quantity:   remainder,
			EntryPrice: price,
			OpenedAt:   ts,
		}
		return ApplyResult{
			RealizedDelta: delta,
			Events: []Event{
				{Kind: Closed, Symbol: symbol, Side: closedSide, Quantity: decimal.Zero, Timestamp: ts},
				{Kind: Opened, Symbol: symbol, Side: fillSide, Quantity: remainder, Timestamp: ts},
			},
		}
	}
}
