package types

import "github.com/shopspring/decimal"

// OrderSide is the direction of an order.
type OrderSide string

const (
	Buy  OrderSide = "buy"
	Sell OrderSide = "sell"
)

// Opposite returns the other side.
func (s OrderSide) Opposite() OrderSide {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Sign returns +1 for buys and -1 for sells.
func (s OrderSide) Sign() decimal.Decimal {
	if s == Buy {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(-1)
}

// OrderType distinguishes immediate from resting orders.
type OrderType string

const (
	Market OrderType = "market"
	Limit  OrderType = "limit"
)

// OrderStatus is the order state machine:
//
//	NEW -> {PARTIALLY_FILLED -> FILLED | CANCELED | REJECTED}
//
// REJECTED is immediate on validation failure. FILLED, CANCELED and REJECTED
// are terminal; terminal orders are retained for audit. The simulator models
// unlimited liquidity and fills every order in one step, so PARTIALLY_FILLED
// is reserved for partial-liquidity fill models and is never emitted today.
type OrderStatus string

const (
	OrderNew             OrderStatus = "NEW"
	OrderPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderFilled          OrderStatus = "FILLED"
	OrderCanceled        OrderStatus = "CANCELED"
	OrderRejected        OrderStatus = "REJECTED"
)

// IsTerminal reports whether the status admits no further transitions.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderFilled || s == OrderCanceled || s == OrderRejected
}

// OrderRequest is a trading intent produced by a strategy. Price is ignored
// for market orders and required for limit orders.
type OrderRequest struct {
	Symbol   string
	Side     OrderSide
	Type     OrderType
	Quantity decimal.Decimal
	Price    decimal.Decimal
}

// Order is the booked form of a request, tracked through its lifecycle. Seq
// is the submission counter used for deterministic time-priority tie breaks.
type Order struct {
	ID             string
	Symbol         string
	Side           OrderSide
	Type           OrderType
	Quantity       decimal.Decimal
	Price          decimal.Decimal // limit price; fill price for market orders
	FilledQuantity decimal.Decimal
	Status         OrderStatus
	CreatedAt      int64 // epoch ms, simulated time
	Seq            uint64
}

// Trade is one executed match of an order against simulated liquidity.
// Created exactly once per fill event and immutable afterward.
// RealizedPnLDelta is the signed balance impact of the fill: for fills that
// reduce exposure it is the price difference PnL minus the fee, for fills
// that open or increase exposure it is minus the fee.
type Trade struct {
	ID               string
	OrderID          string
	Symbol           string
	Side             OrderSide
	Price            decimal.Decimal
	Quantity         decimal.Decimal
	Fee              decimal.Decimal
	Timestamp        int64 // epoch ms, simulated time
	RealizedPnLDelta decimal.Decimal
}

// Notional returns the nominal exposure of the trade.
func (t Trade) Notional() decimal.Decimal {
	return t.Quantity.Mul(t.Price).Abs()
}
