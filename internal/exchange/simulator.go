package exchange

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	engerrors "github.com/alejom99/cycletrader/internal/errors"
	"github.com/alejom99/cycletrader/internal/position"
	"github.com/alejom99/cycletrader/pkg/types"
)

// Config holds the simulator parameters for one run.
type Config struct {
	InitialBalance decimal.Decimal
	Leverage       decimal.Decimal
	MakerFee       decimal.Decimal // per-notional rate for limit fills
	TakerFee       decimal.Decimal // per-notional rate for market fills
	MaxNotional    decimal.Decimal // zero disables the notional check
}

// FillResult bundles one trade with the position events it produced, in the
// order they must be observed.
type FillResult struct {
	Trade  types.Trade
	Events []position.Event
}

// Simulator matches and settles orders against incoming candles. It owns the
// simulated account and the order/trade ledgers; net exposure lives in the
// position tracker so fills, realized PnL and position transitions stay
// atomic per fill.
//
// All state is private to one run. Parallel runs construct independent
// simulators and never share anything.
type Simulator struct {
	cfg     Config
	account *Account
	tracker *position.Tracker

	orders  map[string]*types.Order // every order ever placed, by id
	resting []*types.Order          // open limit orders in submission order
	trades  []types.Trade

	current    *types.Candle
	orderSeq   uint64
	tradeSeq   uint64
	liquidated bool
}

// NewSimulator returns a simulator with a fresh account and position tracker.
func NewSimulator(cfg Config, tracker *position.Tracker) *Simulator {
	return &Simulator{
		cfg:     cfg,
		account: newAccount(cfg.InitialBalance, cfg.Leverage),
		tracker: tracker,
		orders:  make(map[string]*types.Order),
	}
}

// Balance returns the settled cash balance.
func (s *Simulator) Balance() decimal.Decimal {
	return s.account.Balance()
}

// Liquidated reports whether the account went bankrupt during the run.
func (s *Simulator) Liquidated() bool {
	return s.liquidated
}

// Trades returns the fill ledger in execution order.
func (s *Simulator) Trades() []types.Trade {
	return s.trades
}

// OpenOrders returns the resting limit orders in submission order.
func (s *Simulator) OpenOrders() []types.Order {
	out := make([]types.Order, 0, len(s.resting))
	for _, o := range s.resting {
		out = append(out, *o)
	}
	return out
}

// Order returns the order with the given id, terminal ones included.
func (s *Simulator) Order(id string) (types.Order, bool) {
	o, ok := s.orders[id]
	if !ok {
		return types.Order{}, false
	}
	return *o, true
}

// Snapshot builds the account view handed to strategies, marked against the
// latest candle close.
func (s *Simulator) Snapshot(symbol string) types.AccountSnapshot {
	snap := types.AccountSnapshot{
		Balance:  s.account.Balance(),
		Equity:   s.account.Balance(),
		Leverage: s.account.Leverage(),
	}
	if s.current == nil {
		return snap
	}
	mark := s.current.Close
	snap.Equity = s.account.Balance().Add(s.tracker.UnrealizedPnL(symbol, mark))
	snap.UsedMargin = s.account.marginFor(s.tracker.Exposure(symbol, mark))
	if pos := s.tracker.Get(symbol); pos != nil {
		snap.PositionQty = pos.SignedQuantity()
		snap.PositionEntry = pos.EntryPrice
	}
	return snap
}

// Equity returns balance plus unrealized PnL at the latest close.
func (s *Simulator) Equity(symbol string) decimal.Decimal {
	if s.current == nil {
		return s.account.Balance()
	}
	return s.account.Balance().Add(s.tracker.UnrealizedPnL(symbol, s.current.Close))
}

// Advance moves simulated time to the given candle: it checks for
// liquidation against the candle extremes, then settles any resting limit
// orders the candle touches. Resting orders are matched with price-then-time
// priority: buys from the highest limit down, sells from the lowest limit up,
// ties broken by submission order. Fill price is the limit price itself, not
// the touched extreme.
func (s *Simulator) Advance(candle types.Candle) []FillResult {
	s.current = &candle

	var fills []FillResult
	if fr, ok := s.checkLiquidation(candle); ok {
		fills = append(fills, fr)
	}

	for _, order := range s.matchable(candle) {
		fills = append(fills, s.fill(order, order.Price, candle.Timestamp, s.cfg.MakerFee))
		s.removeResting(order.ID)
	}
	return fills
}

// PlaceOrder validates and books a new order. Market orders fill immediately
// at the current candle close; limit orders rest until a candle touches their
// price. Validation failures reject the order and return a recoverable error;
// the run continues.
func (s *Simulator) PlaceOrder(req types.OrderRequest) (types.Order, []FillResult, error) {
	order := s.newOrder(req)

	if err := s.validate(req); err != nil {
		order.Status = types.OrderRejected
		return *order, nil, err
	}

	refPrice := req.Price
	if req.Type == types.Market {
		refPrice = s.current.Close
	}
	if err := s.checkRisk(req, refPrice); err != nil {
		order.Status = types.OrderRejected
		return *order, nil, err
	}

	if req.Type == types.Market {
		order.Price = refPrice
		fr := s.fill(order, refPrice, s.current.Timestamp, s.cfg.TakerFee)
		return *order, []FillResult{fr}, nil
	}

	s.resting = append(s.resting, order)
	return *order, nil, nil
}

// CancelOrder transitions a resting order to CANCELED. Unknown or terminal
// orders return OrderNotFoundError; the caller reports a warning and moves on.
func (s *Simulator) CancelOrder(id string) (types.Order, error) {
	order, ok := s.orders[id]
	if !ok || order.Status.IsTerminal() {
		return types.Order{}, &engerrors.OrderNotFoundError{OrderID: id}
	}
	order.Status = types.OrderCanceled
	s.removeResting(id)
	return *order, nil
}

func (s *Simulator) newOrder(req types.OrderRequest) *types.Order {
	s.orderSeq++
	var ts int64
	if s.current != nil {
		ts = s.current.Timestamp
	}
	order := &types.Order{
		ID:        fmt.Sprintf("ord-%06d", s.orderSeq),
		Symbol:    req.Symbol,
		Side:      req.Side,
		Type:      req.Type,
		Quantity:  req.Quantity,
		Price:     req.Price,
		Status:    types.OrderNew,
		CreatedAt: ts,
		Seq:       s.orderSeq,
	}
	s.orders[order.ID] = order
	return order
}

func (s *Simulator) validate(req types.OrderRequest) error {
	if req.Quantity.LessThanOrEqual(decimal.Zero) {
		return engerrors.NewOrderRejected("exchange", "place_order", "quantity must be positive")
	}
	if req.Type == types.Limit && req.Price.LessThanOrEqual(decimal.Zero) {
		return engerrors.NewOrderRejected("exchange", "place_order", "limit orders require a positive price")
	}
	if req.Type == types.Market && !req.Price.IsZero() {
		return engerrors.NewOrderRejected("exchange", "place_order", "market orders must not specify a price")
	}
	if req.Type == types.Market && s.current == nil {
		return engerrors.NewOrderRejected("exchange", "place_order", "no candle seen yet for market order")
	}
	return nil
}

// checkRisk enforces the max-notional and margin limits for orders that
// increase exposure. Reducing orders always pass.
func (s *Simulator) checkRisk(req types.OrderRequest, refPrice decimal.Decimal) error {
	current := s.tracker.SignedQuantity(req.Symbol)
	after := current.Add(req.Quantity.Mul(req.Side.Sign()))
	if after.Abs().LessThanOrEqual(current.Abs()) {
		return nil
	}

	orderNotional := req.Quantity.Mul(refPrice)
	exposure := current.Abs().Mul(refPrice)

	if s.cfg.MaxNotional.IsPositive() && exposure.Add(orderNotional).GreaterThan(s.cfg.MaxNotional) {
		return &engerrors.RiskLimitError{
			Symbol:      req.Symbol,
			Notional:    exposure.Add(orderNotional),
			MaxNotional: s.cfg.MaxNotional,
		}
	}

	required := s.account.marginFor(orderNotional)
	if required.GreaterThan(s.account.Balance()) {
		return &engerrors.InsufficientMarginError{
			Symbol:   req.Symbol,
			Required: required,
			Balance:  s.account.Balance(),
		}
	}
	return nil
}

// matchable returns resting orders the candle touches, in fill priority
// order. A buy limit fills once the low trades at or below its price, a sell
// limit once the high trades at or above it. On a gap through the level the
// fill price is still the limit price, never the better extreme.
func (s *Simulator) matchable(candle types.Candle) []*types.Order {
	var touched []*types.Order
	for _, o := range s.resting {
		if o.Symbol != candle.Symbol {
			continue
		}
		if o.Side == types.Buy && candle.Low.LessThanOrEqual(o.Price) {
			touched = append(touched, o)
		}
		if o.Side == types.Sell && candle.High.GreaterThanOrEqual(o.Price) {
			touched = append(touched, o)
		}
	}
	sort.SliceStable(touched, func(i, j int) bool {
		a, b := touched[i], touched[j]
		if a.Side != b.Side {
			return a.Side == types.Buy
		}
		if !a.Price.Equal(b.Price) {
			if a.Side == types.Buy {
				return a.Price.GreaterThan(b.Price)
			}
			return a.Price.LessThan(b.Price)
		}
		return a.Seq < b.Seq
	})
	return touched
}

// fill settles an order completely at the given price, applies the fee to the
// balance together with any realized PnL, and records the trade. The position
// update and the trade creation are one atomic step.
func (s *Simulator) fill(order *types.Order, price decimal.Decimal, ts int64, feeRate decimal.Decimal) FillResult {
	fee := order.Quantity.Mul(price).Mul(feeRate).Abs()
	res := s.tracker.Apply(order.Symbol, order.Side, order.Quantity, price, fee, ts)
	s.account.add(res.RealizedDelta)

	order.FilledQuantity = order.Quantity
	order.Status = types.OrderFilled

	s.tradeSeq++
	trade := types.Trade{
		ID:               fmt.Sprintf("trd-%06d", s.tradeSeq),
		OrderID:          order.ID,
		Symbol:           order.Symbol,
		Side:             order.Side,
		Price:            price,
		Quantity:         order.Quantity,
		Fee:              fee,
		Timestamp:        ts,
		RealizedPnLDelta: res.RealizedDelta,
	}
	s.trades = append(s.trades, trade)
	return FillResult{Trade: trade, Events: res.Events}
}

// checkLiquidation marks the open position at the candle's worst extreme
// (low for longs, high for shorts). If balance plus that worst-case
// unrealized PnL goes below zero the position is force-flattened at the
// extreme with no fee and the balance is wiped to zero.
func (s *Simulator) checkLiquidation(candle types.Candle) (FillResult, bool) {
	pos := s.tracker.Get(candle.Symbol)
	if pos == nil {
		return FillResult{}, false
	}

	worst := candle.Low
	if pos.Side == position.Short {
		worst = candle.High
	}
	if s.account.Balance().Add(pos.UnrealizedPnL(worst)).GreaterThanOrEqual(decimal.Zero) {
		return FillResult{}, false
	}

	closeSide := types.Sell
	if pos.Side == position.Short {
		closeSide = types.Buy
	}
	s.orderSeq++
	order := &types.Order{
		ID:        fmt.Sprintf("ord-%06d", s.orderSeq),
		Symbol:    candle.Symbol,
		Side:      closeSide,
		Type:      types.Market,
		Quantity:  pos.Quantity,
		Price:     worst,
		Status:    types.OrderNew,
		CreatedAt: candle.Timestamp,
		Seq:       s.orderSeq,
	}
	s.orders[order.ID] = order

	fr := s.fill(order, worst, candle.Timestamp, decimal.Zero)
	s.account.zero()
	s.liquidated = true
	return fr, true
}

func (s *Simulator) removeResting(id string) {
	for i, o := range s.resting {
		if o.ID == id {
			s.resting = append(s.resting[:i], s.resting[i+1:]...)
			return
		}
	}
}
