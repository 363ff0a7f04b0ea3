package risk

import "github.com/shopspring/decimal"

// StopReason records why a run was halted. Empty means the run ended by feed
// exhaustion. A risk halt is a normal terminal state, not an error.
type StopReason string

const (
	StopNone        StopReason = ""
	StopMaxDrawdown StopReason = "max_drawdown_exceeded"
	StopMaxLoss     StopReason = "max_loss_exceeded"
	StopCanceled    StopReason = "canceled"
)

// Enforcer is the fail-fast guard evaluated after every fill and every
// mark-to-market. Checks run in a fixed order: drawdown from the equity
// high-water mark first, then cumulative loss from the initial balance.
type Enforcer struct {
	initialBalance decimal.Decimal
	maxDrawdown    decimal.Decimal // fraction of the high-water mark, zero disables
	stopOnLoss     bool
	maxLoss        decimal.Decimal // fraction of the initial balance
	highWater      decimal.Decimal
}

// NewEnforcer builds an enforcer with the high-water mark seeded at the
// initial balance.
func NewEnforcer(initialBalance, maxDrawdown decimal.Decimal, stopOnLoss bool, maxLoss decimal.Decimal) *Enforcer {
	return &Enforcer{
		initialBalance: initialBalance,
		maxDrawdown:    maxDrawdown,
		stopOnLoss:     stopOnLoss,
		maxLoss:        maxLoss,
		highWater:      initialBalance,
	}
}

// HighWater returns the running equity peak.
func (e *Enforcer) HighWater() decimal.Decimal {
	return e.highWater
}

// Check evaluates the halt conditions against the given equity. It returns
// the stop reason and true when the run must halt; no candles may be
// processed after that.
func (e *Enforcer) Check(equity decimal.Decimal) (StopReason, bool) {
	if equity.GreaterThan(e.highWater) {
		e.highWater = equity
	}

	if e.maxDrawdown.IsPositive() && e.highWater.IsPositive() {
		drawdown := e.highWater.Sub(equity).Div(e.highWater)
		if drawdown.GreaterThan(e.maxDrawdown) {
			return StopMaxDrawdown, true
		}
	}

	if e.stopOnLoss && e.initialBalance.IsPositive() {
		loss := e.initialBalance.Sub(equity).Div(e.initialBalance)
		if loss.GreaterThanOrEqual(e.maxLoss) {
			return StopMaxLoss, true
		}
	}

	return StopNone, false
}
