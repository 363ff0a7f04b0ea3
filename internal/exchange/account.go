package exchange

import "github.com/shopspring/decimal"

// Account is the simulated balance and margin state. Balance moves only on
// fills (fees and realized PnL); equity is balance plus unrealized PnL marked
// against the latest candle close.
type Account struct {
	balance  decimal.Decimal
	leverage decimal.Decimal
}

func newAccount(balance, leverage decimal.Decimal) *Account {
	if leverage.LessThanOrEqual(decimal.Zero) {
		leverage = decimal.NewFromInt(1)
	}
	return &Account{balance: balance, leverage: leverage}
}

// Balance returns the settled cash balance.
func (a *Account) Balance() decimal.Decimal {
	return a.balance
}

// Leverage returns the account leverage multiplier.
func (a *Account) Leverage() decimal.Decimal {
	return a.leverage
}

func (a *Account) add(delta decimal.Decimal) {
	a.balance = a.balance.Add(delta)
}

// zero wipes the balance after a liquidation.
func (a *Account) zero() {
	a.balance = decimal.Zero
}

// marginFor returns the margin a notional exposure consumes.
func (a *Account) marginFor(notional decimal.Decimal) decimal.Decimal {
	return notional.Div(a.leverage)
}
