package errors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Category classifies engine errors by how the runner reacts to them.
type Category string

const (
	// Fatal to the run, raised before any candle is processed.
	CategoryConfiguration Category = "CONFIG"
	// Fatal to the run, raised when the feed cannot satisfy the range.
	CategoryDataGap Category = "DATA_GAP"
	// Recovered locally: the offending order is rejected, the run continues.
	CategoryRiskLimit Category = "RISK_LIMIT"
	// Recovered locally: cancel of an unknown or terminal order is a no-op.
	CategoryOrderNotFound Category = "ORDER_NOT_FOUND"
	// Recovered locally: order rejected for insufficient margin.
	CategoryInsufficientMargin Category = "INSUFFICIENT_MARGIN"
	// Recovered locally: order rejected on parameter validation.
	CategoryOrderRejected Category = "ORDER_REJECTED"
)

// EngineError is a categorized error with the component and operation that
// produced it. Recoverable errors reject a single order; fatal ones abort the
// run before a result object exists.
type EngineError struct {
	Category   Category
	Component  string
	Operation  string
	Message    string
	Underlying error
}

func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// IsFatal reports whether the error aborts the run without a result object.
func (e *EngineError) IsFatal() bool {
	return e.Category == CategoryConfiguration || e.Category == CategoryDataGap
}

// NewConfigurationError reports an invalid run parameter. Never retried.
func NewConfigurationError(component, operation, message string) *EngineError {
	return &EngineError{
		Category:  CategoryConfiguration,
		Component: component,
		Operation: operation,
		Message:   message,
	}
}

// NewOrderRejected reports an order that failed parameter validation. The
// order is rejected; the run continues.
func NewOrderRejected(component, operation, message string) *EngineError {
	return &EngineError{
		Category:  CategoryOrderRejected,
		Component: component,
		Operation: operation,
		Message:   message,
	}
}

// DataGapError reports a feed that cannot satisfy the requested range. It
// carries the bounds of the offending gap in epoch milliseconds.
type DataGapError struct {
	Symbol    string
	Timeframe string
	GapStart  int64
	GapEnd    int64
}

func (e *DataGapError) Error() string {
	return fmt.Sprintf("[%s] feed gap for %s %s: no candles between %d and %d",
		CategoryDataGap, e.Symbol, e.Timeframe, e.GapStart, e.GapEnd)
}

// RiskLimitError reports an order whose notional exceeds the configured
// maximum. The order is rejected; the run continues.
type RiskLimitError struct {
	Symbol      string
	Notional    decimal.Decimal
	MaxNotional decimal.Decimal
}

func (e *RiskLimitError) Error() string {
	return fmt.Sprintf("[%s] order notional %s exceeds max notional %s for %s",
		CategoryRiskLimit, e.Notional, e.MaxNotional, e.Symbol)
}

// OrderNotFoundError reports a cancel against an unknown or terminal order.
type OrderNotFoundError struct {
	OrderID string
}

func (e *OrderNotFoundError) Error() string {
	return fmt.Sprintf("[%s] order %s not found or already terminal", CategoryOrderNotFound, e.OrderID)
}

// InsufficientMarginError reports an order whose margin requirement exceeds
// the available balance.
type InsufficientMarginError struct {
	Symbol   string
	Required decimal.Decimal
	Balance  decimal.Decimal
}

func (e *InsufficientMarginError) Error() string {
	return fmt.Sprintf("[%s] order on %s requires margin %s but balance is %s",
		CategoryInsufficientMargin, e.Symbol, e.Required, e.Balance)
}

// IsRecoverable reports whether err rejects a single order rather than
// aborting the run.
func IsRecoverable(err error) bool {
	var riskErr *RiskLimitError
	var notFoundErr *OrderNotFoundError
	var marginErr *InsufficientMarginError
	if errors.As(err, &riskErr) || errors.As(err, &notFoundErr) || errors.As(err, &marginErr) {
		return true
	}
	var engErr *EngineError
	if errors.As(err, &engErr) {
		return !engErr.IsFatal()
	}
	return false
}

// IsRiskLimit reports whether err is a notional limit rejection.
func IsRiskLimit(err error) bool {
	var riskErr *RiskLimitError
	return errors.As(err, &riskErr)
}

// IsInsufficientMargin reports whether err is a margin rejection.
func IsInsufficientMargin(err error) bool {
	var marginErr *InsufficientMarginError
	return errors.As(err, &marginErr)
}

// IsDataGap reports whether err is a feed gap error.
func IsDataGap(err error) bool {
	var gapErr *DataGapError
	return errors.As(err, &gapErr)
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool {
	var engErr *EngineError
	return errors.As(err, &engErr) && engErr.Category == CategoryConfiguration
}
