package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Timeframe identifies a candle aggregation interval.
type Timeframe string

const (
	Timeframe1m  Timeframe = "1m"
	Timeframe3m  Timeframe = "3m"
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe30m Timeframe = "30m"
	Timeframe1h  Timeframe = "1h"
	Timeframe2h  Timeframe = "2h"
	Timeframe4h  Timeframe = "4h"
	Timeframe8h  Timeframe = "8h"
	Timeframe1d  Timeframe = "1d"
	Timeframe1w  Timeframe = "1w"
	Timeframe1M  Timeframe = "1M"
)

var timeframeMinutes = map[Timeframe]int64{
	Timeframe1m:  1,
	Timeframe3m:  3,
	Timeframe5m:  5,
	Timeframe15m: 15,
	Timeframe30m: 30,
	Timeframe1h:  60,
	Timeframe2h:  120,
	Timeframe4h:  240,
	Timeframe8h:  480,
	Timeframe1d:  1440,
	Timeframe1w:  10080,
	Timeframe1M:  43200,
}

// IsValid reports whether the timeframe is one of the supported intervals.
func (tf Timeframe) IsValid() bool {
	_, ok := timeframeMinutes[tf]
	return ok
}

// Minutes returns the timeframe duration in minutes, or 0 for an unknown timeframe.
func (tf Timeframe) Minutes() int64 {
	return timeframeMinutes[tf]
}

// Millis returns the timeframe duration in milliseconds.
func (tf Timeframe) Millis() int64 {
	return tf.Minutes() * 60_000
}

// Duration returns the timeframe as a time.Duration.
func (tf Timeframe) Duration() time.Duration {
	return time.Duration(tf.Minutes()) * time.Minute
}

// Candle is one OHLCV bar. Timestamp is the bar open time in epoch
// milliseconds. Candles are produced by a feed provider and never mutated.
type Candle struct {
	Symbol    string
	Timeframe Timeframe
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
	Timestamp int64
}

// Time returns the candle open time as a time.Time in UTC.
func (c Candle) Time() time.Time {
	return time.UnixMilli(c.Timestamp).UTC()
}

// Contains reports whether price falls within the candle's [low, high] range.
func (c Candle) Contains(price decimal.Decimal) bool {
	return price.GreaterThanOrEqual(c.Low) && price.LessThanOrEqual(c.High)
}

// AccountSnapshot is the view of account state handed to strategies on every
// candle. It is a value copy: strategies cannot mutate engine state through it.
type AccountSnapshot struct {
	Balance       decimal.Decimal
	Equity        decimal.Decimal
	UsedMargin    decimal.Decimal
	Leverage      decimal.Decimal
	PositionQty   decimal.Decimal // signed: positive long, negative short, zero flat
	PositionEntry decimal.Decimal // weighted average entry, zero when flat
}

// Flat reports whether the account has no open exposure.
func (s AccountSnapshot) Flat() bool {
	return s.PositionQty.IsZero()
}
