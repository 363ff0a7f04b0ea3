package indicators

import "errors"

// ErrInsufficientData is returned when a series is shorter than the
// indicator's warm-up period.
var ErrInsufficientData = errors.New("insufficient data for indicator calculation")

// SMA is the simple moving average over closing prices.
type SMA struct {
	period    int
	lastValue float64
}

// NewSMA creates a new SMA indicator.
func NewSMA(period int) *SMA {
	return &SMA{period: period}
}

// Calculate returns the average of the last period values.
func (s *SMA) Calculate(prices []float64) (float64, error) {
	if len(prices) < s.period {
		return 0, ErrInsufficientData
	}

	sum := 0.0
	for i := len(prices) - s.period; i < len(prices); i++ {
		sum += prices[i]
	}

	s.lastValue = sum / float64(s.period)
	return s.lastValue, nil
}

// LastValue returns the most recently calculated value.
func (s *SMA) LastValue() float64 {
	return s.lastValue
}

// GetName returns the indicator name.
func (s *SMA) GetName() string {
	return "SMA"
}

// GetRequiredPeriods returns the minimum number of data points needed.
func (s *SMA) GetRequiredPeriods() int {
	return s.period
}
