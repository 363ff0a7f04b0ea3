package indicators

import "math"

// RSI calculates the Relative Strength Index.
type RSI struct {
	period    int
	lastValue float64
}

// NewRSI creates a new RSI indicator with the given period.
func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

// Calculate computes the RSI over the last period price changes. A series
// with no losses returns 100.
func (r *RSI) Calculate(prices []float64) (float64, error) {
	if len(prices) < r.period+1 {
		return 0, ErrInsufficientData
	}

	changes := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		changes[i-1] = prices[i] - prices[i-1]
	}

	gains := 0.0
	losses := 0.0
	for _, change := range changes[len(changes)-r.period:] {
		if change > 0 {
			gains += change
		} else {
			losses += math.Abs(change)
		}
	}

	avgGain := gains / float64(r.period)
	avgLoss := losses / float64(r.period)

	if avgLoss == 0 {
		r.lastValue = 100
		return 100, nil
	}

	rs := avgGain / avgLoss
	r.lastValue = 100 - (100 / (1 + rs))
	return r.lastValue, nil
}

// LastValue returns the most recently calculated value.
func (r *RSI) LastValue() float64 {
	return r.lastValue
}

// GetName returns the indicator name.
func (r *RSI) GetName() string {
	return "RSI"
}

// GetRequiredPeriods returns the minimum number of data points needed.
func (r *RSI) GetRequiredPeriods() int {
	return r.period + 1
}
