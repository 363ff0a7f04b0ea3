package indicators

// EMA is the exponential moving average over closing prices.
type EMA struct {
	period    int
	lastValue float64
}

// NewEMA creates a new EMA indicator.
func NewEMA(period int) *EMA {
	return &EMA{period: period}
}

// Calculate seeds the EMA with an SMA over the first period values and then
// applies the standard smoothing factor 2/(period+1) across the rest.
func (e *EMA) Calculate(prices []float64) (float64, error) {
	if len(prices) < e.period {
		return 0, ErrInsufficientData
	}

	sum := 0.0
	for i := 0; i < e.period; i++ {
		sum += prices[i]
	}
	ema := sum / float64(e.period)

	multiplier := 2.0 / float64(e.period+1)
	for i := e.period; i < len(prices); i++ {
		ema = (prices[i]-ema)*multiplier + ema
	}

	e.lastValue = ema
	return ema, nil
}

// LastValue returns the most recently calculated value.
func (e *EMA) LastValue() float64 {
	return e.lastValue
}

// GetName returns the indicator name.
func (e *EMA) GetName() string {
	return "EMA"
}

// GetRequiredPeriods returns the minimum number of data points needed.
func (e *EMA) GetRequiredPeriods() int {
	return e.period
}
