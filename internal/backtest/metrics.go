package backtest

import (
	"math"

	"github.com/shopspring/decimal"
)

const msPerDay = 24 * 60 * 60 * 1000

// UpdateMetrics computes every derived statistic from the raw run output.
// Money stays decimal up to this point; ratios are float64 analytics.
func (r *Results) UpdateMetrics() {
	if r.InitialBalance.IsPositive() {
		ret, _ := r.FinalEquity.Sub(r.InitialBalance).Div(r.InitialBalance).Float64()
		r.TotalReturnPct = ret * 100
	}

	r.WinRate = r.calculateWinRate()
	r.ProfitFactor = r.calculateProfitFactor()
	r.MaxDrawdown = r.calculateMaxDrawdown()
	r.SharpeRatio = r.calculateSharpeRatio()
	r.CalmarRatio = r.calculateCalmarRatio()
	r.CycleStats = r.calculateCycleStats()

	fees := decimal.Zero
	for _, t := range r.Trades {
		fees = fees.Add(t.Fee)
	}
	r.TotalFees = fees
}

// calculateWinRate returns the percentage of closed cycles with positive PnL.
func (r *Results) calculateWinRate() float64 {
	if len(r.Cycles) == 0 {
		return 0
	}
	wins := 0
	for _, c := range r.Cycles {
		if c.RealizedPnL.IsPositive() {
			wins++
		}
	}
	return float64(wins) / float64(len(r.Cycles)) * 100
}

// calculateProfitFactor returns gross profit over gross loss across cycles.
// A profitable run with no losing cycle returns +Inf.
func (r *Results) calculateProfitFactor() float64 {
	totalProfit := 0.0
	totalLoss := 0.0
	for _, c := range r.Cycles {
		pnl, _ := c.RealizedPnL.Float64()
		if pnl > 0 {
			totalProfit += pnl
		} else {
			totalLoss += math.Abs(pnl)
		}
	}

	if totalLoss == 0 {
		if totalProfit > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return totalProfit / totalLoss
}

// calculateMaxDrawdown returns the deepest peak-to-trough equity decline as a
// fraction of the peak.
func (r *Results) calculateMaxDrawdown() float64 {
	maxDD := 0.0
	peak := math.Inf(-1)
	for _, p := range r.EquityCurve {
		eq, _ := p.Equity.Float64()
		if eq > peak {
			peak = eq
		}
		if peak > 0 {
			dd := (peak - eq) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// calculateSharpeRatio annualizes the mean over standard deviation of daily
// equity returns by sqrt(365); crypto markets trade every day. The curve is
// resampled to the last observation of each UTC day so the result does not
// depend on the candle timeframe.
func (r *Results) calculateSharpeRatio() float64 {
	daily := r.resampleDaily()
	if len(daily) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(daily)-1)
	for i := 1; i < len(daily); i++ {
		if daily[i-1] > 0 {
			returns = append(returns, (daily[i]-daily[i-1])/daily[i-1])
		}
	}
	if len(returns) == 0 {
		return 0
	}

	avg := 0.0
	for _, ret := range returns {
		avg += ret
	}
	avg /= float64(len(returns))

	variance := 0.0
	for _, ret := range returns {
		variance += (ret - avg) * (ret - avg)
	}
	variance /= float64(len(returns))
	stdDev := math.Sqrt(variance)

	if stdDev < 1e-10 {
		return 0
	}
	return avg / stdDev * math.Sqrt(365)
}

// resampleDaily keeps the last equity observation of each UTC day.
func (r *Results) resampleDaily() []float64 {
	var daily []float64
	lastDay := int64(math.MinInt64)
	for _, p := range r.EquityCurve {
		day := p.Timestamp / msPerDay
		eq, _ := p.Equity.Float64()
		if day != lastDay {
			daily = append(daily, eq)
			lastDay = day
		} else {
			daily[len(daily)-1] = eq
		}
	}
	return daily
}

// calculateCalmarRatio returns annualized return over max drawdown, zero when
// the run never drew down or spans no time.
func (r *Results) calculateCalmarRatio() float64 {
	if r.MaxDrawdown == 0 || len(r.EquityCurve) < 2 {
		return 0
	}

	first := r.EquityCurve[0]
	last := r.EquityCurve[len(r.EquityCurve)-1]
	years := float64(last.Timestamp-first.Timestamp) / (msPerDay * 365.25)
	if years <= 0 {
		return 0
	}

	firstEq, _ := first.Equity.Float64()
	lastEq, _ := last.Equity.Float64()
	if firstEq <= 0 {
		return 0
	}

	annualized := math.Pow(lastEq/firstEq, 1/years) - 1
	return annualized / r.MaxDrawdown
}

func (r *Results) calculateCycleStats() CycleStats {
	stats := CycleStats{
		AvgPnL:   decimal.Zero,
		BestPnL:  decimal.Zero,
		WorstPnL: decimal.Zero,
	}
	if len(r.Cycles) == 0 {
		return stats
	}

	stats.Completed = len(r.Cycles)
	totalPnL := decimal.Zero
	totalDuration := 0.0
	stats.BestPnL = r.Cycles[0].RealizedPnL
	stats.WorstPnL = r.Cycles[0].RealizedPnL

	for _, c := range r.Cycles {
		totalPnL = totalPnL.Add(c.RealizedPnL)
		totalDuration += c.Duration()
		if c.Forced {
			stats.Forced++
		}
		if c.RealizedPnL.IsPositive() {
			stats.Winning++
		} else if c.RealizedPnL.IsNegative() {
			stats.Losing++
		}
		if c.RealizedPnL.GreaterThan(stats.BestPnL) {
			stats.BestPnL = c.RealizedPnL
		}
		if c.RealizedPnL.LessThan(stats.WorstPnL) {
			stats.WorstPnL = c.RealizedPnL
		}
	}

	count := decimal.NewFromInt(int64(stats.Completed))
	stats.AvgPnL = totalPnL.Div(count)
	stats.AvgDuration = totalDuration / float64(stats.Completed)
	return stats
}
