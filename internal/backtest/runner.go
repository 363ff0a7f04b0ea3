package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alejom99/cycletrader/internal/cycle"
	engerrors "github.com/alejom99/cycletrader/internal/errors"
	"github.com/alejom99/cycletrader/internal/exchange"
	"github.com/alejom99/cycletrader/internal/logger"
	"github.com/alejom99/cycletrader/internal/monitoring"
	"github.com/alejom99/cycletrader/internal/position"
	"github.com/alejom99/cycletrader/internal/risk"
	"github.com/alejom99/cycletrader/internal/strategy"
	"github.com/alejom99/cycletrader/pkg/data"
)

// progressInterval is how many candles pass between progress log lines.
const progressInterval = 10000

// CycleSink receives every closed cycle as the run produces it. Sinks must
// not mutate the cycle.
type CycleSink interface {
	SaveCycle(runID string, c cycle.Cycle) error
}

// Runner executes one backtest per Run call. All engine state is created
// inside Run, so a single Runner is safe for sequential reuse and separate
// Runners never share anything.
type Runner struct {
	provider data.Provider
	log      *logger.Logger
	sink     CycleSink
}

// NewRunner creates a runner over the given candle provider. A nil log is
// replaced by the nop logger.
func NewRunner(provider data.Provider, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.NewNop()
	}
	return &Runner{provider: provider, log: log}
}

// SetCycleSink attaches a destination for closed cycles, typically the
// cycle store.
func (r *Runner) SetCycleSink(sink CycleSink) {
	r.sink = sink
}

// Run executes the full candle loop and returns the aggregated results.
// Recoverable order errors are recorded as warnings and the run continues; a
// risk halt ends the run early with the reason in Results.StopReason. Only
// configuration problems, broken data and sink failures return an error.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Results, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	strat, err := strategy.NewStrategy(cfg.StrategyName, cfg.StrategyParams)
	if err != nil {
		return nil, err
	}
	return r.RunStrategy(ctx, cfg, strat)
}

// RunStrategy runs the candle loop with an already constructed strategy.
// Config validation is the caller's concern here.
func (r *Runner) RunStrategy(ctx context.Context, cfg Config, strat strategy.Strategy) (*Results, error) {
	candles, err := r.provider.GetCandles(cfg.Symbol, cfg.Timeframe, cfg.StartMs, cfg.EndMs)
	if err != nil {
		return nil, err
	}
	if err := data.ValidateSeries(candles, cfg.Symbol, cfg.Timeframe, cfg.GapToleranceBars); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	started := time.Now()
	r.log.Info("run %s: %s %s, %d candles, strategy %s",
		runID, cfg.Symbol, cfg.Timeframe, len(candles), strat.GetName())

	tracker := position.NewTracker()
	sim := exchange.NewSimulator(exchange.Config{
		InitialBalance: cfg.InitialBalance,
		Leverage:       cfg.Leverage,
		MakerFee:       cfg.MakerFee,
		TakerFee:       cfg.TakerFee,
		MaxNotional:    cfg.MaxNotional,
	}, tracker)
	agg := cycle.NewAggregator()
	enforcer := risk.NewEnforcer(cfg.InitialBalance, cfg.MaxDrawdown, cfg.StopOnLoss, cfg.MaxLoss)

	results := &Results{
		RunID:          runID,
		Config:         cfg,
		InitialBalance: cfg.InitialBalance,
		CandlesTotal:   len(candles),
	}

loop:
	for i, candle := range candles {
		select {
		case <-ctx.Done():
			results.StopReason = risk.StopCanceled
			break loop
		default:
		}

		for _, fr := range sim.Advance(candle) {
			if err := r.applyFill(runID, results, agg, fr); err != nil {
				return nil, err
			}
		}

		snapshot := sim.Snapshot(cfg.Symbol)
		for _, req := range strat.OnCandle(candles[:i+1], snapshot) {
			order, fills, err := sim.PlaceOrder(req)
			results.OrdersPlaced++
			if err != nil {
				if !engerrors.IsRecoverable(err) {
					return nil, err
				}
				results.OrdersRejected++
				results.Warnings = append(results.Warnings,
					fmt.Sprintf("order %s rejected: %v", order.ID, err))
				monitoring.RecordRejection(rejectionReason(err))
				r.log.Warning("order %s rejected: %v", order.ID, err)
				continue
			}
			for _, fr := range fills {
				if err := r.applyFill(runID, results, agg, fr); err != nil {
					return nil, err
				}
			}
		}

		equity := sim.Equity(cfg.Symbol)
		results.EquityCurve = append(results.EquityCurve, EquityPoint{
			Timestamp: candle.Timestamp,
			Equity:    equity,
			Balance:   sim.Balance(),
			Exposure:  tracker.Exposure(cfg.Symbol, candle.Close),
		})
		results.CandlesConsumed++

		if reason, halt := enforcer.Check(equity); halt {
			results.StopReason = reason
			r.log.Warning("run halted at %s: %s", candle.Time().Format(time.RFC3339), reason)
			break loop
		}

		if (i+1)%progressInterval == 0 {
			r.log.Status("processed %d/%d candles, equity %s", i+1, len(candles), equity.StringFixed(2))
		}
	}

	if err := r.finalize(runID, cfg, results, sim, tracker, agg); err != nil {
		return nil, err
	}

	monitoring.RecordCandles(cfg.Symbol, string(cfg.Timeframe), results.CandlesConsumed)
	monitoring.RecordRun(cfg.Symbol, runOutcome(results), time.Since(started))
	r.log.Info("run %s finished: balance %s, equity %s, %d cycles, stop=%q",
		runID, results.FinalBalance.StringFixed(2), results.FinalEquity.StringFixed(2),
		len(results.Cycles), results.StopReason)

	return results, nil
}

// applyFill routes one settled fill into the ledgers and the cycle stream.
func (r *Runner) applyFill(runID string, results *Results, agg *cycle.Aggregator, fr exchange.FillResult) error {
	results.Trades = append(results.Trades, fr.Trade)
	monitoring.RecordFill(fr.Trade.Symbol, string(fr.Trade.Side))
	r.log.Trade("%s %s %s @ %s, pnl delta %s",
		fr.Trade.Side, fr.Trade.Quantity.String(), fr.Trade.Symbol,
		fr.Trade.Price.String(), fr.Trade.RealizedPnLDelta.StringFixed(4))

	for _, closed := range agg.OnFill(fr.Trade, fr.Events) {
		results.Cycles = append(results.Cycles, closed)
		if r.sink != nil {
			if err := r.sink.SaveCycle(runID, closed); err != nil {
				return fmt.Errorf("save cycle %s: %w", closed.ID, err)
			}
		}
	}
	return nil
}

// finalize settles the end-of-run state. A halted run force-closes the open
// cycle at the last mark; a run that merely ran out of candles leaves the
// position open and reports its mark in UnrealizedAtEnd.
func (r *Runner) finalize(runID string, cfg Config, results *Results, sim *exchange.Simulator, tracker *position.Tracker, agg *cycle.Aggregator) error {
	for _, open := range sim.OpenOrders() {
		if _, err := sim.CancelOrder(open.ID); err != nil {
			results.Warnings = append(results.Warnings,
				fmt.Sprintf("cancel order %s at end of run: %v", open.ID, err))
		}
	}

	results.FinalBalance = sim.Balance()
	results.FinalEquity = sim.Equity(cfg.Symbol)
	results.UnrealizedAtEnd = results.FinalEquity.Sub(results.FinalBalance)
	results.RealizedPnL = results.FinalBalance.Sub(cfg.InitialBalance)
	results.Liquidated = sim.Liquidated()

	if results.Halted() {
		if len(results.EquityCurve) > 0 {
			last := results.EquityCurve[len(results.EquityCurve)-1]
			if forced, ok := agg.ForceClose(cfg.Symbol, last.Timestamp, results.UnrealizedAtEnd); ok {
				results.Cycles = append(results.Cycles, forced)
				if r.sink != nil {
					if err := r.sink.SaveCycle(runID, forced); err != nil {
						return fmt.Errorf("save forced cycle %s: %w", forced.ID, err)
					}
				}
			}
		}
	} else if agg.Active(cfg.Symbol) != nil {
		results.Warnings = append(results.Warnings, "run ended with an open position")
	}

	// The balance must move exactly by the sum of realized deltas.
	delta := decimalSum(results)
	drift := results.FinalBalance.Sub(cfg.InitialBalance).Sub(delta)
	if results.Liquidated {
		// Liquidation wipes the balance outside the trade ledger.
		drift = decimal.Zero
	}
	if !drift.IsZero() {
		results.Warnings = append(results.Warnings,
			fmt.Sprintf("balance drift %s against trade ledger", drift.String()))
	}

	results.UpdateMetrics()
	return nil
}

func decimalSum(results *Results) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range results.Trades {
		sum = sum.Add(t.RealizedPnLDelta)
	}
	return sum
}

func runOutcome(results *Results) string {
	switch {
	case results.Liquidated:
		return "liquidated"
	case results.Halted():
		return "halted"
	default:
		return "completed"
	}
}

func rejectionReason(err error) string {
	switch {
	case engerrors.IsRiskLimit(err):
		return "risk_limit"
	case engerrors.IsInsufficientMargin(err):
		return "insufficient_margin"
	default:
		return "rejected"
	}
}
