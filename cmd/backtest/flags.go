package main

import (
	"flag"
	"fmt"
)

// Flags holds all command line flags for the backtest command
type Flags struct {
	// Configuration
	ConfigFile *string
	DataFile   *string
	Symbol     *string
	Timeframe  *string
	Start      *string
	End        *string

	// Account settings
	InitialBalance *string
	Leverage       *string
	MakerFee       *string
	TakerFee       *string

	// Risk settings
	MaxNotional *string
	MaxDrawdown *string
	StopOnLoss  *bool
	MaxLoss     *string

	// Strategy parameters
	Strategy      *string
	OrderQuantity *string
	FastPeriod    *int
	SlowPeriod    *int
	RSIPeriod     *int
	Oversold      *float64
	Overbought    *float64

	// Execution options
	Workers     *int
	CacheDB     *string
	CyclesDB    *string
	MetricsAddr *string

	// Output options
	ReportDir   *string
	ConsoleOnly *bool
	EnvFile     *string

	// Help and version
	ShowVersion *bool
	ShowHelp    *bool
}

// NewFlags creates and registers all command line flags.
func NewFlags() *Flags {
	return &Flags{
		ConfigFile: flag.String("config", "", "YAML run configuration file (overrides most other flags)"),
		DataFile:   flag.String("data", "", "CSV candle file"),
		Symbol:     flag.String("symbol", "", "trading symbol, e.g. BTCUSDT"),
		Timeframe:  flag.String("timeframe", "5m", "candle timeframe (1m 3m 5m 15m 30m 1h 2h 4h 8h 1d 1w 1M)"),
		Start:      flag.String("start", "", "range start (2006-01-02 or RFC3339)"),
		End:        flag.String("end", "", "range end (2006-01-02 or RFC3339)"),

		InitialBalance: flag.String("balance", "", "initial balance (decimal)"),
		Leverage:       flag.String("leverage", "", "account leverage (decimal)"),
		MakerFee:       flag.String("maker-fee", "", "maker fee rate (decimal)"),
		TakerFee:       flag.String("taker-fee", "", "taker fee rate (decimal)"),

		MaxNotional: flag.String("max-notional", "", "per-order exposure cap, 0 disables"),
		MaxDrawdown: flag.String("max-drawdown", "", "halt drawdown fraction of peak equity, 0 disables"),
		StopOnLoss:  flag.Bool("stop-on-loss", true, "halt once cumulative loss reaches max-loss"),
		MaxLoss:     flag.String("max-loss", "", "halt loss fraction of initial balance"),

		Strategy:      flag.String("strategy", "sma_cross", "strategy name (sma_cross, rsi_reversion)"),
		OrderQuantity: flag.String("quantity", "0.01", "order quantity in base asset units"),
		FastPeriod:    flag.Int("fast-period", 10, "fast SMA period for sma_cross"),
		SlowPeriod:    flag.Int("slow-period", 30, "slow SMA period for sma_cross"),
		RSIPeriod:     flag.Int("rsi-period", 14, "RSI period for rsi_reversion"),
		Oversold:      flag.Float64("oversold", 30, "RSI oversold level"),
		Overbought:    flag.Float64("overbought", 70, "RSI overbought level"),

		Workers:     flag.Int("workers", 0, "parallel workers for multi-run configs, 0 = CPU count"),
		CacheDB:     flag.String("cache-db", "", "SQLite candle cache path, empty disables caching"),
		CyclesDB:    flag.String("cycles-db", "", "SQLite cycle store path, empty disables persistence"),
		MetricsAddr: flag.String("metrics-addr", "", "expose Prometheus metrics on this address, e.g. :9090"),

		ReportDir:   flag.String("report-dir", "results", "directory for report files"),
		ConsoleOnly: flag.Bool("console-only", false, "skip file reports"),
		EnvFile:     flag.String("env", ".env", "environment file"),

		ShowVersion: flag.Bool("version", false, "print version and exit"),
		ShowHelp:    flag.Bool("help", false, "print usage and exit"),
	}
}

// Validate catches flag combinations that cannot form a run.
func (f *Flags) Validate() error {
	if *f.ShowVersion || *f.ShowHelp {
		return nil
	}
	if *f.ConfigFile != "" {
		return nil
	}
	if *f.Symbol == "" {
		return fmt.Errorf("either -config or -symbol is required")
	}
	if *f.DataFile == "" {
		return fmt.Errorf("-data is required without -config")
	}
	if *f.Start == "" || *f.End == "" {
		return fmt.Errorf("-start and -end are required without -config")
	}
	return nil
}
