package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/alejom99/cycletrader/internal/backtest"
	"github.com/alejom99/cycletrader/internal/logger"
	"github.com/alejom99/cycletrader/internal/monitoring"
	"github.com/alejom99/cycletrader/internal/storage"
	"github.com/alejom99/cycletrader/pkg/config"
	"github.com/alejom99/cycletrader/pkg/data"
	"github.com/alejom99/cycletrader/pkg/reporting"
)

const (
	AppName    = "Cycle Trader Backtest"
	AppVersion = "1.0.0"

	DefaultLogDir = "logs"
)

func main() {
	flags := NewFlags()
	flag.Parse()

	if *flags.ShowVersion {
		fmt.Printf("%s v%s\n", AppName, AppVersion)
		return
	}
	if *flags.ShowHelp {
		printUsageHelp()
		return
	}

	if err := flags.Validate(); err != nil {
		log.Fatalf("Flag validation error: %v", err)
	}

	printHeader()
	loadEnvironment(*flags.EnvFile)

	if *flags.MetricsAddr != "" {
		go serveMetrics(*flags.MetricsAddr)
	}

	configs, provider, err := buildRuns(flags)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	if *flags.CacheDB != "" {
		cache, err := data.NewSQLiteCache(*flags.CacheDB, provider)
		if err != nil {
			log.Fatalf("Candle cache error: %v", err)
		}
		defer cache.Close()
		provider = cache
	}

	var sink backtest.CycleSink
	if *flags.CyclesDB != "" {
		store, err := storage.NewCycleStore(*flags.CyclesDB)
		if err != nil {
			log.Fatalf("Cycle store error: %v", err)
		}
		defer store.Close()
		sink = store
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(configs) == 1 {
		runSingle(ctx, configs[0], provider, sink, flags)
		return
	}
	runBatch(configs, provider, sink, flags)
}

// runSingle executes one backtest with a per-run log file and full reports.
func runSingle(ctx context.Context, cfg backtest.Config, provider data.Provider, sink backtest.CycleSink, flags *Flags) {
	runLog, err := logger.NewLogger(DefaultLogDir, cfg.Symbol, string(cfg.Timeframe))
	if err != nil {
		log.Printf("Log file unavailable, continuing without: %v", err)
		runLog = logger.NewNop()
	}
	defer runLog.Close()

	runner := backtest.NewRunner(provider, runLog)
	if sink != nil {
		runner.SetCycleSink(sink)
	}

	results, err := runner.Run(ctx, cfg)
	if err != nil {
		log.Fatalf("Backtest error: %v", err)
	}

	report(results, flags)
}

// runBatch fans the configs out over the worker pool and reports each run.
func runBatch(configs []backtest.Config, provider data.Provider, sink backtest.CycleSink, flags *Flags) {
	pool := backtest.NewWorkerPool(*flags.Workers, len(configs), provider)
	if sink != nil {
		pool.SetCycleSink(sink)
	}
	jobResults := pool.RunBatch(configs)

	failed := 0
	for _, jr := range jobResults {
		if jr.Error != nil {
			failed++
			log.Printf("Run %s failed: %v", jr.ID, jr.Error)
			continue
		}
		fmt.Printf("\nRun %s finished in %s\n", jr.ID, jr.Duration.Round(time.Millisecond))
		report(jr.Results, flags)
	}
	fmt.Printf("\n%d/%d runs completed\n", len(jobResults)-failed, len(jobResults))
}

func report(results *backtest.Results, flags *Flags) {
	console := reporting.NewConsoleReporter()
	if err := console.OutputResults(results); err != nil {
		log.Printf("Console report error: %v", err)
	}
	if *flags.ConsoleOnly {
		return
	}

	reporters := []reporting.Reporter{
		reporting.NewJSONReporter(reporting.ReportPath(*flags.ReportDir, "json", results)),
		reporting.NewCSVReporter(
			reporting.ReportPath(*flags.ReportDir, "trades.csv", results),
			reporting.ReportPath(*flags.ReportDir, "equity.csv", results),
		),
		reporting.NewExcelReporter(reporting.ReportPath(*flags.ReportDir, "xlsx", results)),
	}
	for _, r := range reporters {
		if err := r.OutputResults(results); err != nil {
			log.Printf("Report error: %v", err)
		}
	}
}

// buildRuns resolves the run list and its candle source, either from the
// YAML config file or from the single-run flags.
func buildRuns(flags *Flags) ([]backtest.Config, data.Provider, error) {
	if *flags.ConfigFile == "" {
		cfg, err := configFromFlags(flags)
		if err != nil {
			return nil, nil, err
		}
		return []backtest.Config{cfg}, data.NewCSVProvider(*flags.DataFile), nil
	}

	file, err := config.Load(*flags.ConfigFile)
	if err != nil {
		return nil, nil, err
	}

	mux := data.NewMux()
	configs := make([]backtest.Config, 0, len(file.Runs))
	for _, rc := range file.Runs {
		cfg, err := rc.ToBacktestConfig()
		if err != nil {
			return nil, nil, err
		}
		dataFile := rc.DataFile
		if file.DataDir != "" && !filepath.IsAbs(dataFile) {
			dataFile = filepath.Join(file.DataDir, dataFile)
		}
		mux.Register(cfg.Symbol, cfg.Timeframe, data.NewCSVProvider(dataFile))
		configs = append(configs, cfg)
	}
	return configs, mux, nil
}

func configFromFlags(flags *Flags) (backtest.Config, error) {
	rc := config.RunConfig{
		Symbol:         *flags.Symbol,
		Timeframe:      *flags.Timeframe,
		Start:          *flags.Start,
		End:            *flags.End,
		InitialBalance: *flags.InitialBalance,
		Leverage:       *flags.Leverage,
		MakerFee:       *flags.MakerFee,
		TakerFee:       *flags.TakerFee,
		MaxNotional:    *flags.MaxNotional,
		MaxDrawdown:    *flags.MaxDrawdown,
		StopOnLoss:     flags.StopOnLoss,
		MaxLoss:        *flags.MaxLoss,
		Strategy: config.StrategyConfig{
			Name:          *flags.Strategy,
			OrderQuantity: *flags.OrderQuantity,
			FastPeriod:    *flags.FastPeriod,
			SlowPeriod:    *flags.SlowPeriod,
			RSIPeriod:     *flags.RSIPeriod,
			Oversold:      *flags.Oversold,
			Overbought:    *flags.Overbought,
		},
	}
	return rc.ToBacktestConfig()
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.NewMetricsHandler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("Metrics server error: %v", err)
	}
}

func loadEnvironment(envFile string) {
	if err := godotenv.Load(envFile); err != nil && envFile != ".env" {
		log.Printf("Environment file %s not loaded: %v", envFile, err)
	}
}

func printHeader() {
	fmt.Printf("%s v%s\n", strings.ToUpper(AppName), AppVersion)
	fmt.Printf("%s\n\n", strings.Repeat("=", 50))
}

func printUsageHelp() {
	fmt.Printf("%s v%s - Deterministic strategy backtesting\n\n", AppName, AppVersion)
	fmt.Printf("USAGE:\n  %s [OPTIONS]\n\n", filepath.Base(os.Args[0]))
	fmt.Println("EXAMPLES:")
	fmt.Println("  backtest -symbol BTCUSDT -data candles.csv -start 2024-01-01 -end 2024-06-01")
	fmt.Println("  backtest -config runs.yaml -workers 4 -cycles-db cycles.db")
	fmt.Println("  backtest -symbol ETHUSDT -data eth.csv -start 2024-01-01 -end 2024-02-01 \\")
	fmt.Println("           -strategy rsi_reversion -rsi-period 14 -quantity 0.5")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
}
