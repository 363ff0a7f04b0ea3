package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/alejom99/cycletrader/internal/backtest"
	engerrors "github.com/alejom99/cycletrader/internal/errors"
	"github.com/alejom99/cycletrader/internal/strategy"
	"github.com/alejom99/cycletrader/pkg/types"
)

// File is the top-level YAML document: shared settings plus one entry per
// run. Decimal fields are YAML strings so values survive parsing exactly.
type File struct {
	DataDir   string      `yaml:"data_dir"`
	CacheDB   string      `yaml:"cache_db"`
	CyclesDB  string      `yaml:"cycles_db"`
	LogDir    string      `yaml:"log_dir"`
	ReportDir string      `yaml:"report_dir"`
	Runs      []RunConfig `yaml:"runs"`
}

// RunConfig describes one backtest in the file.
type RunConfig struct {
	Symbol    string `yaml:"symbol"`
	Timeframe string `yaml:"timeframe"`
	Start     string `yaml:"start"` // 2006-01-02 or RFC3339
	End       string `yaml:"end"`
	DataFile  string `yaml:"data_file"`

	InitialBalance string `yaml:"initial_balance"`
	Leverage       string `yaml:"leverage"`
	MakerFee       string `yaml:"maker_fee"`
	TakerFee       string `yaml:"taker_fee"`
	MaxNotional    string `yaml:"max_notional"`
	MaxDrawdown    string `yaml:"max_drawdown"`
	StopOnLoss     *bool  `yaml:"stop_on_loss"`
	MaxLoss        string `yaml:"max_loss"`

	GapToleranceBars *int           `yaml:"gap_tolerance_bars"`
	Strategy         StrategyConfig `yaml:"strategy"`
}

// StrategyConfig selects and tunes the strategy for a run.
type StrategyConfig struct {
	Name          string  `yaml:"name"`
	OrderQuantity string  `yaml:"order_quantity"`
	FastPeriod    int     `yaml:"fast_period"`
	SlowPeriod    int     `yaml:"slow_period"`
	RSIPeriod     int     `yaml:"rsi_period"`
	Oversold      float64 `yaml:"oversold"`
	Overbought    float64 `yaml:"overbought"`
}

// Load reads and parses the YAML config file.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, engerrors.NewConfigurationError("config", "load", fmt.Sprintf("read %s: %v", path, err))
	}

	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, engerrors.NewConfigurationError("config", "load", fmt.Sprintf("parse %s: %v", path, err))
	}
	if len(f.Runs) == 0 {
		return nil, engerrors.NewConfigurationError("config", "load", "at least one run is required")
	}
	return &f, nil
}

// ToBacktestConfig converts the YAML entry into the engine config, filling
// unset fields from the defaults.
func (rc RunConfig) ToBacktestConfig() (backtest.Config, error) {
	cfg := backtest.DefaultConfig()
	cfg.Symbol = rc.Symbol
	if rc.Timeframe != "" {
		cfg.Timeframe = types.Timeframe(rc.Timeframe)
	}

	start, err := parseTime(rc.Start)
	if err != nil {
		return cfg, engerrors.NewConfigurationError("config", "parse_run", fmt.Sprintf("start: %v", err))
	}
	end, err := parseTime(rc.End)
	if err != nil {
		return cfg, engerrors.NewConfigurationError("config", "parse_run", fmt.Sprintf("end: %v", err))
	}
	cfg.StartMs = start.UnixMilli()
	cfg.EndMs = end.UnixMilli()

	for _, field := range []struct {
		raw  string
		dest *decimal.Decimal
		name string
	}{
		{rc.InitialBalance, &cfg.InitialBalance, "initial_balance"},
		{rc.Leverage, &cfg.Leverage, "leverage"},
		{rc.MakerFee, &cfg.MakerFee, "maker_fee"},
		{rc.TakerFee, &cfg.TakerFee, "taker_fee"},
		{rc.MaxNotional, &cfg.MaxNotional, "max_notional"},
		{rc.MaxDrawdown, &cfg.MaxDrawdown, "max_drawdown"},
		{rc.MaxLoss, &cfg.MaxLoss, "max_loss"},
	} {
		if field.raw == "" {
			continue
		}
		value, err := decimal.NewFromString(field.raw)
		if err != nil {
			return cfg, engerrors.NewConfigurationError("config", "parse_run",
				fmt.Sprintf("%s: %q is not a decimal", field.name, field.raw))
		}
		*field.dest = value
	}

	if rc.StopOnLoss != nil {
		cfg.StopOnLoss = *rc.StopOnLoss
	}
	if rc.GapToleranceBars != nil {
		cfg.GapToleranceBars = *rc.GapToleranceBars
	}

	cfg.StrategyName = rc.Strategy.Name
	cfg.StrategyParams = strategy.Params{
		OrderQuantity: rc.Strategy.OrderQuantity,
		FastPeriod:    rc.Strategy.FastPeriod,
		SlowPeriod:    rc.Strategy.SlowPeriod,
		RSIPeriod:     rc.Strategy.RSIPeriod,
		OversoldLevel: rc.Strategy.Oversold,
		OverboughtLvl: rc.Strategy.Overbought,
	}

	return cfg, cfg.Validate()
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("value is required")
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not a recognized time", raw)
}
