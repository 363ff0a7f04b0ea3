package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejom99/cycletrader/pkg/types"
)

// CSVColumnMapping defines column positions and the timestamp format for a
// CSV candle file. DateFormat is a Go reference layout; when empty the
// timestamp column is parsed as epoch milliseconds.
type CSVColumnMapping struct {
	TimestampCol int
	OpenCol      int
	HighCol      int
	LowCol       int
	CloseCol     int
	VolumeCol    int
	MinColumns   int
	DateFormat   string
}

// DefaultCSVMapping matches the standard exchange export layout:
// timestamp,open,high,low,close,volume with a header row.
var DefaultCSVMapping = CSVColumnMapping{
	TimestampCol: 0,
	OpenCol:      1,
	HighCol:      2,
	LowCol:       3,
	CloseCol:     4,
	VolumeCol:    5,
	MinColumns:   6,
	DateFormat:   "2006-01-02 15:04:05",
}

// CSVProvider loads candles from CSV files with an in-memory cache keyed by
// file. Safe for use by parallel runs sharing one provider.
type CSVProvider struct {
	path    string
	mapping CSVColumnMapping

	mu        sync.RWMutex
	cache     map[string][]types.Candle
	hitCount  int64
	missCount int64
}

// NewCSVProvider creates a provider reading from the given file path.
func NewCSVProvider(path string) *CSVProvider {
	return &CSVProvider{
		path:    path,
		mapping: DefaultCSVMapping,
		cache:   make(map[string][]types.Candle),
	}
}

// SetColumnMapping overrides the CSV layout.
func (p *CSVProvider) SetColumnMapping(mapping CSVColumnMapping) {
	p.mapping = mapping
}

// GetCandles loads the file (from cache after the first call), stamps
// symbol/timeframe onto the rows and filters to [startMs, endMs).
func (p *CSVProvider) GetCandles(symbol string, timeframe types.Timeframe, startMs, endMs int64) ([]types.Candle, error) {
	key := fmt.Sprintf("%s:%s:%s", symbol, timeframe, p.path)

	p.mu.RLock()
	cached, ok := p.cache[key]
	p.mu.RUnlock()
	if ok {
		p.mu.Lock()
		p.hitCount++
		p.mu.Unlock()
		return FilterRange(cached, startMs, endMs), nil
	}

	candles, err := p.loadFromFile(symbol, timeframe)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.missCount++
	p.cache[key] = candles
	p.mu.Unlock()

	return FilterRange(candles, startMs, endMs), nil
}

// Stats returns cache performance counters.
func (p *CSVProvider) Stats() CacheStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return CacheStats{HitCount: p.hitCount, MissCount: p.missCount, CacheSize: len(p.cache)}
}

func (p *CSVProvider) loadFromFile(symbol string, timeframe types.Timeframe) ([]types.Candle, error) {
	file, err := os.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("open candle file %s: %w", p.path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	// Skip header.
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("read header of %s: %w", p.path, err)
	}

	var candles []types.Candle
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s line %d: %w", p.path, line, err)
		}
		line++

		if len(record) < p.mapping.MinColumns {
			continue
		}

		ts, err := p.parseTimestamp(record[p.mapping.TimestampCol])
		if err != nil {
			continue
		}

		open, err1 := decimal.NewFromString(record[p.mapping.OpenCol])
		high, err2 := decimal.NewFromString(record[p.mapping.HighCol])
		low, err3 := decimal.NewFromString(record[p.mapping.LowCol])
		closePx, err4 := decimal.NewFromString(record[p.mapping.CloseCol])
		volume, err5 := decimal.NewFromString(record[p.mapping.VolumeCol])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			continue
		}

		// Reject rows with impossible OHLC relations.
		if open.LessThanOrEqual(decimal.Zero) || low.LessThanOrEqual(decimal.Zero) {
			continue
		}
		if high.LessThan(open) || high.LessThan(closePx) || high.LessThan(low) {
			continue
		}
		if low.GreaterThan(open) || low.GreaterThan(closePx) {
			continue
		}

		candles = append(candles, types.Candle{
			Symbol:    symbol,
			Timeframe: timeframe,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePx,
			Volume:    volume,
			Timestamp: ts,
		})
	}

	return candles, nil
}

func (p *CSVProvider) parseTimestamp(raw string) (int64, error) {
	if p.mapping.DateFormat == "" {
		return strconv.ParseInt(raw, 10, 64)
	}
	t, err := time.Parse(p.mapping.DateFormat, raw)
	if err != nil {
		// Fall back to epoch millis; mixed exports exist in the wild.
		if ms, msErr := strconv.ParseInt(raw, 10, 64); msErr == nil {
			return ms, nil
		}
		return 0, err
	}
	return t.UnixMilli(), nil
}
