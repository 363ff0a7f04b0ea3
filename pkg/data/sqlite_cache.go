package data

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/alejom99/cycletrader/pkg/types"
)

const candleSchema = `
CREATE TABLE IF NOT EXISTS candles (
    symbol    TEXT    NOT NULL,
    timeframe TEXT    NOT NULL,
    ts        INTEGER NOT NULL,
    open      TEXT    NOT NULL,
    high      TEXT    NOT NULL,
    low       TEXT    NOT NULL,
    close     TEXT    NOT NULL,
    volume    TEXT    NOT NULL,
    PRIMARY KEY (symbol, timeframe, ts)
);

CREATE INDEX IF NOT EXISTS idx_candles_range ON candles(symbol, timeframe, ts);
`

// SQLiteCache is a read-through candle cache over another Provider. Ranges
// already on disk are served locally; misses hit the fallback and are stored
// for the next run. Prices are stored as text so decimal values round-trip
// exactly.
type SQLiteCache struct {
	db       *sql.DB
	fallback Provider
}

// NewSQLiteCache opens (or creates) the cache database at path. fallback may
// be nil, in which case only cached data is served.
func NewSQLiteCache(path string, fallback Provider) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("data.NewSQLiteCache: open %q: %w", path, err)
	}
	// SQLite is single-writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(candleSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("data.NewSQLiteCache: apply schema: %w", err)
	}
	return &SQLiteCache{db: db, fallback: fallback}, nil
}

// Close releases the underlying database handle.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

// GetCandles serves [startMs, endMs) from the cache, filling from the
// fallback provider when the cached range is incomplete.
func (c *SQLiteCache) GetCandles(symbol string, timeframe types.Timeframe, startMs, endMs int64) ([]types.Candle, error) {
	cached, err := c.query(symbol, timeframe, startMs, endMs)
	if err != nil {
		return nil, err
	}

	expected := (endMs - startMs) / timeframe.Millis()
	if int64(len(cached)) >= expected || c.fallback == nil {
		return cached, nil
	}

	fresh, err := c.fallback.GetCandles(symbol, timeframe, startMs, endMs)
	if err != nil {
		return nil, err
	}
	if err := c.store(fresh); err != nil {
		return nil, err
	}
	return c.query(symbol, timeframe, startMs, endMs)
}

func (c *SQLiteCache) query(symbol string, timeframe types.Timeframe, startMs, endMs int64) ([]types.Candle, error) {
	rows, err := c.db.Query(
		`SELECT ts, open, high, low, close, volume FROM candles
		 WHERE symbol = ? AND timeframe = ? AND ts >= ? AND ts < ?
		 ORDER BY ts ASC`,
		symbol, string(timeframe), startMs, endMs,
	)
	if err != nil {
		return nil, fmt.Errorf("data.SQLiteCache: query candles: %w", err)
	}
	defer rows.Close()

	var out []types.Candle
	for rows.Next() {
		var ts int64
		var open, high, low, closePx, volume string
		if err := rows.Scan(&ts, &open, &high, &low, &closePx, &volume); err != nil {
			return nil, fmt.Errorf("data.SQLiteCache: scan candle: %w", err)
		}
		candle := types.Candle{Symbol: symbol, Timeframe: timeframe, Timestamp: ts}
		if candle.Open, err = decimal.NewFromString(open); err != nil {
			return nil, fmt.Errorf("data.SQLiteCache: bad open %q: %w", open, err)
		}
		if candle.High, err = decimal.NewFromString(high); err != nil {
			return nil, fmt.Errorf("data.SQLiteCache: bad high %q: %w", high, err)
		}
		if candle.Low, err = decimal.NewFromString(low); err != nil {
			return nil, fmt.Errorf("data.SQLiteCache: bad low %q: %w", low, err)
		}
		if candle.Close, err = decimal.NewFromString(closePx); err != nil {
			return nil, fmt.Errorf("data.SQLiteCache: bad close %q: %w", closePx, err)
		}
		if candle.Volume, err = decimal.NewFromString(volume); err != nil {
			return nil, fmt.Errorf("data.SQLiteCache: bad volume %q: %w", volume, err)
		}
		out = append(out, candle)
	}
	return out, rows.Err()
}

func (c *SQLiteCache) store(candles []types.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("data.SQLiteCache: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO candles (symbol, timeframe, ts, open, high, low, close, volume)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("data.SQLiteCache: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, cd := range candles {
		if _, err := stmt.Exec(
			cd.Symbol, string(cd.Timeframe), cd.Timestamp,
			cd.Open.String(), cd.High.String(), cd.Low.String(), cd.Close.String(), cd.Volume.String(),
		); err != nil {
			return fmt.Errorf("data.SQLiteCache: insert candle %d: %w", cd.Timestamp, err)
		}
	}
	return tx.Commit()
}
