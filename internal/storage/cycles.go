package storage

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/alejom99/cycletrader/internal/cycle"
	"github.com/alejom99/cycletrader/internal/position"
)

const cycleSchema = `
CREATE TABLE IF NOT EXISTS cycles (
    run_id       TEXT    NOT NULL,
    cycle_id     TEXT    NOT NULL,
    symbol       TEXT    NOT NULL,
    side         TEXT    NOT NULL,
    opened_at    INTEGER NOT NULL,
    closed_at    INTEGER NOT NULL,
    trade_count  INTEGER NOT NULL,
    realized_pnl TEXT    NOT NULL,
    forced       INTEGER NOT NULL,
    PRIMARY KEY (run_id, cycle_id)
);

CREATE INDEX IF NOT EXISTS idx_cycles_run ON cycles(run_id);
`

// CycleRecord is one persisted cycle row.
type CycleRecord struct {
	RunID       string
	CycleID     string
	Symbol      string
	Side        position.Side
	OpenedAt    int64
	ClosedAt    int64
	TradeCount  int
	RealizedPnL decimal.Decimal
	Forced      bool
}

// CycleStore persists closed cycles to SQLite keyed by run id, so results of
// multiple runs can be compared after the fact. PnL is stored as text to keep
// decimal values exact.
type CycleStore struct {
	db *sql.DB
}

// NewCycleStore opens (or creates) the store at path.
func NewCycleStore(path string) (*CycleStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewCycleStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(cycleSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewCycleStore: apply schema: %w", err)
	}
	return &CycleStore{db: db}, nil
}

// Close releases the database handle.
func (s *CycleStore) Close() error {
	return s.db.Close()
}

// SaveCycle persists one closed cycle. Replays of the same run id overwrite.
func (s *CycleStore) SaveCycle(runID string, c cycle.Cycle) error {
	forced := 0
	if c.Forced {
		forced = 1
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO cycles
		 (run_id, cycle_id, symbol, side, opened_at, closed_at, trade_count, realized_pnl, forced)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, c.ID, c.Symbol, string(c.Side), c.OpenedAt, c.ClosedAt, len(c.Trades), c.RealizedPnL.String(), forced,
	)
	if err != nil {
		return fmt.Errorf("storage.CycleStore: save cycle %s: %w", c.ID, err)
	}
	return nil
}

// CyclesForRun returns every stored cycle of a run in close order.
func (s *CycleStore) CyclesForRun(runID string) ([]CycleRecord, error) {
	rows, err := s.db.Query(
		`SELECT cycle_id, symbol, side, opened_at, closed_at, trade_count, realized_pnl, forced
		 FROM cycles WHERE run_id = ? ORDER BY closed_at ASC, cycle_id ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage.CycleStore: query run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []CycleRecord
	for rows.Next() {
		rec := CycleRecord{RunID: runID}
		var side, pnl string
		var forced int
		if err := rows.Scan(&rec.CycleID, &rec.Symbol, &side, &rec.OpenedAt, &rec.ClosedAt, &rec.TradeCount, &pnl, &forced); err != nil {
			return nil, fmt.Errorf("storage.CycleStore: scan cycle: %w", err)
		}
		rec.Side = position.Side(side)
		rec.Forced = forced == 1
		if rec.RealizedPnL, err = decimal.NewFromString(pnl); err != nil {
			return nil, fmt.Errorf("storage.CycleStore: bad pnl %q: %w", pnl, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteRun removes every cycle of a run.
func (s *CycleStore) DeleteRun(runID string) error {
	if _, err := s.db.Exec(`DELETE FROM cycles WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("storage.CycleStore: delete run %s: %w", runID, err)
	}
	return nil
}
