package recorder

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know by name.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// SQLRecorder persists forecasts to SQLite or PostgreSQL.
type SQLRecorder struct {
	db     *sqlx.DB
	driver string
	mu     sync.Mutex
}

// NewSQLRecorder opens the database for driver ("sqlite" or "postgres") and
// runs migrations.
func NewSQLRecorder(driver, dsn string) (*SQLRecorder, error) {
	switch driver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if driver == "sqlite" && !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
		// WAL mode so dashboards can read while forecasts are written.
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
	}

	r := &SQLRecorder{db: db, driver: driver}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] %s recorder opened", driver)
	return r, nil
}

func (r *SQLRecorder) migrate() error {
	// Column types chosen to be valid in both SQLite and PostgreSQL.
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS forecast_runs (
			run_id        TEXT PRIMARY KEY,
			symbol        TEXT NOT NULL,
			scaler_key    TEXT NOT NULL,
			days          INTEGER NOT NULL,
			last_close    DOUBLE PRECISION,
			last_date     BIGINT,
			fallback_used INTEGER NOT NULL DEFAULT 0,
			created_at    BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_symbol_ts ON forecast_runs(symbol, created_at)`,

		`CREATE TABLE IF NOT EXISTS forecast_predictions (
			run_id      TEXT NOT NULL,
			day_index   INTEGER NOT NULL,
			target_date BIGINT,
			price       DOUBLE PRECISION,
			PRIMARY KEY (run_id, day_index)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLRecorder) RecordForecast(rec *ForecastRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.NamedExec(`INSERT INTO forecast_runs
		(run_id, symbol, scaler_key, days, last_close, last_date, fallback_used, created_at)
		VALUES (:run_id, :symbol, :scaler_key, :days, :last_close, :last_date, :fallback_used, :created_at)`,
		rec); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for i := range rec.Predictions {
		if _, err := tx.NamedExec(`INSERT INTO forecast_predictions
			(run_id, day_index, target_date, price)
			VALUES (:run_id, :day_index, :target_date, :price)`,
			&rec.Predictions[i]); err != nil {
			return fmt.Errorf("insert prediction %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// RecentForecasts returns the latest runs for symbol, newest first, with predictions.
func (r *SQLRecorder) RecentForecasts(symbol string, limit int) ([]ForecastRecord, error) {
	var runs []ForecastRecord
	q := r.db.Rebind(`SELECT run_id, symbol, scaler_key, days, last_close, last_date, fallback_used, created_at
		FROM forecast_runs WHERE symbol = ? ORDER BY created_at DESC LIMIT ?`)
	if err := r.db.Select(&runs, q, symbol, limit); err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}

	pq := r.db.Rebind(`SELECT run_id, day_index, target_date, price
		FROM forecast_predictions WHERE run_id = ? ORDER BY day_index`)
	for i := range runs {
		if err := r.db.Select(&runs[i].Predictions, pq, runs[i].RunID); err != nil {
			return nil, fmt.Errorf("select predictions: %w", err)
		}
	}
	return runs, nil
}

func (r *SQLRecorder) Close() error {
	log.Printf("[INFO] closing %s recorder", r.driver)
	return r.db.Close()
}
