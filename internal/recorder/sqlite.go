package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"QuantumFlow/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists decision and allocation history to SQLite.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	// WAL lets dashboards read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id            TEXT PRIMARY KEY,
			timestamp     INTEGER NOT NULL,
			source        TEXT,
			snapshot_date TEXT,
			profile       TEXT NOT NULL,
			alpha         REAL,
			fallback      INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS decisions (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id           TEXT NOT NULL REFERENCES runs(id),
			ticker           TEXT NOT NULL,
			asset_class      TEXT,
			macro_score      REAL,
			technical_score  REAL,
			sentiment_score  REAL,
			risk_score       REAL,
			composite        REAL NOT NULL,
			action           TEXT NOT NULL,
			base_allocation  REAL,
			allocation       REAL,
			stop_loss_pct    REAL,
			take_profit_pct  REAL,
			clamped          TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_ticker ON decisions(ticker)`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_run ON decisions(run_id)`,

		`CREATE TABLE IF NOT EXISTS allocations (
			id                   INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id               TEXT NOT NULL REFERENCES runs(id),
			ticker               TEXT NOT NULL,
			prior_weight_pct     REAL,
			composite            REAL,
			tilt_pct             REAL,
			raw_weight           REAL,
			posterior_weight_pct REAL,
			blended_weight_pct   REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_allocations_run ON allocations(run_id)`,

		`CREATE TABLE IF NOT EXISTS profile_changes (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			from_profile TEXT,
			to_profile   TEXT NOT NULL,
			source       TEXT
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun writes the run, its decisions and allocations in one
// transaction and returns the run ID, generating one if empty.
func (r *SQLiteRecorder) RecordRun(ctx context.Context, run *Run) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.At.IsZero() {
		run.At = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var alpha sql.NullFloat64
	fallback := 0
	if run.Rebalance != nil {
		alpha = sql.NullFloat64{Float64: run.Rebalance.Alpha, Valid: true}
		if run.Rebalance.Fallback {
			fallback = 1
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO runs
		(id, timestamp, source, snapshot_date, profile, alpha, fallback)
		VALUES (?,?,?,?,?,?,?)`,
		run.ID, run.At.Unix(), run.Source, run.SnapshotDate, string(run.Profile), alpha, fallback,
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, d := range run.Decisions {
		if _, err := tx.ExecContext(ctx, `INSERT INTO decisions
			(run_id, ticker, asset_class, macro_score, technical_score, sentiment_score, risk_score,
			 composite, action, base_allocation, allocation, stop_loss_pct, take_profit_pct, clamped)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			run.ID, d.Asset.Ticker, d.Asset.AssetClass,
			d.Scores.Get(model.FactorMacro), d.Scores.Get(model.FactorTechnical),
			d.Scores.Get(model.FactorSentiment), d.Scores.Get(model.FactorRisk),
			d.Composite, string(d.Action), d.BaseAlloc, d.Allocation,
			d.Band.StopLossPct, d.Band.TakeProfitPct, joinFactors(d.Clamped),
		); err != nil {
			return "", fmt.Errorf("insert decision %s: %w", d.Asset.Ticker, err)
		}
	}

	if run.Rebalance != nil {
		for _, p := range run.Rebalance.Positions {
			if _, err := tx.ExecContext(ctx, `INSERT INTO allocations
				(run_id, ticker, prior_weight_pct, composite, tilt_pct, raw_weight,
				 posterior_weight_pct, blended_weight_pct)
				VALUES (?,?,?,?,?,?,?,?)`,
				run.ID, p.Ticker, p.PriorWeight, p.Composite, p.TiltPct, p.RawWeight,
				p.PosteriorWeight, p.BlendedWeight,
			); err != nil {
				return "", fmt.Errorf("insert allocation %s: %w", p.Ticker, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	return run.ID, nil
}

func (r *SQLiteRecorder) RecordProfileChange(ctx context.Context, evt *ProfileChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO profile_changes
		(timestamp, from_profile, to_profile, source)
		VALUES (?,?,?,?)`,
		time.Now().Unix(), string(evt.From), string(evt.To), evt.Source,
	)
	return err
}

// History returns the most recent decisions for ticker, newest first.
func (r *SQLiteRecorder) History(ctx context.Context, ticker string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `SELECT d.run_id, r.timestamp, d.ticker, r.profile,
			d.composite, d.action, d.allocation
		FROM decisions d JOIN runs r ON r.id = d.run_id
		WHERE d.ticker = ?
		ORDER BY r.timestamp DESC, d.id DESC
		LIMIT ?`, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var (
			e       HistoryEntry
			ts      int64
			profile string
			action  string
		)
		if err := rows.Scan(&e.RunID, &ts, &e.Ticker, &profile, &e.Composite, &action, &e.Allocation); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.At = time.Unix(ts, 0)
		e.Profile = model.RiskProfile(profile)
		e.Action = model.ActionLabel(action)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}

func joinFactors(fs []model.Factor) string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = string(f)
	}
	return strings.Join(names, ",")
}
