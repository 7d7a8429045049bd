package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"EconDash/internal/domain/models"
	domrepo "EconDash/internal/domain/repository"

	_ "modernc.org/sqlite"
)

// SQLiteHistory archives observations in an embedded SQLite database. Rows
// are unique per indicator and date; appending a date again overwrites it.
type SQLiteHistory struct {
	db *sql.DB
}

var _ domrepo.HistoryRepository = (*SQLiteHistory)(nil)

func NewSQLiteHistory(path string) (*SQLiteHistory, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	return &SQLiteHistory{db: db}, nil
}

func (h *SQLiteHistory) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS observations (
			indicator  TEXT    NOT NULL,
			obs_date   INTEGER NOT NULL,
			value      REAL    NOT NULL,
			meta       TEXT    NOT NULL DEFAULT '{}',
			revised    INTEGER NOT NULL DEFAULT 0,
			fetched_at INTEGER NOT NULL,
			PRIMARY KEY (indicator, obs_date)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_observations_fetched ON observations(fetched_at);`,
	}
	for _, s := range stmts {
		if _, err := h.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate history: %w", err)
		}
	}
	return nil
}

// Append upserts obs and returns how many rows were written.
func (h *SQLiteHistory) Append(ctx context.Context, indicator string, obs []models.Observation) (int, error) {
	if len(obs) == 0 {
		return 0, nil
	}
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO observations (indicator, obs_date, value, meta, revised, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(indicator, obs_date) DO UPDATE SET
			value = excluded.value,
			meta = CASE WHEN excluded.meta = '{}' THEN observations.meta ELSE excluded.meta END,
			revised = CASE WHEN observations.value <> excluded.value THEN 1 ELSE observations.revised END,
			fetched_at = excluded.fetched_at`)
	if err != nil {
		return 0, fmt.Errorf("prepare append: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Unix()
	n := 0
	for _, o := range obs {
		meta, err := json.Marshal(o.Meta)
		if err != nil || o.Meta == nil {
			meta = []byte("{}")
		}
		if _, err := stmt.ExecContext(ctx, indicator, o.Date.UTC().Unix(), o.Value, string(meta), boolInt(o.Revised), now); err != nil {
			return n, fmt.Errorf("append %s %s: %w", indicator, o.Date.Format("2006-01-02"), err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit append: %w", err)
	}
	return n, nil
}

// Range returns observations in [from, to] ascending by date. Zero bounds are
// open; limit keeps the most recent rows.
func (h *SQLiteHistory) Range(ctx context.Context, indicator string, from, to time.Time, limit int) ([]models.Observation, error) {
	lo, hi := int64(-1<<62), int64(1<<62)
	if !from.IsZero() {
		lo = from.UTC().Unix()
	}
	if !to.IsZero() {
		hi = to.UTC().Unix()
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := h.db.QueryContext(ctx, `
		SELECT obs_date, value, meta, revised FROM (
			SELECT obs_date, value, meta, revised FROM observations
			WHERE indicator = ? AND obs_date >= ? AND obs_date <= ?
			ORDER BY obs_date DESC LIMIT ?
		) ORDER BY obs_date ASC`, indicator, lo, hi, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []models.Observation
	for rows.Next() {
		var (
			ts      int64
			o       models.Observation
			meta    string
			revised int
		)
		if err := rows.Scan(&ts, &o.Value, &meta, &revised); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		o.Date = time.Unix(ts, 0).UTC()
		o.Revised = revised != 0
		if meta != "" && meta != "{}" && meta != "null" {
			_ = json.Unmarshal([]byte(meta), &o.Meta)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (h *SQLiteHistory) Close() error {
	return h.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
