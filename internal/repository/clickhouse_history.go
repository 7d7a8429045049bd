package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"EconDash/internal/domain/models"
	domrepo "EconDash/internal/domain/repository"
	pkgch "EconDash/pkg/clickhouse"
	applogger "EconDash/pkg/logger"
)

// CHHistory archives observations in ClickHouse. The ReplacingMergeTree keeps
// the newest version per indicator and date; queries use FINAL.
type CHHistory struct {
	ch    *pkgch.Client
	db    *sql.DB
	table string
	l     *applogger.Logger
}

var _ domrepo.HistoryRepository = (*CHHistory)(nil)

func NewCHHistory(ch *pkgch.Client, l *applogger.Logger) *CHHistory {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHHistory{ch: ch, db: ch.DB(), table: ch.Database() + ".observations", l: l}
}

func (s *CHHistory) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, []string{fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			indicator  LowCardinality(String),
			obs_date   Date32,
			value      Float64,
			meta       String,
			revised    UInt8,
			fetched_at DateTime64(3, 'UTC')
		) ENGINE = ReplacingMergeTree(fetched_at)
		ORDER BY (indicator, obs_date)`, s.table)})
}

func (s *CHHistory) Append(ctx context.Context, indicator string, obs []models.Observation) (int, error) {
	if len(obs) == 0 {
		return 0, nil
	}
	start := time.Now()
	now := start.UTC()
	rows := make([][]any, 0, len(obs))
	for _, o := range obs {
		meta, _ := json.Marshal(o.Meta)
		rows = append(rows, []any{indicator, o.Date.UTC(), o.Value, string(meta), uint8(boolInt(o.Revised)), now})
	}

	q := fmt.Sprintf("INSERT INTO %s (indicator, obs_date, value, meta, revised, fetched_at) VALUES (?, ?, ?, ?, ?, ?)", s.table)
	if err := s.ch.InsertBatch(ctx, q, rows); err != nil {
		s.l.Error("clickhouse history insert error",
			applogger.String("indicator", indicator),
			applogger.Int("rows", len(rows)),
			applogger.Error(err),
		)
		return 0, fmt.Errorf("append history: %w", err)
	}
	s.l.Debug("clickhouse history insert",
		applogger.String("indicator", indicator),
		applogger.Int("rows", len(rows)),
		applogger.Duration("took", time.Since(start)),
	)
	return len(rows), nil
}

func (s *CHHistory) Range(ctx context.Context, indicator string, from, to time.Time, limit int) ([]models.Observation, error) {
	if from.IsZero() {
		from = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if to.IsZero() {
		to = time.Date(2299, 12, 31, 0, 0, 0, 0, time.UTC)
	}
	if limit <= 0 {
		limit = 100000
	}
	const qtpl = `
		SELECT obs_date, value, meta, revised FROM (
			SELECT obs_date, value, meta, revised
			FROM %s FINAL
			WHERE indicator = ? AND obs_date >= ? AND obs_date <= ?
			ORDER BY obs_date DESC
			LIMIT ?
		) ORDER BY obs_date ASC`
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, s.table), indicator, from.UTC(), to.UTC(), limit)
	if err != nil {
		s.l.Error("clickhouse history query error", applogger.String("indicator", indicator), applogger.Error(err))
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]models.Observation, 0, 256)
	for rows.Next() {
		var (
			o       models.Observation
			meta    string
			revised uint8
		)
		if err := rows.Scan(&o.Date, &o.Value, &meta, &revised); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		o.Date = o.Date.UTC()
		o.Revised = revised != 0
		if meta != "" && meta != "null" && meta != "{}" {
			_ = json.Unmarshal([]byte(meta), &o.Meta)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Close is a no-op; the client is owned by the caller.
func (s *CHHistory) Close() error {
	return nil
}
