package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"hsi_service/internal/domain/model"
)

// StatsRecorder receives every successfully computed month statistics.
type StatsRecorder interface {
	Record(ctx context.Context, snapshot model.StatsSnapshot) error
}

// recordedAtLayout is fixed width so text ordering is chronological.
const recordedAtLayout = "2006-01-02T15:04:05.000000000Z"

type SQLStatsRecorder struct {
	db *sqlx.DB
}

func NewSQLStatsRecorder(db *sqlx.DB) *SQLStatsRecorder {
	return &SQLStatsRecorder{db: db}
}

const createStatsTable = `
	CREATE TABLE IF NOT EXISTS hsi_month_stats (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		value_count INTEGER NOT NULL,
		min_value DOUBLE PRECISION NOT NULL,
		max_value DOUBLE PRECISION NOT NULL,
		mean_value DOUBLE PRECISION NOT NULL,
		median_value DOUBLE PRECISION NOT NULL,
		std_value DOUBLE PRECISION NOT NULL,
		q25_value DOUBLE PRECISION NOT NULL,
		q75_value DOUBLE PRECISION NOT NULL,
		high_count INTEGER NOT NULL,
		medium_count INTEGER NOT NULL,
		low_count INTEGER NOT NULL,
		recorded_at TEXT NOT NULL
	)`

// Migrate creates the snapshot table when missing.
func (r *SQLStatsRecorder) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createStatsTable); err != nil {
		return fmt.Errorf("failed to create hsi_month_stats: %w", err)
	}
	return nil
}

func (r *SQLStatsRecorder) Record(ctx context.Context, s model.StatsSnapshot) error {
	query := r.db.Rebind(`
		INSERT INTO hsi_month_stats (
			id, source, year, month,
			value_count, min_value, max_value, mean_value,
			median_value, std_value, q25_value, q75_value,
			high_count, medium_count, low_count, recorded_at
		) VALUES (
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		)`)

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.Source, s.Year, s.Month,
		s.Count, s.Min, s.Max, s.Mean,
		s.Median, s.Std, s.Q25, s.Q75,
		s.HighCount, s.MediumCount, s.LowCount,
		s.RecordedAt.UTC().Format(recordedAtLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert stats snapshot: %w", err)
	}
	return nil
}

type snapshotRow struct {
	model.StatsSnapshot
	RecordedAt string `db:"recorded_at"`
}

// History returns the most recent snapshots of a month, newest first.
func (r *SQLStatsRecorder) History(ctx context.Context, source string, year, month, limit int) ([]model.StatsSnapshot, error) {
	query := r.db.Rebind(`
		SELECT
			id, source, year, month,
			value_count, min_value, max_value, mean_value,
			median_value, std_value, q25_value, q75_value,
			high_count, medium_count, low_count, recorded_at
		FROM hsi_month_stats
		WHERE source = ? AND year = ? AND month = ?
		ORDER BY recorded_at DESC
		LIMIT ?`)

	var rows []snapshotRow
	if err := r.db.SelectContext(ctx, &rows, query, source, year, month, limit); err != nil {
		return nil, fmt.Errorf("failed to query stats history: %w", err)
	}

	snapshots := make([]model.StatsSnapshot, 0, len(rows))
	for _, row := range rows {
		s := row.StatsSnapshot
		recordedAt, err := time.Parse(recordedAtLayout, row.RecordedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid recorded_at %q: %w", row.RecordedAt, err)
		}
		s.RecordedAt = recordedAt
		snapshots = append(snapshots, s)
	}
	return snapshots, nil
}
