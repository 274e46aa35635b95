package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"gowalmart_seller/internal/walmart/business/models"
)

const (
	Schema = "walmart"

	// 900 rows = 2700 parameters, well below the Postgres limit of 65535.
	maxBatchSize = 900
)

var (
	ErrInvalidTable = errors.New("invalid table name")

	tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
)

// Execer is the part of *sql.DB the repository needs.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type Row struct {
	Key  string
	Data models.Record
}

// RecordRepository stores raw stream records as JSONB, one table per stream.
type RecordRepository struct {
	db Execer
}

func NewRecordRepository(db Execer) *RecordRepository {
	return &RecordRepository{db: db}
}

// Table returns the qualified table of stream.
func Table(stream string) (string, error) {
	if !tableName.MatchString(stream) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTable, stream)
	}
	return Schema + "." + stream, nil
}

// UpsertBatch inserts or replaces rows. Of several rows with the same key the
// last one wins.
func (r *RecordRepository) UpsertBatch(ctx context.Context, stream string, rows []Row, syncedAt time.Time) (int, error) {
	table, err := Table(stream)
	if err != nil {
		return 0, err
	}
	rows = removeDuplicateRows(rows)

	for start := 0; start < len(rows); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		current := rows[start:end]

		valueStrings := make([]string, 0, len(current))
		args := make([]interface{}, 0, len(current)*3)
		for i, row := range current {
			data, err := json.Marshal(row.Data)
			if err != nil {
				return 0, fmt.Errorf("encoding %s record %s: %w", stream, row.Key, err)
			}
			valueStrings = append(valueStrings, fmt.Sprintf("($%d, $%d::jsonb, $%d)", i*3+1, i*3+2, i*3+3))
			args = append(args, row.Key, string(data), syncedAt)
		}

		query := fmt.Sprintf(`
			INSERT INTO %s (pk, data, synced_at)
			VALUES
				%s
			ON CONFLICT (pk) DO UPDATE
			SET
				data = EXCLUDED.data,
				synced_at = EXCLUDED.synced_at;
		`, table, strings.Join(valueStrings, ", "))

		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("upserting into %s: %w", table, err)
		}
	}
	return len(rows), nil
}

// DeleteStale removes rows not seen by the run that started at syncedAt.
func (r *RecordRepository) DeleteStale(ctx context.Context, stream string, syncedAt time.Time) (int64, error) {
	table, err := Table(stream)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE synced_at < $1", table), syncedAt)
	if err != nil {
		return 0, fmt.Errorf("deleting stale rows from %s: %w", table, err)
	}
	return res.RowsAffected()
}

func (r *RecordRepository) StartRun(ctx context.Context, runID uuid.UUID, stream string, startedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO walmart.sync_runs (run_id, stream, started_at, status)
		VALUES ($1, $2, $3, 'running')
		ON CONFLICT (run_id, stream) DO NOTHING;
	`, runID.String(), stream, startedAt)
	if err != nil {
		return fmt.Errorf("recording start of %s: %w", stream, err)
	}
	return nil
}

func (r *RecordRepository) FinishRun(ctx context.Context, runID uuid.UUID, stream string, finishedAt time.Time, records int64, runErr error) error {
	status, message := "succeeded", sql.NullString{}
	if runErr != nil {
		status = "failed"
		message = sql.NullString{String: runErr.Error(), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE walmart.sync_runs
		SET finished_at = $3, records = $4, status = $5, error = $6
		WHERE run_id = $1 AND stream = $2;
	`, runID.String(), stream, finishedAt, records, status, message)
	if err != nil {
		return fmt.Errorf("recording end of %s: %w", stream, err)
	}
	return nil
}

func removeDuplicateRows(rows []Row) []Row {
	last := make(map[string]int, len(rows))
	for i, row := range rows {
		last[row.Key] = i
	}
	if len(last) == len(rows) {
		return rows
	}
	result := make([]Row, 0, len(last))
	for i, row := range rows {
		if last[row.Key] == i {
			result = append(result, row)
		}
	}
	return result
}
