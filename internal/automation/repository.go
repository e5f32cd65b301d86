package automation

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Repository defines the interface for dispatch log persistence.
// This abstraction allows different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	CreateDispatch(ctx context.Context, rec *DispatchRecord) error
	ListDispatches(ctx context.Context, eventType string, limit int) ([]DispatchRecord, error)
	CountByStatus(ctx context.Context, status DispatchStatus) (int, error)
}

// dispatchColumns is the SELECT column list for dispatch queries.
const dispatchColumns = `id, event_type, rule_alias, service, status, error, dispatched_at, duration_ms`

// defaultListLimit caps ListDispatches when the caller passes no limit.
const defaultListLimit = 100

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// CreateDispatch inserts a dispatch record into the audit log.
func (r *SQLiteRepository) CreateDispatch(ctx context.Context, rec *DispatchRecord) error {
	query := `
		INSERT INTO dispatch_log (
			id, event_type, rule_alias, service, status, error, dispatched_at, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.EventType,
		rec.RuleAlias,
		rec.Service,
		string(rec.Status),
		nullableError(rec.Error),
		rec.DispatchedAt.Format(time.RFC3339Nano),
		rec.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("inserting dispatch record: %w", err)
	}
	return nil
}

// ListDispatches retrieves recent dispatch records, newest first.
//
// Parameters:
//   - eventType: Filter by event type; empty string lists all
//   - limit: Maximum records to return (defaults to 100 when <= 0)
func (r *SQLiteRepository) ListDispatches(ctx context.Context, eventType string, limit int) ([]DispatchRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `SELECT ` + dispatchColumns + ` FROM dispatch_log`
	args := []any{}
	if eventType != "" {
		query += ` WHERE event_type = ?`
		args = append(args, eventType)
	}
	query += ` ORDER BY dispatched_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying dispatch log: %w", err)
	}
	defer rows.Close()

	var records []DispatchRecord
	for rows.Next() {
		rec, err := scanDispatch(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dispatch log: %w", err)
	}
	return records, nil
}

// CountByStatus returns how many records carry the given terminal status.
func (r *SQLiteRepository) CountByStatus(ctx context.Context, status DispatchStatus) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM dispatch_log WHERE status = ?`,
		string(status),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting dispatches: %w", err)
	}
	return count, nil
}

// scanDispatch reads one dispatch row.
func scanDispatch(rows *sql.Rows) (DispatchRecord, error) {
	var (
		rec          DispatchRecord
		status       string
		errText      sql.NullString
		dispatchedAt string
	)

	if err := rows.Scan(
		&rec.ID,
		&rec.EventType,
		&rec.RuleAlias,
		&rec.Service,
		&status,
		&errText,
		&dispatchedAt,
		&rec.DurationMS,
	); err != nil {
		return DispatchRecord{}, fmt.Errorf("scanning dispatch row: %w", err)
	}

	rec.Status = DispatchStatus(status)
	if errText.Valid {
		rec.Error = errText.String
	}
	// Parse timestamp - ignore error as format is controlled by us
	rec.DispatchedAt, _ = time.Parse(time.RFC3339Nano, dispatchedAt) //nolint:errcheck // Format is controlled

	return rec, nil
}

// nullableError converts an empty error string to NULL.
func nullableError(s string) any {
	if s == "" {
		return nil
	}
	return s
}
