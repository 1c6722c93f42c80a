package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"timezone-lookup-service/internal/domain"
	"timezone-lookup-service/internal/platform/db"
	"timezone-lookup-service/internal/platform/obs"

	"github.com/google/uuid"
)

// SQL-backed implementation of the LookupRepository port.
type SQLLookupRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func NewSQLLookupRepository(conn *sql.DB, dialect db.Dialect) *SQLLookupRepository {
	return &SQLLookupRepository{DB: conn, Dialect: dialect}
}

// Store a lookup. An empty ID is replaced with a random UUID.
func (s *SQLLookupRepository) RecordLookup(ctx context.Context, rec domain.LookupRecord) (err error) {
	defer obs.Time(ctx, "history.RecordLookup")(&err)

	if s.DB == nil {
		return errors.New("sql lookup repository: DB is nil")
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.RequestedAt.IsZero() {
		rec.RequestedAt = time.Now()
	}

	query := s.Dialect.Rebind(`
	INSERT INTO lookups (
		id,
		requested_at,
		lat,
		lng,
		resolved_lat,
		resolved_lng,
		zone_name,
		cached
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?);
	`)

	_, err = s.DB.ExecContext(ctx, query,
		rec.ID,
		rec.RequestedAt.UnixMilli(),
		rec.Query.Lat,
		rec.Query.Lng,
		rec.Resolved.Lat,
		rec.Resolved.Lng,
		rec.ZoneName,
		boolToInt(rec.Cached),
	)
	if err != nil {
		return fmt.Errorf("record lookup: insert id=%s: %w", rec.ID, err)
	}

	return nil
}

// Return the most recent lookups, newest first.
func (s *SQLLookupRepository) ListRecent(ctx context.Context, limit int) (_ []domain.LookupRecord, err error) {
	defer obs.Time(ctx, "history.ListRecent")(&err)

	if s.DB == nil {
		return nil, errors.New("sql lookup repository: DB is nil")
	}
	if limit <= 0 {
		return []domain.LookupRecord{}, nil
	}

	query := s.Dialect.Rebind(`
	SELECT
		id,
		requested_at,
		lat,
		lng,
		resolved_lat,
		resolved_lng,
		zone_name,
		cached
	FROM lookups
	ORDER BY requested_at DESC, id
	LIMIT ?;
	`)

	rows, err := s.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list lookups: query lookups table: %w", err)
	}
	defer rows.Close()

	records := make([]domain.LookupRecord, 0, limit)
	for rows.Next() {
		var (
			rec         domain.LookupRecord
			requestedAt int64
			cached      int
		)
		err := rows.Scan(
			&rec.ID,
			&requestedAt,
			&rec.Query.Lat,
			&rec.Query.Lng,
			&rec.Resolved.Lat,
			&rec.Resolved.Lng,
			&rec.ZoneName,
			&cached,
		)
		if err != nil {
			return nil, fmt.Errorf("list lookups: scan row: %w", err)
		}
		rec.RequestedAt = time.UnixMilli(requestedAt)
		rec.Cached = cached != 0
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list lookups: row iteration: %w", err)
	}

	return records, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
