package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"timezone-lookup-service/internal/domain"
	"timezone-lookup-service/internal/platform/db"
	"timezone-lookup-service/internal/platform/obs"
)

// SQLTimezoneCache is a SQL-backed cache mapping coordinate keys to zones.
// The same queries run on sqlite and postgres; placeholders are rebound
// per dialect.
type SQLTimezoneCache struct {
	DB      *sql.DB
	Dialect db.Dialect
	Now     func() time.Time
}

func NewSQLTimezoneCache(conn *sql.DB, dialect db.Dialect) *SQLTimezoneCache {
	return &SQLTimezoneCache{DB: conn, Dialect: dialect, Now: time.Now}
}

// Fetch a non-expired entry for key.
func (s *SQLTimezoneCache) Get(ctx context.Context, key string) (_ domain.TimezoneResult, _ bool, err error) {
	defer obs.Time(ctx, "timezone.cache.Get")(&err)

	if s.DB == nil {
		return domain.TimezoneResult{}, false, errors.New("timezone cache: db is nil")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return domain.TimezoneResult{}, false, errors.New("get timezone cache: key must not be empty")
	}

	q := s.Dialect.Rebind(`
	SELECT
		zone_name,
		abbreviation,
		country_code,
		country_name,
		gmt_offset,
		dst,
		zone_start,
		zone_end
	FROM timezone_cache
	WHERE cache_key = ?
		AND expires_at > ?;
	`)

	var (
		res domain.TimezoneResult
		dst int
	)
	err = s.DB.QueryRowContext(ctx, q, key, s.now().Unix()).Scan(
		&res.ZoneName,
		&res.Abbreviation,
		&res.CountryCode,
		&res.CountryName,
		&res.GMTOffsetSeconds,
		&dst,
		&res.ZoneStart,
		&res.ZoneEnd,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.TimezoneResult{}, false, nil
	}
	if err != nil {
		return domain.TimezoneResult{}, false, fmt.Errorf("get timezone cache: query timezone_cache table: %w", err)
	}
	res.DST = dst != 0

	return res, true, nil
}

// Store a zone under key until expiresAt, replacing any previous entry.
func (s *SQLTimezoneCache) Put(
	ctx context.Context,
	key string,
	res domain.TimezoneResult,
	expiresAt time.Time,
) (err error) {
	defer obs.Time(ctx, "timezone.cache.Put")(&err)

	if s.DB == nil {
		return errors.New("timezone cache: db is nil")
	}

	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("insert timezone cache: empty key")
	}

	q := s.Dialect.Rebind(`
	INSERT INTO timezone_cache (
		cache_key,
		zone_name,
		abbreviation,
		country_code,
		country_name,
		gmt_offset,
		dst,
		zone_start,
		zone_end,
		expires_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (cache_key) DO UPDATE
	SET zone_name = EXCLUDED.zone_name,
		abbreviation = EXCLUDED.abbreviation,
		country_code = EXCLUDED.country_code,
		country_name = EXCLUDED.country_name,
		gmt_offset = EXCLUDED.gmt_offset,
		dst = EXCLUDED.dst,
		zone_start = EXCLUDED.zone_start,
		zone_end = EXCLUDED.zone_end,
		expires_at = EXCLUDED.expires_at;
	`)

	dst := 0
	if res.DST {
		dst = 1
	}

	_, err = s.DB.ExecContext(ctx, q,
		key,
		res.ZoneName,
		res.Abbreviation,
		res.CountryCode,
		res.CountryName,
		res.GMTOffsetSeconds,
		dst,
		res.ZoneStart,
		res.ZoneEnd,
		expiresAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert timezone cache key=%q: %w", key, err)
	}

	return nil
}

// Purge deletes expired entries and returns how many were removed.
func (s *SQLTimezoneCache) Purge(ctx context.Context) (_ int64, err error) {
	defer obs.Time(ctx, "timezone.cache.Purge")(&err)

	if s.DB == nil {
		return 0, errors.New("timezone cache: db is nil")
	}

	q := s.Dialect.Rebind(`DELETE FROM timezone_cache WHERE expires_at <= ?;`)
	result, err := s.DB.ExecContext(ctx, q, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge timezone cache: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge timezone cache: rows affected: %w", err)
	}
	return n, nil
}

func (s *SQLTimezoneCache) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
