package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Open connects to a sqlite or postgres database and verifies the connection.
func Open(dialect Dialect, dsn string) (*sql.DB, error) {
	if err := dialect.Validate(); err != nil {
		return nil, fmt.Errorf("openDB: %w", err)
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("openDB: open %s database: %w", dialect, err)
	}

	switch dialect {
	case Postgres:
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	case SQLite:
		// One writer at a time; also keeps ":memory:" databases on a single connection.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("openDB: verify %s connection: %w", dialect, err)
	}

	return db, nil
}
