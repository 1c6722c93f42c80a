package db

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect selects the SQL driver and placeholder style.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

func ParseDialect(s string) (Dialect, error) {
	d := Dialect(strings.ToLower(strings.TrimSpace(s)))
	if err := d.Validate(); err != nil {
		return "", err
	}
	return d, nil
}

func (d Dialect) Validate() error {
	switch d {
	case SQLite, Postgres:
		return nil
	default:
		return fmt.Errorf("unsupported database dialect %q", string(d))
	}
}

// DriverName is the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	if d == Postgres {
		return "pgx"
	}
	return "sqlite"
}

// Rebind rewrites "?" placeholders as "$1", "$2", ... for postgres.
// Queries must not contain literal question marks.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
