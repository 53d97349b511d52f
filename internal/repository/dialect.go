package repository

import (
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect holds the driver name and the SQL that differs between backends.
type Dialect struct {
	Name   string
	Driver string
	schema string
	// numbered placeholders ($1, $2) instead of ?
	numbered bool
}

var (
	Postgres = Dialect{
		Name:     "postgres",
		Driver:   "pgx",
		numbered: true,
		schema: `
		CREATE TABLE IF NOT EXISTS shortlinks (
			id BIGSERIAL PRIMARY KEY,
			short_code VARCHAR(50) NOT NULL UNIQUE,
			original_url TEXT NOT NULL,
			click_count BIGINT NOT NULL DEFAULT 0 CHECK (click_count >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
	}

	SQLite = Dialect{
		Name:   "sqlite",
		Driver: "sqlite",
		schema: `
		CREATE TABLE IF NOT EXISTS shortlinks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			short_code VARCHAR(50) NOT NULL UNIQUE,
			original_url TEXT NOT NULL,
			click_count INTEGER NOT NULL DEFAULT 0 CHECK (click_count >= 0),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
	}

	LibSQL = Dialect{
		Name:   "libsql",
		Driver: "libsql",
		schema: SQLite.schema,
	}
)

// DialectFor picks the backend from the shape of the DSN.
func DialectFor(dsn string) Dialect {
	switch {
	case strings.HasPrefix(dsn, "libsql://"), strings.HasPrefix(dsn, "wss://"):
		return LibSQL
	case strings.HasPrefix(dsn, "file:"), strings.HasPrefix(dsn, "sqlite:"), strings.HasSuffix(dsn, ".db"):
		return SQLite
	default:
		return Postgres
	}
}

// bind rewrites ? placeholders into the dialect's placeholder style.
func (d Dialect) bind(query string) string {
	if !d.numbered {
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

// isUniqueViolation reports whether err was caused by the short_code unique constraint.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}

	// libsql reports remote errors as plain text
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
