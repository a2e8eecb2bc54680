package store

import (
	_ "embed"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema_sqlite.sql
var sqliteSchemaSQL string

//go:embed schema_postgres.sql
var postgresSchemaSQL string

// Dialect identifies the SQL backend behind a Store.
type Dialect int

const (
	// SQLite is a local database file driven by mattn/go-sqlite3.
	SQLite Dialect = iota

	// Postgres is a server reached through pgx.
	Postgres
)

func (d Dialect) String() string {
	switch d {
	case SQLite:
		return "sqlite"
	case Postgres:
		return "postgres"
	default:
		return "unknown"
	}
}

func (d Dialect) driverName() string {
	if d == Postgres {
		return "pgx"
	}
	return "sqlite3"
}

func (d Dialect) schema() string {
	if d == Postgres {
		return postgresSchemaSQL
	}
	return sqliteSchemaSQL
}

// rebind rewrites ? placeholders into the dialect's native form.
// Queries in this package never contain a literal '?'.
func (d Dialect) rebind(query string) string {
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

// ParseLocation maps an opaque store location onto a dialect and the DSN
// handed to the driver.
func ParseLocation(location string) (Dialect, string, bool) {
	location = strings.TrimSpace(location)
	switch {
	case location == "":
		return SQLite, "", false
	case strings.HasPrefix(location, "postgres://"), strings.HasPrefix(location, "postgresql://"):
		return Postgres, location, true
	case strings.HasPrefix(location, "sqlite://"):
		path := strings.TrimPrefix(location, "sqlite://")
		return SQLite, sqliteDSN(path), path != ""
	case isKeywordDSN(location):
		return Postgres, location, true
	default:
		return SQLite, sqliteDSN(location), true
	}
}

// sqliteParams are the mattn/go-sqlite3 connection parameters applied to
// every connection in the pool.
var sqliteParams = []string{
	"_journal_mode=WAL",
	"_synchronous=NORMAL",
	"_busy_timeout=5000",
	"_foreign_keys=on",
}

// sqliteDSN appends the connection parameters to a SQLite path or file: URI.
func sqliteDSN(path string) string {
	if path == "" {
		return ""
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(sqliteParams, "&")
}

// isKeywordDSN reports whether location is a libpq keyword/value
// connection string such as "host=localhost dbname=pypeep".
func isKeywordDSN(location string) bool {
	fields := strings.Fields(location)
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		key, _, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return false
		}
		for _, r := range key {
			if (r < 'a' || r > 'z') && r != '_' {
				return false
			}
		}
	}
	return true
}

// schemaStatements splits a schema file into individual statements.
func schemaStatements(schema string) []string {
	var stmts []string
	for _, s := range strings.Split(schema, ";") {
		if s = strings.TrimSpace(s); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
