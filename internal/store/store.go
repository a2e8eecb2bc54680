package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
)

// Store persists projects, requirements and their versioned links.
// A Store is owned by a single run; concurrent runs each open their own.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for per-write debug output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open connects to the store at location and applies the schema.
//
// SQLite connections are configured through the DSN, so every connection
// the pool opens gets:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// Schema application is idempotent - safe to call on an existing store.
// All failures are reported as *ConnectionError.
func Open(ctx context.Context, location string, opts ...Option) (*Store, error) {
	dialect, dsn, ok := ParseLocation(location)
	if !ok {
		return nil, &ConnectionError{Location: location, Err: fmt.Errorf("empty location")}
	}

	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, &ConnectionError{Location: location, Err: fmt.Errorf("open database: %w", err)}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &ConnectionError{Location: location, Err: fmt.Errorf("ping database: %w", err)}
	}

	if dialect == SQLite {
		// SQLite only supports one writer at a time
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := applySchema(ctx, db, dialect); err != nil {
		db.Close()
		return nil, &ConnectionError{Location: location, Err: fmt.Errorf("apply schema: %w", err)}
	}

	s := New(db, dialect, opts...)
	s.logger.Debug("store opened", "dialect", dialect.String())
	return s, nil
}

// New wraps an already-open handle whose schema is in place.
// The Store takes ownership of db.
func New(db *sql.DB, dialect Dialect, opts ...Option) *Store {
	s := &Store{
		db:      db,
		dialect: dialect,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Dialect returns the backend the store talks to.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.dialect.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
}

// applySchema creates tables if they don't exist.
func applySchema(ctx context.Context, db *sql.DB, dialect Dialect) error {
	for _, stmt := range schemaStatements(dialect.schema()) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema: %w", err)
		}
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
