// Package store provides relational storage for dependency state.
//
// The schema has three tables:
//   - projects: tracked packages, UNIQUE(name)
//   - requirements: dependency packages shared by all projects, UNIQUE(name)
//   - project_requirements: versioned links, PRIMARY KEY(project_name, requirement)
//
// # Write Semantics
//
// Every write is a single statement and therefore atomically committed:
//   - Projects and requirements use INSERT ... ON CONFLICT(name) DO NOTHING
//   - Links use INSERT ... ON CONFLICT(project_name, requirement) DO UPDATE,
//     overwriting current_version and refreshing updated_at
//
// MergeListing issues those writes strictly in listing order, stops at the
// first failure, and does not roll back earlier writes. Each write is
// idempotent, so re-running a failed merge is safe.
//
// # Backends
//
// The location passed to Open selects the driver:
//   - postgres:// or postgresql:// URIs use pgx through database/sql
//   - anything else is a SQLite path (an optional sqlite:// prefix is stripped)
//
// SQLite databases are configured with WAL mode, a 5 second busy timeout,
// foreign key enforcement and a single connection.
package store
