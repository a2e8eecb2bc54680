package store

import (
	"context"
	"time"
)

// ProjectRequirement is the current state of one (project, requirement) pair.
type ProjectRequirement struct {
	Project        string    `json:"project"`
	Requirement    string    `json:"requirement"`
	CurrentVersion string    `json:"current_version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Projects returns all project names in name order.
// Returns an empty slice (not nil) if none exist.
func (s *Store) Projects(ctx context.Context) ([]string, error) {
	return s.readNames(ctx, "SELECT name FROM projects ORDER BY name ASC")
}

// Requirements returns all requirement names in name order.
func (s *Store) Requirements(ctx context.Context) ([]string, error) {
	return s.readNames(ctx, "SELECT name FROM requirements ORDER BY name ASC")
}

func (s *Store) readNames(ctx context.Context, query string) ([]string, error) {
	rows, err := s.query(ctx, query)
	if err != nil {
		return nil, &StoreError{Op: OpRead, Err: err}
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &StoreError{Op: OpRead, Err: err}
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: OpRead, Err: err}
	}
	return names, nil
}

// ProjectRequirements returns the dependency state of project ordered by
// requirement name. Returns an empty slice for an unknown project.
func (s *Store) ProjectRequirements(ctx context.Context, project string) ([]ProjectRequirement, error) {
	rows, err := s.query(ctx, `
		SELECT project_name, requirement, current_version, created_at, updated_at
		FROM project_requirements
		WHERE project_name = ?
		ORDER BY requirement ASC
	`, project)
	if err != nil {
		return nil, &StoreError{Op: OpRead, Key: project, Err: err}
	}
	defer rows.Close()

	result := []ProjectRequirement{}
	for rows.Next() {
		var pr ProjectRequirement
		if err := rows.Scan(&pr.Project, &pr.Requirement, &pr.CurrentVersion, &pr.CreatedAt, &pr.UpdatedAt); err != nil {
			return nil, &StoreError{Op: OpRead, Key: project, Err: err}
		}
		result = append(result, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: OpRead, Key: project, Err: err}
	}
	return result, nil
}
