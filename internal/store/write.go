package store

import (
	"context"

	"github.com/roach88/pypeep/internal/listing"
)

// RecordProject ensures a project row exists.
// Uses ON CONFLICT(name) DO NOTHING - recording an existing project is a no-op.
func (s *Store) RecordProject(ctx context.Context, name string) error {
	if name == "" {
		return &StoreError{Op: OpRecordProject, Err: ErrEmptyName}
	}

	s.logger.Debug("recording project", "project", name)
	_, err := s.exec(ctx, `
		INSERT INTO projects (name)
		VALUES (?)
		ON CONFLICT(name) DO NOTHING
	`, name)
	if err != nil {
		return &StoreError{Op: OpRecordProject, Key: name, Err: err}
	}
	return nil
}

// RecordRequirement ensures a requirement row exists.
// Requirements are shared across projects; recording an existing one is a no-op.
func (s *Store) RecordRequirement(ctx context.Context, name string) error {
	if name == "" {
		return &StoreError{Op: OpRecordRequirement, Err: ErrEmptyName}
	}

	s.logger.Debug("recording requirement", "requirement", name)
	_, err := s.exec(ctx, `
		INSERT INTO requirements (name)
		VALUES (?)
		ON CONFLICT(name) DO NOTHING
	`, name)
	if err != nil {
		return &StoreError{Op: OpRecordRequirement, Key: name, Err: err}
	}
	return nil
}

// RecordProjectRequirement merges the installed version of requirement into
// project's dependency state.
//
// The merge is one INSERT ... ON CONFLICT DO UPDATE statement: a new pair is
// inserted, an existing pair gets current_version overwritten and updated_at
// refreshed. The unique key on (project_name, requirement) is the only
// serialization point between concurrent writers of the same pair.
//
// Note: project and requirement rows must already exist (foreign key constraints).
func (s *Store) RecordProjectRequirement(ctx context.Context, project, requirement, version string) error {
	key := linkKey(project, requirement)
	switch {
	case project == "" || requirement == "":
		return &StoreError{Op: OpRecordProjectRequirement, Key: key, Err: ErrEmptyName}
	case version == "":
		return &StoreError{Op: OpRecordProjectRequirement, Key: key, Err: ErrEmptyVersion}
	}

	s.logger.Debug("recording project requirement",
		"project", project, "requirement", requirement, "version", version)
	_, err := s.exec(ctx, `
		INSERT INTO project_requirements (project_name, requirement, current_version, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(project_name, requirement) DO UPDATE SET
			current_version = excluded.current_version,
			updated_at = CURRENT_TIMESTAMP
	`, project, requirement, version)
	if err != nil {
		return &StoreError{Op: OpRecordProjectRequirement, Key: key, Err: err}
	}
	return nil
}

// MergeReport summarizes a MergeListing call.
type MergeReport struct {
	Project string `json:"project"`

	// Merged counts records whose requirement and link were both written.
	Merged int `json:"merged"`

	// Failed is the record that stopped the merge, nil on success.
	Failed *listing.Record `json:"failed,omitempty"`
}

// MergeListing records project, then each record's requirement and link, in
// listing order.
//
// Writes are issued one at a time and the merge stops at the first failure.
// Already-applied writes stay committed; each is idempotent so the whole
// merge can be re-run. The report is valid even when an error is returned.
func (s *Store) MergeListing(ctx context.Context, project string, records []listing.Record) (MergeReport, error) {
	report := MergeReport{Project: project}

	if err := s.RecordProject(ctx, project); err != nil {
		return report, err
	}

	for i := range records {
		rec := records[i]

		if err := ctx.Err(); err != nil {
			report.Failed = &rec
			return report, &StoreError{Op: OpMergeListing, Key: linkKey(project, rec.Name), Err: err}
		}
		if err := s.RecordRequirement(ctx, rec.Name); err != nil {
			report.Failed = &rec
			return report, err
		}
		if err := s.RecordProjectRequirement(ctx, project, rec.Name, rec.Version); err != nil {
			report.Failed = &rec
			return report, err
		}
		report.Merged++
		s.logger.Debug("requirement merged", "project", project, "requirement", rec.Name)
	}

	s.logger.Debug("listing merged", "project", project, "merged", report.Merged)
	return report, nil
}
