package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/pypeep/internal/config"
	"github.com/roach88/pypeep/internal/installer"
	"github.com/roach88/pypeep/internal/listing"
	"github.com/roach88/pypeep/internal/store"
)

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	Package     string
	Database    string
	Installer   string
	SkipInstall bool
	Show        bool

	// Runner allows overriding how the package manager is executed (for testing).
	// If nil, defaults to installer.ExecRunner.
	Runner installer.Runner
}

// RecordResult is the JSON payload of a successful record run.
type RecordResult struct {
	Project      string           `json:"project"`
	Requirements []listing.Record `json:"requirements"`
	Merged       int              `json:"merged"`

	// State is the project's stored dependency state, set with --show.
	State []store.ProjectRequirement `json:"state,omitempty"`
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}
	return newRecordCommand(opts)
}

func newRecordCommand(opts *RecordOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record --package <name>",
		Short: "Install a package and record its dependency versions",
		Long: `Install a package with the configured package manager, list the
installed packages, and merge the listing into the store under the package's
name.

Each requirement's current version is overwritten and its update time
refreshed; projects and requirements are created on first sighting. The merge
stops at the first failed write and keeps what was already written.

Exit codes:
  0 - Listing recorded
  1 - Malformed listing or failed store write
  2 - Command error (configuration, installer, store unreachable)

Examples:
  pypeep record --package flask --db ./pypeep.db
  PYPEEP_DB_PATH=postgres://localhost/pypeep pypeep record --package flask
  pypeep record --package flask --skip-install --format json
  pypeep record --package flask --db ./pypeep.db --show`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Package, "package", "p", "", "package whose dependencies are recorded (required)")
	_ = cmd.MarkFlagRequired("package")
	cmd.Flags().StringVar(&opts.Database, "db", "", "store location: SQLite path or postgres:// URI")
	cmd.Flags().StringVar(&opts.Installer, "installer", "", "package manager binary (default uv)")
	cmd.Flags().BoolVar(&opts.SkipInstall, "skip-install", false, "record the current environment without installing")
	cmd.Flags().BoolVar(&opts.Show, "show", false, "print the project's stored versions after recording")

	return cmd
}

func runRecord(opts *RecordOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	runID := newRunID()
	out := newFormatter(opts.RootOptions, cmd)
	out.RunID = runID
	logger := newLogger(out.GetErrWriter(), opts.Verbose).With("run_id", runID)

	cfg, exitErr := loadConfig(opts.RootOptions, config.Config{Database: opts.Database, Installer: opts.Installer})
	if exitErr != nil {
		return out.Fail(CodeConfig, nil, exitErr)
	}

	inst := installer.New(cfg.Installer, opts.Runner, logger)
	if !opts.SkipInstall {
		if err := inst.Install(ctx, opts.Package); err != nil {
			return out.Fail(CodeInstall, nil,
				WrapExitError(ExitCommandError, fmt.Sprintf("failed to install %s", opts.Package), err))
		}
	}

	raw, err := inst.Freeze(ctx)
	if err != nil {
		return out.Fail(CodeInstall, nil, WrapExitError(ExitCommandError, "failed to list installed packages", err))
	}

	records, err := listing.Parse(raw)
	if err != nil {
		return out.Fail(CodeParse, parseDetails(err), WrapExitError(ExitFailure, "malformed listing", err))
	}
	logger.Info("listing parsed", "requirements", len(records))

	st, err := store.Open(ctx, cfg.Database, store.WithLogger(logger))
	if err != nil {
		return out.Fail(CodeConnection, nil, WrapExitError(ExitCommandError, "failed to open store", err))
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing store", "error", closeErr)
		}
	}()

	report, err := st.MergeListing(ctx, opts.Package, records)
	if err != nil {
		logger.Error("merge stopped", "project", opts.Package, "merged", report.Merged, "error", err)
		return out.Fail(CodeMerge, report, WrapExitError(ExitFailure, fmt.Sprintf("failed to record %s", opts.Package), err))
	}
	logger.Info("listing recorded", "project", report.Project, "merged", report.Merged)

	var state []store.ProjectRequirement
	if opts.Show {
		state, err = st.ProjectRequirements(ctx, opts.Package)
		if err != nil {
			return out.Fail(CodeMerge, nil, WrapExitError(ExitFailure, fmt.Sprintf("failed to read state of %s", opts.Package), err))
		}
	}

	if opts.Format == "json" {
		return out.Success(RecordResult{
			Project:      report.Project,
			Requirements: records,
			Merged:       report.Merged,
			State:        state,
		})
	}
	return outputRecordText(cmd, records, report, state, opts.Show, logger)
}

func outputRecordText(cmd *cobra.Command, records []listing.Record, report store.MergeReport,
	state []store.ProjectRequirement, show bool, logger *slog.Logger) error {
	w := cmd.OutOrStdout()
	if err := WriteRecords(w, records); err != nil {
		logger.Error("failed to render table", "error", err)
		return err
	}
	fmt.Fprintf(w, "\nRecorded %d requirements for %s.\n", report.Merged, report.Project)

	if !show {
		return nil
	}
	fmt.Fprintf(w, "\nStored state of %s:\n", report.Project)
	if err := WriteProjectRequirements(w, state); err != nil {
		logger.Error("failed to render state", "error", err)
		return err
	}
	return nil
}

// parseDetails exposes the malformed lines of a parse failure for JSON output.
func parseDetails(err error) interface{} {
	var pe *listing.ParseError
	if errors.As(err, &pe) {
		return pe.Lines
	}
	return nil
}
