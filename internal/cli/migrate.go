package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pypeep/internal/config"
	"github.com/roach88/pypeep/internal/store"
)

// MigrateOptions holds flags for the migrate command.
type MigrateOptions struct {
	*RootOptions
	Database string
}

// MigrateResult is the JSON payload of a successful migrate run.
type MigrateResult struct {
	Dialect string `json:"dialect"`
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MigrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the store schema",
		Long: `Connect to the store and create the projects, requirements and
project_requirements tables if they do not exist. Safe to run repeatedly.

Examples:
  pypeep migrate --db ./pypeep.db
  pypeep migrate --db postgres://localhost/pypeep?sslmode=disable`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "store location: SQLite path or postgres:// URI")

	return cmd
}

func runMigrate(opts *MigrateOptions, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(out.GetErrWriter(), opts.Verbose)

	cfg, exitErr := loadConfig(opts.RootOptions, config.Config{Database: opts.Database})
	if exitErr != nil {
		return out.Fail(CodeConfig, nil, exitErr)
	}

	st, err := store.Open(commandContext(cmd), cfg.Database, store.WithLogger(logger))
	if err != nil {
		return out.Fail(CodeConnection, nil, WrapExitError(ExitCommandError, "failed to open store", err))
	}
	defer st.Close()

	logger.Info("schema ready", "dialect", st.Dialect().String())
	if opts.Format == "json" {
		return out.Success(MigrateResult{Dialect: st.Dialect().String()})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Schema ready (%s).\n", st.Dialect())
	return nil
}
