package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pypeep/internal/listing"
)

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	*RootOptions
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "parse [listing-file]",
		Short: "Parse a name==version listing without touching the store",
		Long: `Parse a listing as produced by "uv pip freeze" and print the numbered
records. Reads standard input when no file (or "-") is given.

Exit codes:
  0 - Listing is well formed
  1 - Malformed listing
  2 - Command error (file not readable)

Examples:
  uv pip freeze | pypeep parse
  pypeep parse requirements.lock --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return runParse(opts, path, cmd)
		},
	}

	return cmd
}

func runParse(opts *ParseOptions, path string, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)

	raw, err := readListing(path, cmd.InOrStdin())
	if err != nil {
		return out.Fail(CodeParse, nil, WrapExitError(ExitCommandError, "failed to read listing", err))
	}

	records, err := listing.Parse(string(raw))
	if err != nil {
		return out.Fail(CodeParse, parseDetails(err), WrapExitError(ExitFailure, "malformed listing", err))
	}
	out.VerboseLog("parsed %d records from %s", len(records), path)

	if opts.Format == "json" {
		return out.Success(records)
	}
	return WriteRecords(cmd.OutOrStdout(), records)
}

func readListing(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
