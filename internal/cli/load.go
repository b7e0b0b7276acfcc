package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/isldpipe/isldpipe/internal/config"
	"github.com/isldpipe/isldpipe/internal/ingest"
	"github.com/isldpipe/isldpipe/internal/store"
)

// LoadSummary is the load command's result payload.
type LoadSummary struct {
	Loaded      bool  `json:"loaded"`
	Rows        int64 `json:"rows"`
	InvalidDate int64 `json:"invalid_date"`
	InvalidInt  int64 `json:"invalid_int"`
	InvalidBool int64 `json:"invalid_bool"`
}

func (s LoadSummary) String() string {
	if !s.Loaded {
		return "store already populated, nothing to do"
	}
	return fmt.Sprintf("loaded %d rows (invalid dates: %d, ints: %d, bools: %d)",
		s.Rows, s.InvalidDate, s.InvalidInt, s.InvalidBool)
}

// NewLoadCommand creates the load command: ingestion only, no jobs.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <config>",
		Short: "Load the export into the work database",
		Long: `Load the configured export into the work database without running
any jobs. Loading an already-populated database is a no-op.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, rootOpts, args[0])
		},
	}
	return cmd
}

func runLoad(cmd *cobra.Command, opts *RootOptions, cfgPath string) error {
	logger := newLogger(opts.Verbose)
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	st, err := store.Open(cfg.DB)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	loaded, stats, err := ingest.LoadIfNeeded(ctx, st, cfg.CSV, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load export", err)
	}

	return formatter.Success(LoadSummary{
		Loaded:      loaded,
		Rows:        stats.Rows,
		InvalidDate: stats.InvalidDate,
		InvalidInt:  stats.InvalidInt,
		InvalidBool: stats.InvalidBool,
	})
}
