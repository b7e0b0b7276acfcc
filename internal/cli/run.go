package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/isldpipe/isldpipe/internal/config"
	"github.com/isldpipe/isldpipe/internal/exec"
	"github.com/isldpipe/isldpipe/internal/export"
	"github.com/isldpipe/isldpipe/internal/ingest"
	"github.com/isldpipe/isldpipe/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Job    string
	DryRun bool
}

// RunSummary is the run command's result payload.
type RunSummary struct {
	Loaded   bool           `json:"loaded"`
	RowsRead int64          `json:"rows_read,omitempty"`
	Jobs     []*exec.Report `json:"jobs"`
	Workbook string         `json:"workbook,omitempty"`
}

func (s RunSummary) String() string {
	var b strings.Builder
	if s.Loaded {
		fmt.Fprintf(&b, "loaded %d rows\n", s.RowsRead)
	}
	for _, r := range s.Jobs {
		for _, out := range r.Outputs {
			fmt.Fprintf(&b, "%s: %d rows -> %s\n", r.JobID, out.Rows, out.FileName)
		}
	}
	if s.Workbook != "" {
		fmt.Fprintf(&b, "workbook: %s\n", s.Workbook)
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <config>",
		Short: "Load the export if needed, then run configured jobs",
		Long: `Run every job in the configuration against the work database,
loading the export first if the database is empty. Results are written as
CSV files under the configured output directory and, when a workbook is
configured, assembled into a spreadsheet.

Example:
  isldpipe run run.yaml
  isldpipe run run.yaml --job filings_5g --dry-run`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobs(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Job, "job", "", "run only the job with this id")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "execute plans but write no files")

	return cmd
}

func runJobs(cmd *cobra.Command, opts *RunOptions, cfgPath string) error {
	logger := newLogger(opts.Verbose)
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	st, err := store.Open(cfg.DB)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	loaded, stats, err := ingest.LoadIfNeeded(ctx, st, cfg.CSV, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load export", err)
	}

	summary := RunSummary{Loaded: loaded, RowsRead: stats.Rows}
	executor := exec.New(st, logger)
	writer := export.NewWriter(cfg.OutDir, logger)

	matched := false
	for i := range cfg.Jobs {
		j := &cfg.Jobs[i]
		if opts.Job != "" && j.ID != opts.Job {
			continue
		}
		matched = true
		report, err := executor.Run(ctx, j, writer, exec.Options{DryRun: opts.DryRun})
		if err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("job %s failed", j.ID), err)
		}
		summary.Jobs = append(summary.Jobs, report)
	}
	if opts.Job != "" && !matched {
		return WrapExitError(ExitCommandError, fmt.Sprintf("no job with id %q in config", opts.Job), nil)
	}

	if !opts.DryRun && cfg.Workbook.File != "" && len(writer.Results()) > 0 {
		path := filepath.Join(cfg.OutDir, cfg.Workbook.File)
		if err := export.WriteWorkbook(path, writer.Results(), cfg.Workbook.Companies, logger); err != nil {
			return WrapExitError(ExitFailure, "failed to write workbook", err)
		}
		summary.Workbook = path
	}

	return formatter.Success(summary)
}
