package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/isldpipe/isldpipe/internal/config"
	"github.com/isldpipe/isldpipe/internal/exec"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	Job string
}

// PlanOutput is the plan command's JSON payload: the rendered trace per job.
type PlanOutput struct {
	Jobs []PlanJob `json:"jobs"`
}

// PlanJob is one compiled plan rendering.
type PlanJob struct {
	ID    string `json:"id"`
	Trace string `json:"trace"`
}

func (p PlanOutput) String() string {
	traces := make([]string, len(p.Jobs))
	for i, j := range p.Jobs {
		traces[i] = j.Trace
	}
	return strings.TrimRight(strings.Join(traces, "\n"), "\n")
}

// NewPlanCommand creates the plan command: compile and print, never execute.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan <config>",
		Short: "Print compiled job plans without executing them",
		Long: `Compile each configured job into its full step plan and print every
generated statement with its bound parameters. Nothing touches the
database; the run identifier shown is freshly allocated and discarded.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Job, "job", "", "print only the job with this id")
	return cmd
}

func runPlan(cmd *cobra.Command, opts *PlanOptions, cfgPath string) error {
	logger := newLogger(opts.Verbose)
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	executor := exec.New(nil, logger)
	out := PlanOutput{}
	for i := range cfg.Jobs {
		j := &cfg.Jobs[i]
		if opts.Job != "" && j.ID != opts.Job {
			continue
		}
		trace, err := executor.Compile(j, exec.NewRunID())
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("job %s does not compile", j.ID), err)
		}
		out.Jobs = append(out.Jobs, PlanJob{ID: j.ID, Trace: trace.Render()})
	}
	if opts.Job != "" && len(out.Jobs) == 0 {
		return WrapExitError(ExitCommandError, fmt.Sprintf("no job with id %q in config", opts.Job), nil)
	}
	return formatter.Success(out)
}
