// Package exec drives one job end to end: compile the template plan,
// materialize the scratch chain, hand each registered query's rows to the
// export sink, then tear the scratch chain down. Queries are registered in
// memory only; nothing a select produces is ever persisted.
package exec

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/isldpipe/isldpipe/internal/job"
	"github.com/isldpipe/isldpipe/internal/ops"
	"github.com/isldpipe/isldpipe/internal/store"
	"github.com/isldpipe/isldpipe/internal/template"
)

// QueryRegistration is one named result query: SQL, bound parameters, and
// the ordered output column list.
type QueryRegistration struct {
	Ref     string
	SQL     string
	Params  []any
	Columns []string
}

// Sink consumes one registered query's rows. Implementations write flat
// files; the executor owns the row lifetime.
type Sink interface {
	Export(ctx context.Context, j *job.Spec, fileName string, reg QueryRegistration, rows *RowIter) (int64, error)
}

// Options tunes a run.
type Options struct {
	// DryRun executes the full plan but skips the sink.
	DryRun bool
}

// OutputReport summarizes one exported result.
type OutputReport struct {
	Ref      string
	FileName string
	Rows     int64
}

// Report summarizes one completed job run.
type Report struct {
	JobID   string
	RunID   string
	Outputs []OutputReport
}

// Executor runs compiled plans against the store.
type Executor struct {
	store    *store.Store
	lib      *ops.Library
	registry *template.Registry
	logger   *slog.Logger
}

// New builds an executor over the store. The operation library and template
// registry are constructed once here and never mutated afterwards.
func New(s *store.Store, logger *slog.Logger) *Executor {
	return &Executor{
		store:    s,
		lib:      ops.NewLibrary(),
		registry: template.NewRegistry(),
		logger:   logger,
	}
}

// Templates exposes the template catalogue names.
func (e *Executor) Templates() []string {
	return e.registry.Names()
}

// NewRunID returns a fresh run identifier, unique per invocation.
func NewRunID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

// Run executes one job under a fresh run id. A failure after the first
// scratch step still tears down whatever was created; cleanup problems are
// logged and never displace the original error.
func (e *Executor) Run(ctx context.Context, j *job.Spec, sink Sink, opts Options) (*Report, error) {
	runID := NewRunID()
	log := e.logger.With("job", j.ID, "run", runID)

	trace, err := e.Compile(j, runID)
	if err != nil {
		return nil, err
	}
	log.Info("plan compiled", "template", j.Template, "steps", len(trace.Steps))

	cleanup := trace.CleanupStatements()
	executed := false
	for _, st := range trace.Steps {
		if st.Target == "" {
			continue
		}
		log.Debug("materializing scratch relation", "op", st.Op, "target", st.Target)
		if err := e.store.Exec(ctx, st.SQL, st.Params...); err != nil {
			if executed {
				e.runCleanup(ctx, log, cleanup)
			}
			return nil, fmt.Errorf("job %s: step %s: %w", j.ID, st.Op, err)
		}
		executed = true
	}

	report := &Report{JobID: j.ID, RunID: runID}
	for _, out := range trace.Outputs {
		reg := trace.Queries[out.Ref]
		n, err := e.exportOne(ctx, j, out, reg, sink, opts)
		if err != nil {
			e.runCleanup(ctx, log, cleanup)
			return nil, fmt.Errorf("job %s: export %s: %w", j.ID, out.Ref, err)
		}
		log.Info("result exported", "ref", out.Ref, "rows", n, "file", out.FileName)
		report.Outputs = append(report.Outputs, OutputReport{Ref: out.Ref, FileName: out.FileName, Rows: n})
	}

	// Deferred teardown: scratch relations outlive the export, never the run.
	e.runCleanup(ctx, log, cleanup)
	return report, nil
}

func (e *Executor) exportOne(ctx context.Context, j *job.Spec, out template.Output, reg QueryRegistration, sink Sink, opts Options) (int64, error) {
	rows, err := e.store.Query(ctx, reg.SQL, reg.Params...)
	if err != nil {
		return 0, err
	}
	it := NewRowIter(rows, reg.Columns)
	defer it.Close()

	if opts.DryRun || sink == nil {
		var n int64
		for it.Next() {
			n++
		}
		return n, it.Err()
	}
	return sink.Export(ctx, j, out.FileName, reg, it)
}

// runCleanup drops the run's scratch relations best effort. Individual
// failures are warnings; execution already has its result.
func (e *Executor) runCleanup(ctx context.Context, log *slog.Logger, statements []string) {
	for _, stmt := range statements {
		if err := e.store.Exec(ctx, stmt); err != nil {
			log.Warn("scratch cleanup failed", "error", err)
		}
	}
}
