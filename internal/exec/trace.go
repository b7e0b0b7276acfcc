package exec

import (
	"fmt"
	"strings"

	"github.com/isldpipe/isldpipe/internal/job"
	"github.com/isldpipe/isldpipe/internal/ops"
	"github.com/isldpipe/isldpipe/internal/plan"
	"github.com/isldpipe/isldpipe/internal/template"
)

// StepTrace is one fully built plan step. Scratch steps carry the physical
// target name; the cleanup step carries its statement list.
type StepTrace struct {
	Index      int
	Op         string
	Target     string
	SQL        string
	Params     []any
	Statements []string
}

// Trace is a compiled, inspectable plan: every step built, every query
// registered, nothing executed. The plan print mode renders exactly this.
type Trace struct {
	JobID   string
	RunID   string
	Plan    plan.Plan
	Steps   []StepTrace
	Queries map[string]QueryRegistration
	Outputs []template.Output
}

// Compile resolves the job's template, validates the plan, and builds every
// step under the given run id. Compilation touches no database state, so a
// configuration mismatch surfaces before any scratch relation exists.
func (e *Executor) Compile(j *job.Spec, runID string) (*Trace, error) {
	if err := j.Validate(); err != nil {
		return nil, err
	}
	p, outputs, err := e.registry.Compile(j)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(e.lib); err != nil {
		return nil, err
	}

	c := ops.NewContext(runID, j.ID)
	trace := &Trace{
		JobID:   j.ID,
		RunID:   runID,
		Plan:    p,
		Queries: make(map[string]QueryRegistration),
		Outputs: outputs,
	}
	for i, st := range p.Steps {
		res, err := e.lib.Build(st.Op, c, j, st.Source, st.Out)
		if err != nil {
			return nil, fmt.Errorf("job %s: %w", j.ID, err)
		}
		trace.Steps = append(trace.Steps, StepTrace{
			Index:      i + 1,
			Op:         st.Op,
			Target:     res.Target,
			SQL:        res.SQL,
			Params:     res.Params,
			Statements: res.Statements,
		})
		if res.Kind == ops.KindQuery {
			trace.Queries[st.Out] = QueryRegistration{
				Ref:     st.Out,
				SQL:     res.SQL,
				Params:  res.Params,
				Columns: res.Columns,
			}
		}
	}
	for _, out := range outputs {
		if _, ok := trace.Queries[out.Ref]; !ok {
			return nil, fmt.Errorf("job %s: output %q has no registered query", j.ID, out.Ref)
		}
	}
	return trace, nil
}

// CleanupStatements returns the trailing cleanup step's statements.
func (t *Trace) CleanupStatements() []string {
	for i := len(t.Steps) - 1; i >= 0; i-- {
		if len(t.Steps[i].Statements) > 0 {
			return t.Steps[i].Statements
		}
	}
	return nil
}

// Render formats the trace for the plan print mode: every step's SQL and
// parameters, then the query registrations and output bindings.
func (t *Trace) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "job: %s\n", t.JobID)
	fmt.Fprintf(&b, "run: %s\n", t.RunID)
	for _, st := range t.Steps {
		b.WriteString("\n")
		if st.Target != "" {
			fmt.Fprintf(&b, "step %d: %s -> %s\n", st.Index, st.Op, st.Target)
		} else {
			fmt.Fprintf(&b, "step %d: %s\n", st.Index, st.Op)
		}
		if st.SQL != "" {
			b.WriteString(st.SQL)
			b.WriteString("\n")
		}
		for _, stmt := range st.Statements {
			b.WriteString(stmt)
			b.WriteString("\n")
		}
		if len(st.Params) > 0 {
			fmt.Fprintf(&b, "params: %v\n", st.Params)
		}
	}
	b.WriteString("\n")
	for _, out := range t.Outputs {
		reg := t.Queries[out.Ref]
		fmt.Fprintf(&b, "output %s (%s) -> %s\n", out.Ref, strings.Join(reg.Columns, ", "), out.FileName)
	}
	return b.String()
}
