// Package plan defines the ordered step sequence compiled from a template
// skeleton and a job description, and validates it statically before
// anything touches the database.
package plan

import (
	"fmt"

	"github.com/isldpipe/isldpipe/internal/ops"
)

// Step names one operation, its logical input role, and its output. For
// scratch operations Out is the logical role of the produced relation; for
// query operations it is the registration name the export layer binds to.
// Cleanup takes neither.
type Step struct {
	Op     string
	Source string
	Out    string
}

// Plan is the full step sequence for one job. It is derived
// deterministically from a template skeleton; the same job description
// always yields the same plan.
type Plan struct {
	JobID string
	Steps []Step
}

var phase = map[string]int{
	ops.OpScope:       1,
	ops.OpUnique:      2,
	ops.OpEnrich:      3,
	ops.OpFilingCount: 4,
	ops.OpLagStats:    4,
	ops.OpTopSpecs:    4,
	ops.OpCompanyRank: 4,
	ops.OpSpecHeat:    4,
	ops.OpCleanup:     5,
}

// Validate checks the plan against the operation registry before any
// scratch relation exists: every op registered, outputs named exactly once,
// every source produced upstream, transformation phases in order, and a
// single cleanup step closing the plan.
func (p *Plan) Validate(lib *ops.Library) error {
	if p.JobID == "" {
		return fmt.Errorf("plan: missing job id")
	}
	if len(p.Steps) == 0 {
		return fmt.Errorf("plan %s: no steps", p.JobID)
	}

	produced := map[string]bool{ops.SourceStore: true}
	outs := map[string]bool{}
	queries := 0
	lastPhase := 0

	for i, st := range p.Steps {
		kind, ok := lib.KindOf(st.Op)
		if !ok {
			return fmt.Errorf("plan %s: step %d references unknown operation %q", p.JobID, i+1, st.Op)
		}

		ph := phase[st.Op]
		if ph < lastPhase {
			return fmt.Errorf("plan %s: step %d (%s) out of order", p.JobID, i+1, st.Op)
		}
		lastPhase = ph

		switch kind {
		case ops.KindScratch, ops.KindQuery:
			if !produced[st.Source] {
				return fmt.Errorf("plan %s: step %d (%s) reads unproduced role %q", p.JobID, i+1, st.Op, st.Source)
			}
			if st.Out == "" {
				return fmt.Errorf("plan %s: step %d (%s) has no output name", p.JobID, i+1, st.Op)
			}
			if outs[st.Out] {
				return fmt.Errorf("plan %s: output %q named twice", p.JobID, st.Out)
			}
			outs[st.Out] = true
			if kind == ops.KindScratch {
				produced[st.Out] = true
			} else {
				queries++
			}
		case ops.KindCleanup:
			if i != len(p.Steps)-1 {
				return fmt.Errorf("plan %s: cleanup must be the final step", p.JobID)
			}
		}
	}

	last := p.Steps[len(p.Steps)-1]
	if kind, _ := lib.KindOf(last.Op); kind != ops.KindCleanup {
		return fmt.Errorf("plan %s: missing trailing cleanup step", p.JobID)
	}
	if queries == 0 {
		return fmt.Errorf("plan %s: no query step, nothing to export", p.JobID)
	}
	return nil
}

// QuerySteps returns the query-registration steps in plan order.
func (p *Plan) QuerySteps(lib *ops.Library) []Step {
	var out []Step
	for _, st := range p.Steps {
		if kind, ok := lib.KindOf(st.Op); ok && kind == ops.KindQuery {
			out = append(out, st)
		}
	}
	return out
}
