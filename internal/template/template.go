// Package template maps template names to plan skeletons. Compiling a
// template against a job description yields the full step plan plus the
// output descriptors the export layer binds to. The registry is built once
// at startup and never mutated.
package template

import (
	"fmt"
	"sort"

	"github.com/isldpipe/isldpipe/internal/job"
	"github.com/isldpipe/isldpipe/internal/ops"
	"github.com/isldpipe/isldpipe/internal/plan"
)

// Template names.
const (
	FilingCount = "ts_filing_count"
	LagStats    = "ts_lag_stats"
	TopSpecs    = "ts_top_specs"
	CompanyRank = "rank_company_counts"
	SpecHeat    = "heat_spec_company"
)

// Output describes one exportable result of a compiled plan.
type Output struct {
	Ref      string // query-registration name inside the plan
	FileName string // flat-file name, overridable per job
}

type buildFunc func(j *job.Spec) (plan.Plan, []Output)

// Registry is the closed template catalogue.
type Registry struct {
	builders map[string]buildFunc
}

// NewRegistry builds the five-template catalogue.
func NewRegistry() *Registry {
	return &Registry{builders: map[string]buildFunc{
		FilingCount: buildFilingCountPlan,
		LagStats:    buildLagStatsPlan,
		TopSpecs:    buildTopSpecsPlan,
		CompanyRank: buildCompanyRankPlan,
		SpecHeat:    buildSpecHeatPlan,
	}}
}

// Names returns the registered template names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.builders))
	for name := range r.builders {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Compile derives the plan and output descriptors for a job. An
// unresolvable template name is fatal here, before any execution.
func (r *Registry) Compile(j *job.Spec) (plan.Plan, []Output, error) {
	build, ok := r.builders[j.Template]
	if !ok {
		return plan.Plan{}, nil, fmt.Errorf("template: job %s names unknown template %q", j.ID, j.Template)
	}
	p, outputs := build(j)
	for i := range outputs {
		if j.Extra.OutFile != "" {
			outputs[i].FileName = j.Extra.OutFile
		}
	}
	return p, outputs, nil
}

func output(j *job.Spec, ref string) []Output {
	return []Output{{Ref: ref, FileName: fmt.Sprintf("%s__%s.csv", j.ID, ref)}}
}

// Filing counts deduplicate through COUNT(DISTINCT ...) in the query
// itself, so the skeleton skips the unique step.
func buildFilingCountPlan(j *job.Spec) (plan.Plan, []Output) {
	return plan.Plan{
		JobID: j.ID,
		Steps: []plan.Step{
			{Op: ops.OpScope, Source: ops.SourceStore, Out: "scoped"},
			{Op: ops.OpEnrich, Source: "scoped", Out: "enriched"},
			{Op: ops.OpFilingCount, Source: "enriched", Out: "filing_count"},
			{Op: ops.OpCleanup},
		},
	}, output(j, "filing_count")
}

func buildLagStatsPlan(j *job.Spec) (plan.Plan, []Output) {
	return plan.Plan{
		JobID: j.ID,
		Steps: []plan.Step{
			{Op: ops.OpScope, Source: ops.SourceStore, Out: "scoped"},
			{Op: ops.OpUnique, Source: "scoped", Out: "deduped"},
			{Op: ops.OpEnrich, Source: "deduped", Out: "enriched"},
			{Op: ops.OpLagStats, Source: "enriched", Out: "lag_stats"},
			{Op: ops.OpCleanup},
		},
	}, output(j, "lag_stats")
}

func buildTopSpecsPlan(j *job.Spec) (plan.Plan, []Output) {
	return plan.Plan{
		JobID: j.ID,
		Steps: []plan.Step{
			{Op: ops.OpScope, Source: ops.SourceStore, Out: "scoped"},
			{Op: ops.OpUnique, Source: "scoped", Out: "deduped"},
			{Op: ops.OpEnrich, Source: "deduped", Out: "enriched"},
			{Op: ops.OpTopSpecs, Source: "enriched", Out: "top_specs"},
			{Op: ops.OpCleanup},
		},
	}, output(j, "top_specs")
}

// Company ranking counts distinct units directly, so no unique or enrich
// step is needed; the query is bucket-independent.
func buildCompanyRankPlan(j *job.Spec) (plan.Plan, []Output) {
	return plan.Plan{
		JobID: j.ID,
		Steps: []plan.Step{
			{Op: ops.OpScope, Source: ops.SourceStore, Out: "scoped"},
			{Op: ops.OpCompanyRank, Source: "scoped", Out: "company_rank"},
			{Op: ops.OpCleanup},
		},
	}, output(j, "company_rank")
}

func buildSpecHeatPlan(j *job.Spec) (plan.Plan, []Output) {
	return plan.Plan{
		JobID: j.ID,
		Steps: []plan.Step{
			{Op: ops.OpScope, Source: ops.SourceStore, Out: "scoped"},
			{Op: ops.OpUnique, Source: "scoped", Out: "deduped"},
			{Op: ops.OpSpecHeat, Source: "deduped", Out: "spec_heat"},
			{Op: ops.OpCleanup},
		},
	}, output(j, "spec_heat")
}
