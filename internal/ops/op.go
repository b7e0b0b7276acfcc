package ops

import (
	"fmt"
	"sort"

	"github.com/isldpipe/isldpipe/internal/job"
)

// Kind classifies what a built operation produces.
type Kind int

const (
	// KindScratch materializes a scratch relation (CREATE TEMP TABLE AS).
	KindScratch Kind = iota
	// KindQuery registers a read-only result query; it is never persisted.
	KindQuery
	// KindCleanup drops the run's scratch relations, best effort.
	KindCleanup
)

// Result is one fully built operation: SQL text with positional parameters,
// never interpolated values. Scratch results carry the physical target name;
// query results carry the output column list; cleanup carries one DROP
// statement per scratch relation.
type Result struct {
	Op         string
	Kind       Kind
	Target     string
	SQL        string
	Params     []any
	Columns    []string
	Statements []string
}

// BuildFunc builds one operation for a job. source and saveAs are logical
// roles resolved through the context; saveAs is ignored by query and
// cleanup operations.
type BuildFunc func(c *Context, j *job.Spec, source, saveAs string) (Result, error)

type opEntry struct {
	kind  Kind
	build BuildFunc
}

// Library is the closed operation registry. Plans may only reference
// operations registered here; there is no dynamic lookup beyond this map.
type Library struct {
	ops map[string]opEntry
}

// Operation names.
const (
	OpScope       = "scope"
	OpUnique      = "unique"
	OpEnrich      = "enrich"
	OpFilingCount = "sel_filing_count"
	OpLagStats    = "sel_lag_stats"
	OpTopSpecs    = "sel_top_specs"
	OpCompanyRank = "sel_company_rank"
	OpSpecHeat    = "sel_spec_heat"
	OpCleanup     = "cleanup"
)

// NewLibrary registers every operation the plan layer may reference.
func NewLibrary() *Library {
	l := &Library{ops: make(map[string]opEntry)}
	l.register(OpScope, KindScratch, buildScope)
	l.register(OpUnique, KindScratch, buildUnique)
	l.register(OpEnrich, KindScratch, buildEnrich)
	l.register(OpFilingCount, KindQuery, buildFilingCount)
	l.register(OpLagStats, KindQuery, buildLagStats)
	l.register(OpTopSpecs, KindQuery, buildTopSpecs)
	l.register(OpCompanyRank, KindQuery, buildCompanyRank)
	l.register(OpSpecHeat, KindQuery, buildSpecHeat)
	l.register(OpCleanup, KindCleanup, buildCleanup)
	return l
}

func (l *Library) register(name string, kind Kind, build BuildFunc) {
	l.ops[name] = opEntry{kind: kind, build: build}
}

// Build constructs the named operation, or fails if the plan references an
// operation outside the registry.
func (l *Library) Build(name string, c *Context, j *job.Spec, source, saveAs string) (Result, error) {
	entry, ok := l.ops[name]
	if !ok {
		return Result{}, fmt.Errorf("ops: unknown operation %q", name)
	}
	res, err := entry.build(c, j, source, saveAs)
	if err != nil {
		return Result{}, fmt.Errorf("ops: build %s: %w", name, err)
	}
	res.Op = name
	res.Kind = entry.kind
	return res, nil
}

// KindOf reports the result kind of a registered operation.
func (l *Library) KindOf(name string) (Kind, bool) {
	entry, ok := l.ops[name]
	return entry.kind, ok
}

// Names returns the registered operation names, sorted.
func (l *Library) Names() []string {
	out := make([]string, 0, len(l.ops))
	for name := range l.ops {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
