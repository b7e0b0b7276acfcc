// Package ops is the operation library: named, parametrized builders of
// relational transformation steps. Every operation is a pure function of
// (context, args) to a SQL result; nothing here touches the database, and
// nothing here ever mutates the durable relation.
package ops

import (
	"fmt"
	"regexp"
)

// SourceStore is the logical input role naming the durable relation.
const SourceStore = "store"

const storeTable = "isld_pure"

var nameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// Context allocates and resolves scratch-relation names for one job run.
//
// Physical names are a pure function of (run id, job id, step index,
// logical role), so two runs with different run ids can never collide on
// the same store, whatever their timing.
type Context struct {
	runID string
	jobID string
	step  int
	temps map[string]string
	order []string
}

// NewContext creates a naming context for one job run.
func NewContext(runID, jobID string) *Context {
	return &Context{
		runID: sanitizeName(runID),
		jobID: sanitizeName(jobID),
		temps: make(map[string]string),
	}
}

// Allocate assigns the physical scratch name for a logical role and
// records ownership for later cleanup. Step indexes increase monotonically
// within the run.
func (c *Context) Allocate(role string) string {
	c.step++
	physical := fmt.Sprintf("tmp__%s__%s__%02d__%s", c.runID, c.jobID, c.step, sanitizeName(role))
	c.temps[role] = physical
	c.order = append(c.order, physical)
	return physical
}

// Resolve returns the physical relation behind a logical role. The store
// role always resolves to the durable relation.
func (c *Context) Resolve(role string) (string, error) {
	if role == SourceStore {
		return storeTable, nil
	}
	physical, ok := c.temps[role]
	if !ok {
		return "", fmt.Errorf("ops: logical role %q not allocated", role)
	}
	return physical, nil
}

// Scratch returns every scratch relation allocated so far, in creation
// order. Cleanup drops them in reverse.
func (c *Context) Scratch() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

func sanitizeName(s string) string {
	return nameSanitizer.ReplaceAllString(s, "_")
}
