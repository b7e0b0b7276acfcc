package ops

import "github.com/isldpipe/isldpipe/internal/job"

// buildCleanup emits one DROP per scratch relation allocated by this run,
// in reverse creation order. The executor runs each statement best effort:
// a failed drop is logged, never raised.
func buildCleanup(c *Context, _ *job.Spec, _, _ string) (Result, error) {
	scratch := c.Scratch()
	statements := make([]string, 0, len(scratch))
	for i := len(scratch) - 1; i >= 0; i-- {
		statements = append(statements, "DROP TABLE IF EXISTS "+scratch[i])
	}
	return Result{Statements: statements}, nil
}
