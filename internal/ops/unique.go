package ops

import (
	"fmt"

	"github.com/isldpipe/isldpipe/internal/job"
)

// buildUnique deduplicates the source on the job's uniqueness unit: one
// survivor per key value, chosen by lowest source-row number. Rows with an
// absent key are excluded, since absence identifies nothing. UnitNone keeps
// every row.
func buildUnique(c *Context, j *job.Spec, source, saveAs string) (Result, error) {
	src, err := c.Resolve(source)
	if err != nil {
		return Result{}, err
	}
	target := c.Allocate(saveAs)

	if j.Unique == job.UnitNone {
		sql := fmt.Sprintf("CREATE TEMP TABLE %s AS SELECT * FROM %s", target, src)
		return Result{Target: target, SQL: sql}, nil
	}

	col := j.Unique.Column()
	if col == "" {
		return Result{}, fmt.Errorf("uniqueness unit %q has no key column", j.Unique)
	}

	sql := fmt.Sprintf(`CREATE TEMP TABLE %s AS
SELECT * FROM (
  SELECT *,
         ROW_NUMBER() OVER (PARTITION BY %s ORDER BY src_rownum ASC) AS __rn
  FROM %s
  WHERE %s IS NOT NULL
) WHERE __rn = 1`, target, col, src, col)
	return Result{Target: target, SQL: sql}, nil
}
