package ops

import (
	"fmt"

	"github.com/isldpipe/isldpipe/internal/job"
)

// buildEnrich adds the derived analysis columns: the declaration date (first
// non-sentinel of signature and reflected date, in policy order), the
// declaration lag in days, the numeric release, and the calendar time bucket
// truncated from the application date.
//
// The sentinel placeholder date is treated as absence, bound as a parameter.
func buildEnrich(c *Context, j *job.Spec, source, saveAs string) (Result, error) {
	src, err := c.Resolve(source)
	if err != nil {
		return Result{}, err
	}
	target := c.Allocate(saveAs)

	first, second := "sig_date", "ref_date"
	if j.Policies.DeclDate == job.ReflectedFirst {
		first, second = second, first
	}
	declExpr := fmt.Sprintf("COALESCE(NULLIF(%s, ?), NULLIF(%s, ?))", first, second)

	var bucketExpr string
	switch j.Bucket {
	case job.BucketYear:
		bucketExpr = "SUBSTR(app_date, 1, 4) || '-01-01'"
	default:
		bucketExpr = "SUBSTR(app_date, 1, 7) || '-01'"
	}

	lagExpr := "__lag"
	where := ""
	switch j.Policies.NegativeLag {
	case job.LagZero:
		lagExpr = "CASE WHEN __lag < 0 THEN 0 ELSE __lag END"
	case job.LagNull:
		lagExpr = "CASE WHEN __lag < 0 THEN NULL ELSE __lag END"
	case job.LagDrop:
		// Rows without a lag are kept; only a known-negative lag drops.
		where = "\nWHERE __lag IS NULL OR __lag >= 0"
	}

	sql := fmt.Sprintf(`CREATE TEMP TABLE %s AS
SELECT *,
       %s AS lag_days,
       CASE WHEN UPPER(spec_version) LIKE 'REL-%%'
              THEN CAST(SUBSTR(spec_version, 5) AS INTEGER)
            WHEN spec_version GLOB '[0-9]*'
              THEN CAST(spec_version AS INTEGER)
       END AS release_num,
       CASE WHEN app_date IS NOT NULL THEN %s END AS time_bucket
FROM (
  SELECT *,
         CASE WHEN decl_date IS NOT NULL AND app_date IS NOT NULL
                THEN CAST(JULIANDAY(decl_date) - JULIANDAY(app_date) AS INTEGER)
         END AS __lag
  FROM (
    SELECT *, %s AS decl_date FROM %s
  )
)%s`, target, lagExpr, bucketExpr, declExpr, src, where)

	params := []any{j.Policies.SentinelDate, j.Policies.SentinelDate}
	return Result{Target: target, SQL: sql, Params: params}, nil
}
