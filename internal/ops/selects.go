package ops

import (
	"fmt"
	"strings"

	"github.com/isldpipe/isldpipe/internal/job"
)

// The five analytic builders. Each produces a query registration over an
// enriched scratch relation: SQL text, bound parameters, and the output
// column list, in result order. Nothing here is ever materialized.
//
// Every builder classifies rows into country buckets by exact country-key
// match against the job's analysis countries; unmatched rows land in an
// OTHER bucket that only the synthetic ALL rollup sees. A group with no
// contributing rows is simply absent.

// countryCase returns the classification expression and its parameters.
// Both the match value and the emitted label are bound, never interpolated.
func countryCase(countries []string) (string, []any) {
	if len(countries) == 0 {
		return "'OTHER'", nil
	}
	var b strings.Builder
	var params []any
	b.WriteString("CASE")
	for _, ct := range countries {
		b.WriteString(" WHEN country_key = ? THEN ?")
		params = append(params, ct, ct)
	}
	b.WriteString(" ELSE 'OTHER' END")
	return b.String(), params
}

// expandedCTE emits the expanded CTE body: the per-country rows, plus the
// ALL rollup over every base row when requested.
func expandedCTE(cols string, includeAll bool) string {
	out := fmt.Sprintf("SELECT %s FROM base WHERE country <> 'OTHER'", cols)
	if includeAll {
		out += fmt.Sprintf("\n  UNION ALL\n  SELECT 'ALL', %s FROM base",
			strings.TrimPrefix(cols, "country, "))
	}
	return out
}

// buildFilingCount counts distinct application identifiers per
// (country, company, bucket). Rows missing the application identifier, the
// application date, or the company are excluded before counting.
func buildFilingCount(c *Context, j *job.Spec, source, _ string) (Result, error) {
	src, err := c.Resolve(source)
	if err != nil {
		return Result{}, err
	}
	caseExpr, params := countryCase(j.Extra.Countries)

	sql := fmt.Sprintf(`WITH base AS (
  SELECT %s AS country,
         company_name AS company,
         time_bucket AS bucket,
         app_number
  FROM %s
  WHERE app_number IS NOT NULL
    AND time_bucket IS NOT NULL
    AND company_name IS NOT NULL
),
expanded AS (
  %s
)
SELECT country, company, bucket, COUNT(DISTINCT app_number) AS filing_count
FROM expanded
GROUP BY country, company, bucket
ORDER BY country, company, bucket`,
		caseExpr, src, expandedCTE("country, company, bucket, app_number", j.Extra.IncludeAll))

	return Result{
		SQL:     sql,
		Params:  params,
		Columns: []string{"country", "company", "bucket", "filing_count"},
	}, nil
}

// buildLagStats summarizes the declaration lag per (country, company,
// bucket): count, min, rank-banded quartiles, max. The quartiles come from
// a four-way NTILE banding of the sorted lags, so equal lag values band
// stably instead of being interpolated.
func buildLagStats(c *Context, j *job.Spec, source, _ string) (Result, error) {
	src, err := c.Resolve(source)
	if err != nil {
		return Result{}, err
	}
	caseExpr, params := countryCase(j.Extra.Countries)

	sql := fmt.Sprintf(`WITH base AS (
  SELECT %s AS country,
         company_name AS company,
         time_bucket AS bucket,
         lag_days
  FROM %s
  WHERE lag_days IS NOT NULL
    AND time_bucket IS NOT NULL
    AND company_name IS NOT NULL
),
expanded AS (
  %s
),
banded AS (
  SELECT country, company, bucket, lag_days,
         NTILE(4) OVER (PARTITION BY country, company, bucket ORDER BY lag_days) AS band
  FROM expanded
)
SELECT country, company, bucket,
       COUNT(*) AS n,
       MIN(lag_days) AS min_lag,
       MAX(CASE WHEN band = 1 THEN lag_days END) AS q1,
       MAX(CASE WHEN band <= 2 THEN lag_days END) AS median,
       MAX(CASE WHEN band <= 3 THEN lag_days END) AS q3,
       MAX(lag_days) AS max_lag
FROM banded
GROUP BY country, company, bucket
ORDER BY country, company, bucket`,
		caseExpr, src, expandedCTE("country, company, bucket, lag_days", j.Extra.IncludeAll))

	return Result{
		SQL:     sql,
		Params:  params,
		Columns: []string{"country", "company", "bucket", "n", "min_lag", "q1", "median", "q3", "max_lag"},
	}, nil
}

// buildTopSpecs counts rows per specification identifier within each
// (country, company, bucket) group and keeps the K best ranks. Rank order
// is count descending, then specification identifier ascending, so equal
// counts resolve the same way on every run.
func buildTopSpecs(c *Context, j *job.Spec, source, _ string) (Result, error) {
	src, err := c.Resolve(source)
	if err != nil {
		return Result{}, err
	}
	caseExpr, params := countryCase(j.Extra.Countries)

	sql := fmt.Sprintf(`WITH base AS (
  SELECT %s AS country,
         company_name AS company,
         time_bucket AS bucket,
         spec_number
  FROM %s
  WHERE spec_number IS NOT NULL
    AND time_bucket IS NOT NULL
    AND company_name IS NOT NULL
),
expanded AS (
  %s
),
counted AS (
  SELECT country, company, bucket, spec_number, COUNT(*) AS cnt
  FROM expanded
  GROUP BY country, company, bucket, spec_number
),
ranked AS (
  SELECT country, company, bucket, spec_number, cnt,
         ROW_NUMBER() OVER (
           PARTITION BY country, company, bucket
           ORDER BY cnt DESC, spec_number ASC
         ) AS rank
  FROM counted
)
SELECT country, company, bucket, spec_number, cnt, rank
FROM ranked
WHERE rank <= ?
ORDER BY country, company, bucket, rank`,
		caseExpr, src, expandedCTE("country, company, bucket, spec_number", j.Extra.IncludeAll))

	params = append(params, int64(j.Extra.TopK))
	return Result{
		SQL:     sql,
		Params:  params,
		Columns: []string{"country", "company", "bucket", "spec_number", "cnt", "rank"},
	}, nil
}

// buildCompanyRank ranks companies per country by the distinct count of the
// job's uniqueness unit, independent of time bucket. Equal counts resolve
// by company key ascending.
func buildCompanyRank(c *Context, j *job.Spec, source, _ string) (Result, error) {
	src, err := c.Resolve(source)
	if err != nil {
		return Result{}, err
	}
	unitCol := j.Unique.Column()
	if unitCol == "" {
		return Result{}, fmt.Errorf("company ranking needs a uniqueness unit, got %q", j.Unique)
	}
	caseExpr, params := countryCase(j.Extra.Countries)

	sql := fmt.Sprintf(`WITH base AS (
  SELECT %s AS country,
         company_name AS company,
         company_key,
         %s AS unit
  FROM %s
  WHERE %s IS NOT NULL
    AND company_name IS NOT NULL
),
expanded AS (
  %s
),
counted AS (
  SELECT country, company, MIN(company_key) AS company_key, COUNT(DISTINCT unit) AS cnt
  FROM expanded
  GROUP BY country, company
)
SELECT country, company, ? AS unit, cnt,
       ROW_NUMBER() OVER (PARTITION BY country ORDER BY cnt DESC, company_key ASC) AS rank
FROM counted
ORDER BY country, rank`,
		caseExpr, unitCol, src, unitCol,
		expandedCTE("country, company, company_key, unit", j.Extra.IncludeAll))

	params = append(params, string(j.Unique))
	return Result{
		SQL:     sql,
		Params:  params,
		Columns: []string{"country", "company", "unit", "cnt", "rank"},
	}, nil
}

// buildSpecHeat cross-tabulates specification against company per country.
// The K specifications are chosen globally over the whole filtered
// population first, independent of country, then counted per
// (country, specification, company).
func buildSpecHeat(c *Context, j *job.Spec, source, _ string) (Result, error) {
	src, err := c.Resolve(source)
	if err != nil {
		return Result{}, err
	}
	caseExpr, params := countryCase(j.Extra.Countries)

	sql := fmt.Sprintf(`WITH base AS (
  SELECT %s AS country,
         company_name AS company,
         spec_number
  FROM %s
  WHERE spec_number IS NOT NULL
    AND company_name IS NOT NULL
),
top_specs AS (
  SELECT spec_number
  FROM base
  GROUP BY spec_number
  ORDER BY COUNT(*) DESC, spec_number ASC
  LIMIT ?
),
expanded AS (
  %s
)
SELECT country, spec_number, company, COUNT(*) AS cnt
FROM expanded
WHERE spec_number IN (SELECT spec_number FROM top_specs)
GROUP BY country, spec_number, company
ORDER BY country, spec_number, company`,
		caseExpr, src, expandedCTE("country, company, spec_number", j.Extra.IncludeAll))

	params = append(params, int64(j.Extra.TopK))
	return Result{
		SQL:     sql,
		Params:  params,
		Columns: []string{"country", "spec_number", "company", "cnt"},
	}, nil
}
