package ops

import (
	"fmt"
	"sort"
	"strings"

	"github.com/isldpipe/isldpipe/internal/job"
)

// buildScope materializes the job's population filter as a scratch relation.
// Every predicate value is bound as a positional parameter; predicate order
// is fixed so the same scope always compiles to the same SQL text.
//
// When the country mode is unrestricted, the country predicates are dropped
// entirely, even if countries or prefixes were configured.
func buildScope(c *Context, j *job.Spec, source, saveAs string) (Result, error) {
	src, err := c.Resolve(source)
	if err != nil {
		return Result{}, err
	}
	target := c.Allocate(saveAs)

	var conds []string
	var params []any
	sc := j.Scope

	if len(sc.Companies) > 0 {
		var parts []string
		for _, comp := range sc.Companies {
			parts = append(parts, "UPPER(company_name) LIKE UPPER(?)")
			params = append(params, "%"+comp+"%")
		}
		conds = append(conds, orGroup(parts))
	}

	if sc.CountryMode != job.CountryUnrestricted {
		var parts []string
		if len(sc.Countries) > 0 {
			parts = append(parts, "country_text IN ("+placeholders(len(sc.Countries))+")")
			for _, ct := range sc.Countries {
				params = append(params, ct)
			}
		}
		for _, pfx := range sc.CountryPrefixes {
			parts = append(parts, "country_text LIKE ?")
			params = append(params, pfx+" %")
		}
		if len(parts) > 0 {
			conds = append(conds, orGroup(parts))
		}
	}

	if len(sc.VersionPrefixes) > 0 {
		var parts []string
		for _, vp := range sc.VersionPrefixes {
			parts = append(parts, "spec_version LIKE ?")
			params = append(params, vp+".%")
		}
		conds = append(conds, orGroup(parts))
	}

	if len(sc.Specs) > 0 {
		conds = append(conds, "spec_number IN ("+placeholders(len(sc.Specs))+")")
		for _, sp := range sc.Specs {
			params = append(params, sp)
		}
	}

	if sc.DateFrom != "" {
		conds = append(conds, "app_date >= ?")
		params = append(params, sc.DateFrom)
	}
	if sc.DateTo != "" {
		conds = append(conds, "app_date <= ?")
		params = append(params, sc.DateTo)
	}

	// Flag equality never matches absence: a stored NULL fails both = 1
	// and = 0.
	for _, name := range sortedKeys(sc.GenFlags) {
		conds = append(conds, job.GenFlagColumns[name]+" = ?")
		params = append(params, boolBit(sc.GenFlags[name]))
	}
	for _, name := range sortedKeys(sc.EssFlags) {
		conds = append(conds, job.EssFlagColumns[name]+" = ?")
		params = append(params, boolBit(sc.EssFlags[name]))
	}

	where := "1=1"
	if len(conds) > 0 {
		where = strings.Join(conds, " AND ")
	}
	sql := fmt.Sprintf("CREATE TEMP TABLE %s AS SELECT * FROM %s WHERE %s", target, src, where)
	return Result{Target: target, SQL: sql, Params: params}, nil
}

func orGroup(parts []string) string {
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func boolBit(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
