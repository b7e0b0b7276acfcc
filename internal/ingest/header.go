package ingest

import (
	"regexp"
	"strings"

	"github.com/isldpipe/isldpipe/internal/schema"
)

var headerWS = regexp.MustCompile(`\s+`)

// normalizeHeader prepares a header cell for comparison: trim, collapse
// whitespace, lowercase.
func normalizeHeader(h string) string {
	return strings.ToLower(headerWS.ReplaceAllString(strings.TrimSpace(h), " "))
}

// ResolveHeaders maps schema column names to source column indexes by exact
// or alias match. Schema fields with no matching source column are simply
// absent from the result (their value stays absent for every row); source
// columns that match nothing are ignored.
func ResolveHeaders(csvHeaders []string) map[string]int {
	norm := make([]string, len(csvHeaders))
	for i, h := range csvHeaders {
		norm[i] = normalizeHeader(h)
	}

	mapping := make(map[string]int)
	for _, col := range schema.Columns() {
		if len(col.Aliases) == 0 {
			continue // derived or meta column
		}
		candidates := append([]string{col.Name}, col.Aliases...)
		for _, cand := range candidates {
			nc := normalizeHeader(cand)
			found := false
			for idx, nh := range norm {
				if nh == nc {
					mapping[col.Name] = idx
					found = true
					break
				}
			}
			if found {
				break
			}
		}
	}
	return mapping
}
