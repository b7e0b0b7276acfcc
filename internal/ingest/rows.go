package ingest

import (
	"github.com/isldpipe/isldpipe/internal/normalize"
	"github.com/isldpipe/isldpipe/internal/schema"
)

// Stats counts normalization outcomes across the whole load. Failures are
// never errors; they are tallied here and logged at the end.
type Stats struct {
	Rows        int64
	InvalidDate int64
	InvalidInt  int64
	InvalidBool int64
	Nulls       int64
}

// rowNormalizer converts one raw record into the insert-argument slice for
// the durable relation. The header mapping is resolved once; per-row work
// is index lookups only.
type rowNormalizer struct {
	cols    []schema.Column
	indexes []int // source column index per schema column, -1 if unmapped
	stats   Stats
}

func newRowNormalizer(mapping map[string]int) *rowNormalizer {
	cols := schema.Columns()
	indexes := make([]int, len(cols))
	for i, c := range cols {
		idx, ok := mapping[c.Name]
		if !ok {
			idx = -1
		}
		indexes[i] = idx
	}
	return &rowNormalizer{cols: cols, indexes: indexes}
}

// normalizeRow returns the values slice in catalogue order. rownum is the
// strictly increasing read-order row number (1-based). The two derived keys
// are computed from the already-normalized company and country values, so
// they stay consistent with what is stored.
func (rn *rowNormalizer) normalizeRow(record []string, rownum int64) []any {
	rn.stats.Rows++
	values := make([]any, len(rn.cols))

	var companyName, countryText string

	for i, col := range rn.cols {
		switch col.Name {
		case schema.ColSrcRownum:
			values[i] = rownum
			continue
		case schema.ColCompanyKey:
			if key, ok := normalize.CompanyKey(companyName); ok {
				values[i] = key
			}
			continue
		case schema.ColCountryKey:
			if key, ok := normalize.CountryKey(countryText); ok {
				values[i] = key
			}
			continue
		}

		idx := rn.indexes[i]
		if idx < 0 || idx >= len(record) {
			values[i] = nil
			rn.stats.Nulls++
			continue
		}
		values[i] = rn.normalizeField(col, record[idx])

		if values[i] == nil {
			rn.stats.Nulls++
		}
		switch col.Name {
		case "company_name":
			if s, ok := values[i].(string); ok {
				companyName = s
			}
		case "country_text":
			if s, ok := values[i].(string); ok {
				countryText = s
			}
		}
	}
	return values
}

func (rn *rowNormalizer) normalizeField(col schema.Column, raw string) any {
	switch col.Kind {
	case schema.KindText:
		if v, ok := normalize.Text(raw); ok {
			return v
		}
	case schema.KindInt:
		if v, ok := normalize.Int(raw); ok {
			return v
		}
		if raw != "" {
			rn.stats.InvalidInt++
		}
	case schema.KindBool:
		if v, ok := normalize.Bool(raw); ok {
			if v {
				return int64(1)
			}
			return int64(0)
		}
		if raw != "" {
			rn.stats.InvalidBool++
		}
	case schema.KindDate:
		if v, ok := normalize.Date(raw); ok {
			return v
		}
		if raw != "" {
			rn.stats.InvalidDate++
		}
	case schema.KindPatentNo:
		if v, ok := normalize.PatentNumber(raw); ok {
			return v
		}
	}
	return nil
}
