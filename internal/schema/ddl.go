package schema

import (
	"fmt"
	"strings"
)

// CreateTableSQL returns the DDL for the durable relation.
func CreateTableSQL() string {
	cols := Columns()
	parts := make([]string, 0, len(cols))
	for _, c := range cols {
		def := c.Name + " " + c.Affinity
		if c.NotNull {
			def += " NOT NULL"
		}
		parts = append(parts, "    "+def)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n);", TableName, strings.Join(parts, ",\n"))
}

// indexedColumns is the minimal index set: the four uniqueness-key
// candidates, the most frequently filtered fields, the hot generation
// flags, and the two derived keys.
var indexedColumns = []string{
	"publ_number", "app_number", "dipg_id", "patf_id",
	"country_text", "app_date", "spec_number", "spec_version",
	"gen_4g", "gen_5g",
	ColCompanyKey, ColCountryKey,
}

// CreateIndexSQL returns one CREATE INDEX statement per indexed column.
// Indexes are built only after all batches are inserted, which makes
// ingestion all-or-nothing: a populated but unindexed table is never
// treated as a completed load.
func CreateIndexSQL() []string {
	out := make([]string, 0, len(indexedColumns))
	for _, col := range indexedColumns {
		out = append(out, fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s(%s);", TableName, col, TableName, col))
	}
	return out
}

// InsertSQL returns the parameterized insert statement covering every
// column in catalogue order.
func InsertSQL() string {
	cols := Columns()
	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);",
		TableName, strings.Join(names, ", "), strings.Join(marks, ", "))
}
