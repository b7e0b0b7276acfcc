package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTableSQL(t *testing.T) {
	ddl := CreateTableSQL()
	assert.Contains(t, ddl, "CREATE TABLE IF NOT EXISTS isld_pure")
	assert.Contains(t, ddl, "src_rownum INTEGER NOT NULL")
	assert.Contains(t, ddl, "company_key TEXT")
	assert.Contains(t, ddl, "country_key TEXT")
}

func TestInsertSQLPlaceholderCount(t *testing.T) {
	sql := InsertSQL()
	require.Equal(t, len(Columns()), strings.Count(sql, "?"))
}

func TestKeyCandidates(t *testing.T) {
	assert.Equal(t, []string{"dipg_id", "patf_id", "publ_number", "app_number"}, KeyCandidates())
}

func TestIndexSQLCoversDerivedKeys(t *testing.T) {
	joined := strings.Join(CreateIndexSQL(), "\n")
	assert.Contains(t, joined, "ON isld_pure(company_key)")
	assert.Contains(t, joined, "ON isld_pure(country_key)")
	assert.Contains(t, joined, "ON isld_pure(app_date)")
}

func TestColumnNamesUniqueAndLower(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range Columns() {
		assert.False(t, seen[c.Name], "duplicate column %s", c.Name)
		seen[c.Name] = true
		assert.Equal(t, strings.ToLower(c.Name), c.Name)
	}
}
