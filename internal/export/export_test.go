package export

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/isldpipe/isldpipe/internal/exec"
	"github.com/isldpipe/isldpipe/internal/job"
	"github.com/isldpipe/isldpipe/internal/store"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// queryIter runs a literal query against a scratch database and wraps the
// rows the way the executor does.
func queryIter(t *testing.T, query string, columns []string) *exec.RowIter {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "x.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	rows, err := s.Query(context.Background(), query)
	require.NoError(t, err)
	return exec.NewRowIter(rows, columns)
}

func TestWriter_Export(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, discard())
	j := &job.Spec{ID: "demo"}

	it := queryIter(t,
		`SELECT 'JP' AS country, 'ACME, Inc.' AS company, 2 AS filing_count
		 UNION ALL
		 SELECT 'US', NULL, 1`,
		[]string{"country", "company", "filing_count"})
	defer it.Close()

	reg := exec.QueryRegistration{Ref: "filing_count", Columns: it.Columns()}
	n, err := w.Export(context.Background(), j, "demo.csv", reg, it)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	raw, err := os.ReadFile(filepath.Join(dir, "demo.csv"))
	require.NoError(t, err)
	content := string(raw)
	assert.True(t, strings.HasPrefix(content, "\xef\xbb\xbf"), "file starts with UTF-8 BOM")
	assert.Contains(t, content, "country,company,filing_count\n")
	assert.Contains(t, content, "JP,\"ACME, Inc.\",2\n")
	assert.Contains(t, content, "US,,1\n", "absent value becomes an empty cell")

	results := w.Results()
	require.Len(t, results, 1)
	assert.Equal(t, "demo", results[0].JobID)
	assert.Equal(t, [][]string{
		{"JP", "ACME, Inc.", "2"},
		{"US", "", "1"},
	}, results[0].Rows)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", formatValue(nil))
	assert.Equal(t, "x", formatValue("x"))
	assert.Equal(t, "x", formatValue([]byte("x")))
	assert.Equal(t, "-7", formatValue(int64(-7)))
	assert.Equal(t, "2.5", formatValue(2.5))
	assert.Equal(t, "1", formatValue(true))
}

func TestWriteWorkbook(t *testing.T) {
	results := []Result{
		{
			JobID:   "filings",
			Ref:     "filing_count",
			Columns: []string{"country", "company", "filing_count"},
			Rows: [][]string{
				{"ALL", "ACME Corp", "3"},
				{"JP", "ACME Corp", "2"},
				{"JP", "Other Co", "1"},
			},
		},
	}
	path := filepath.Join(t.TempDir(), "report.xlsx")
	companies := map[string]string{"ACME": "acme", "Nobody": "zzz"}
	require.NoError(t, WriteWorkbook(path, results, companies, discard()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Contains(t, sheets, "META")
	assert.Contains(t, sheets, "filings")
	assert.Contains(t, sheets, "filings__ACME")
	assert.NotContains(t, sheets, "filings__Nobody", "empty company view gets no sheet")

	got, err := f.GetRows("filings__ACME")
	require.NoError(t, err)
	require.Len(t, got, 3, "header plus the two matching rows")
	assert.Equal(t, []string{"country", "company", "filing_count"}, got[0])
	assert.Equal(t, []string{"ALL", "ACME Corp", "3"}, got[1])

	meta, err := f.GetRows("META")
	require.NoError(t, err)
	require.Len(t, meta, 2)
	assert.Equal(t, []string{"job", "ref", "file", "rows"}, meta[0])
	assert.Equal(t, "3", meta[1][3])
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{}
	long := strings.Repeat("a", 40)
	first := sheetName(long, "", used)
	assert.Len(t, first, 31)
	second := sheetName(long, "", used)
	assert.NotEqual(t, first, second)
	assert.LessOrEqual(t, len(second), 31)
}
