package ingest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isldpipe/isldpipe/internal/store"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeExport(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDetectDialect(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		delim   rune
		bom     bool
	}{
		{"comma", "A,B,C\n1,2,3\n", ',', false},
		{"semicolon", "A;B;C\n1;2;3\n", ';', false},
		{"tab", "A\tB\tC\n1\t2\t3\n", '\t', false},
		{"bom_comma", "\xef\xbb\xbfA,B,C\n", ',', true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeExport(t, "x.csv", tt.header)
			d, err := DetectDialect(path)
			require.NoError(t, err)
			assert.Equal(t, tt.delim, d.Delimiter)
			assert.Equal(t, tt.bom, d.HasBOM)
		})
	}
}

func TestResolveHeaders(t *testing.T) {
	mapping := ResolveHeaders([]string{
		"IPRD_ID", "publ_number", "Application Number",
		"Company Legal Name", "country of registration",
		"Unrelated Column", "5G",
	})
	assert.Equal(t, 0, mapping["iprd_id"])
	assert.Equal(t, 1, mapping["publ_number"])
	assert.Equal(t, 2, mapping["app_number"])
	assert.Equal(t, 3, mapping["company_name"])
	assert.Equal(t, 4, mapping["country_text"])
	assert.Equal(t, 6, mapping["gen_5g"])
	_, found := mapping["app_date"]
	assert.False(t, found, "unmapped schema field must stay absent")
}

const sampleExport = "IPRD_ID,PUBL_NUMBER,PATT_APPLICATION_NUMBER,COMP_LEGAL_NAME,Country_Of_Registration,IPRD_SIGNATURE_DATE,PBPA_APP_DATE,TGPP_NUMBER,TGPV_VERSION,5G\n" +
	"1,US111,APP1,\"ACME, Inc.\",JP JAPAN,2020-01-15 10:00:00,2018-03-01,38.331,16.1.0,1\n" +
	"2,US111,PENDING,\"ACME, Inc.\",JP JAPAN,2020-02-01,2018-04-01,38.331,16.1.0,0\n" +
	"3,EP222|EP333,APP2,Other Co,us united states,not-a-date,2019-05-05,36.213,15.0.0,yes\n"

func TestLoadIfNeeded(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(filepath.Join(t.TempDir(), "work.sqlite"))
	require.NoError(t, err)
	defer s.Close()

	path := writeExport(t, "export.csv", sampleExport)
	loaded, stats, err := LoadIfNeeded(ctx, s, path, discard())
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.EqualValues(t, 3, stats.Rows)
	assert.EqualValues(t, 1, stats.InvalidDate) // "not-a-date"

	n, err := s.RowCount(ctx, "isld_pure")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	// Multi-value publication keeps the first token; sentinel application
	// numbers are stored as absence.
	var publ string
	var app any
	row := s.QueryRow(ctx, "SELECT publ_number, app_number FROM isld_pure WHERE src_rownum = 3")
	require.NoError(t, row.Scan(&publ, &app))
	assert.Equal(t, "EP222", publ)

	row = s.QueryRow(ctx, "SELECT app_number FROM isld_pure WHERE src_rownum = 2")
	require.NoError(t, row.Scan(&app))
	assert.Nil(t, app)

	// Derived keys.
	var companyKey, countryKey string
	row = s.QueryRow(ctx, "SELECT company_key, country_key FROM isld_pure WHERE src_rownum = 1")
	require.NoError(t, row.Scan(&companyKey, &countryKey))
	assert.Equal(t, "ACME INC", companyKey)
	assert.Equal(t, "JP", countryKey)

	// Timestamp prefix keeps only the calendar date.
	var sig string
	row = s.QueryRow(ctx, "SELECT sig_date FROM isld_pure WHERE src_rownum = 1")
	require.NoError(t, row.Scan(&sig))
	assert.Equal(t, "2020-01-15", sig)
}

func TestLoadIfNeeded_Idempotent(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(filepath.Join(t.TempDir(), "work.sqlite"))
	require.NoError(t, err)
	defer s.Close()

	path := writeExport(t, "export.csv", sampleExport)
	loaded, _, err := LoadIfNeeded(ctx, s, path, discard())
	require.NoError(t, err)
	require.True(t, loaded)

	before, err := s.RowCount(ctx, "isld_pure")
	require.NoError(t, err)

	loaded, _, err = LoadIfNeeded(ctx, s, path, discard())
	require.NoError(t, err)
	assert.False(t, loaded, "second load must be skipped")

	after, err := s.RowCount(ctx, "isld_pure")
	require.NoError(t, err)
	assert.Equal(t, before, after, "row count unchanged on repeat load")
}

func TestLoadIfNeeded_SourceRownumTotalOrder(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(filepath.Join(t.TempDir(), "work.sqlite"))
	require.NoError(t, err)
	defer s.Close()

	path := writeExport(t, "export.csv", sampleExport)
	_, _, err = LoadIfNeeded(ctx, s, path, discard())
	require.NoError(t, err)

	rows, err := s.Query(ctx, "SELECT src_rownum FROM isld_pure ORDER BY src_rownum")
	require.NoError(t, err)
	defer rows.Close()
	want := int64(1)
	for rows.Next() {
		var got int64
		require.NoError(t, rows.Scan(&got))
		assert.Equal(t, want, got)
		want++
	}
	require.NoError(t, rows.Err())
}
