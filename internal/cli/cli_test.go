package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "isldpipe", cmd.Use)

	for _, name := range []string{"run", "load", "plan", "templates"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestInvalidFormatRejected(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"templates", "--format", "xml"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "boom", nil)))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
}

const sampleCSV = "IPRD_ID,PUBL_NUMBER,PATT_APPLICATION_NUMBER,COMP_LEGAL_NAME,Country_Of_Registration,PBPA_APP_DATE,TGPP_NUMBER,TGPV_VERSION\n" +
	"1,US111,APP1,ACME Corp,JP JAPAN,2020-03-10,38.331,16.1.0\n" +
	"2,US112,APP1,ACME Corp,JP JAPAN,2020-03-11,38.331,16.1.0\n" +
	"3,US113,APP2,ACME Corp,JP JAPAN,2020-03-12,36.213,15.0.0\n"

func writeFixture(t *testing.T) (dir, cfgPath string) {
	t.Helper()
	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "export.csv"), []byte(sampleCSV), 0o644))

	cfg := `
csv: ` + filepath.Join(dir, "export.csv") + `
db: ` + filepath.Join(dir, "work.sqlite") + `
out_dir: ` + filepath.Join(dir, "out") + `
jobs:
  - id: filings
    template: ts_filing_count
workbook:
  file: report.xlsx
  companies:
    ACME: acme
`
	cfgPath = filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return dir, cfgPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunCommand_EndToEnd(t *testing.T) {
	dir, cfgPath := writeFixture(t)

	out, err := execute(t, "run", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "loaded 3 rows")
	assert.Contains(t, out, "filings:")

	csvPath := filepath.Join(dir, "out", "filings__filing_count.csv")
	raw, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	content := string(raw)
	assert.Contains(t, content, "country,company,bucket,filing_count")
	assert.Contains(t, content, "JP,ACME Corp,2020-03-01,2", "APP1 counted once")

	_, err = os.Stat(filepath.Join(dir, "out", "report.xlsx"))
	assert.NoError(t, err)
}

func TestRunCommand_DryRunWritesNothing(t *testing.T) {
	dir, cfgPath := writeFixture(t)

	_, err := execute(t, "run", cfgPath, "--dry-run")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "out"))
	assert.True(t, os.IsNotExist(err), "dry run must not create output files")
}

func TestRunCommand_UnknownJob(t *testing.T) {
	_, cfgPath := writeFixture(t)
	_, err := execute(t, "run", cfgPath, "--job", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunCommand_BadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("csv: x\ndb: y\njobs: []\n"), 0o644))
	_, err := execute(t, "run", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestLoadCommand_Idempotent(t *testing.T) {
	_, cfgPath := writeFixture(t)

	out, err := execute(t, "load", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "loaded 3 rows")

	out, err = execute(t, "load", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "already populated")
}

func TestPlanCommand_PrintsWithoutExecuting(t *testing.T) {
	dir, cfgPath := writeFixture(t)

	out, err := execute(t, "plan", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "job: filings")
	assert.Contains(t, out, "sel_filing_count")
	assert.Contains(t, out, "CREATE TEMP TABLE")

	_, err = os.Stat(filepath.Join(dir, "work.sqlite"))
	assert.True(t, os.IsNotExist(err), "plan must not touch the database")
}

func TestTemplatesCommand_JSON(t *testing.T) {
	out, err := execute(t, "templates", "--format", "json")
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &resp))
	assert.Equal(t, "ok", resp.Status)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Len(t, data["templates"], 5)
}
