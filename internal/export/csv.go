// Package export writes registered query results to flat files and
// assembles them into the report workbook. It consumes rows lazily from the
// executor and never reaches back into the database.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/isldpipe/isldpipe/internal/exec"
	"github.com/isldpipe/isldpipe/internal/job"
)

// Result is one exported query's full materialized output, retained for
// workbook assembly after the per-job flat files are written.
type Result struct {
	JobID    string
	Ref      string
	FileName string
	Columns  []string
	Rows     [][]string
}

// Writer is the executor's sink: one UTF-8 CSV per registered query, plus
// an in-memory copy of every result for the workbook pass.
type Writer struct {
	dir     string
	logger  *slog.Logger
	results []Result
}

// NewWriter creates a writer rooted at dir. The directory is created on
// first export.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, logger: logger}
}

// Export writes one query's rows as a CSV file. The file starts with a
// UTF-8 byte-order mark so spreadsheet tools pick the right encoding;
// absent values become empty cells.
func (w *Writer) Export(_ context.Context, j *job.Spec, fileName string, reg exec.QueryRegistration, rows *exec.RowIter) (int64, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return 0, fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(w.dir, fileName)
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", fileName, err)
	}
	defer f.Close()

	if _, err := f.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return 0, fmt.Errorf("write BOM: %w", err)
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(reg.Columns); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	result := Result{JobID: j.ID, Ref: reg.Ref, FileName: fileName, Columns: reg.Columns}
	var n int64
	for rows.Next() {
		row := rows.Row()
		record := make([]string, len(reg.Columns))
		for i, col := range reg.Columns {
			record[i] = formatValue(row[col])
		}
		if err := cw.Write(record); err != nil {
			return n, fmt.Errorf("write row: %w", err)
		}
		result.Rows = append(result.Rows, record)
		n++
	}
	if err := rows.Err(); err != nil {
		return n, err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return n, fmt.Errorf("flush %s: %w", fileName, err)
	}

	w.results = append(w.results, result)
	w.logger.Debug("csv written", "file", path, "rows", n)
	return n, nil
}

// Results returns every exported result in export order.
func (w *Writer) Results() []Result {
	return w.results
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprintf("%v", x)
	}
}
