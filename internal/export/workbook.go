package export

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// maxSheetName is the spreadsheet format's sheet-name limit.
const maxSheetName = 31

// WriteWorkbook assembles every exported result into one workbook: a META
// sheet listing the results, one sheet per result with all rows, and one
// sheet per configured company holding only that company's rows.
//
// Company membership is a case-insensitive substring match of the company
// column against the configured pattern. This table is configured
// independently of any job's scope filter; a job that already filtered by
// company is never filtered a second time here.
func WriteWorkbook(path string, results []Result, companies map[string]string, logger *slog.Logger) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeMeta(f, results); err != nil {
		return err
	}

	labels := make([]string, 0, len(companies))
	for label := range companies {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	used := map[string]bool{"META": true}
	for _, r := range results {
		name := sheetName(r.JobID, "", used)
		if err := writeSheet(f, name, r.Columns, r.Rows); err != nil {
			return err
		}

		companyIdx := columnIndex(r.Columns, "company")
		if companyIdx < 0 {
			continue
		}
		for _, label := range labels {
			pattern := strings.ToUpper(companies[label])
			var rows [][]string
			for _, row := range r.Rows {
				if strings.Contains(strings.ToUpper(row[companyIdx]), pattern) {
					rows = append(rows, row)
				}
			}
			if len(rows) == 0 {
				continue
			}
			name := sheetName(r.JobID, label, used)
			if err := writeSheet(f, name, r.Columns, rows); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	logger.Info("workbook written", "file", path, "results", len(results))
	return nil
}

func writeMeta(f *excelize.File, results []Result) error {
	const sheet = "META"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename default sheet: %w", err)
	}
	if err := setRow(f, sheet, 1, []string{"job", "ref", "file", "rows"}); err != nil {
		return err
	}
	for i, r := range results {
		row := []string{r.JobID, r.Ref, r.FileName, fmt.Sprintf("%d", len(r.Rows))}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeSheet(f *excelize.File, name string, columns []string, rows [][]string) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	if err := setRow(f, name, 1, columns); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(f, name, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

// columnIndex returns the position of name in columns, or -1 if absent.
func columnIndex(columns []string, name string) int {
	for i, c := range columns {
		if c == name {
			return i
		}
	}
	return -1
}

// sheetName builds a unique sheet name within the format's length limit.
func sheetName(jobID, label string, used map[string]bool) string {
	name := jobID
	if label != "" {
		name = jobID + "__" + label
	}
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	orig := name
	for i := 2; used[name]; i++ {
		suffix := fmt.Sprintf("~%d", i)
		base := orig
		if len(base)+len(suffix) > maxSheetName {
			base = base[:maxSheetName-len(suffix)]
		}
		name = base + suffix
	}
	used[name] = true
	return name
}
