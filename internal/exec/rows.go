package exec

import "database/sql"

// RowIter lazily walks one query's result, presenting each row as a mapping
// from output column name to value. The column order is the registration's,
// not the driver's.
type RowIter struct {
	rows    *sql.Rows
	columns []string
	current map[string]any
	err     error
}

// NewRowIter wraps an executed query in a row iterator. columns must match
// the query's select list in order.
func NewRowIter(rows *sql.Rows, columns []string) *RowIter {
	return &RowIter{rows: rows, columns: columns}
}

// Columns returns the ordered output column names.
func (it *RowIter) Columns() []string {
	return it.columns
}

// Next advances to the next row, reporting false at the end or on error.
func (it *RowIter) Next() bool {
	if it.err != nil || !it.rows.Next() {
		return false
	}
	vals := make([]any, len(it.columns))
	ptrs := make([]any, len(it.columns))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := it.rows.Scan(ptrs...); err != nil {
		it.err = err
		return false
	}
	row := make(map[string]any, len(it.columns))
	for i, col := range it.columns {
		row[col] = vals[i]
	}
	it.current = row
	return true
}

// Row returns the current row. Valid only after a true Next.
func (it *RowIter) Row() map[string]any {
	return it.current
}

// Err reports the first scan or iteration error.
func (it *RowIter) Err() error {
	if it.err != nil {
		return it.err
	}
	return it.rows.Err()
}

// Close releases the underlying rows.
func (it *RowIter) Close() error {
	return it.rows.Close()
}
