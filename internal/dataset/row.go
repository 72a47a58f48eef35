package dataset

import "sort"

// Row maps a column name to its cell. Key = column name, Value = cell value
type Row map[string]Value

// Get returns the cell for column; a missing key reads as null.
func (r Row) Get(column string) Value {
	return r[column]
}

// RowSet is a parsed dataset: the header in file order plus the data rows.
type RowSet struct {
	Header []string
	Rows   []Row
}

func (rs *RowSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}

// Columns derives the visible columns from the first row: its keys, in the
// header's encounter order. Keys the header does not list come last, sorted.
// No rows means no columns.
func (rs *RowSet) Columns() []string {
	if rs.Len() == 0 {
		return nil
	}
	first := rs.Rows[0]

	cols := make([]string, 0, len(first))
	seen := make(map[string]struct{}, len(first))
	for _, h := range rs.Header {
		if _, ok := first[h]; !ok {
			continue
		}
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		cols = append(cols, h)
	}

	var extra []string
	for k := range first {
		if _, ok := seen[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(cols, extra...)
}
