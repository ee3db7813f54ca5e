// Package table turns delimited trade exports into header-keyed rows and
// canonicalizes their column names.
package table

// Row maps a column name to its raw cell text.
type Row map[string]string

// Get returns the cell for col, or "" when the row has no such column.
func (r Row) Get(col string) string {
	return r[col]
}

// Table is a raw, untyped trade table as read from an export.
type Table struct {
	Columns []string
	Rows    []Row

	// Skipped counts malformed lines dropped while ingesting.
	Skipped int
}

// Has reports whether the table carries col.
func (t Table) Has(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Missing returns the entries of cols that the table does not carry, in
// the order given.
func (t Table) Missing(cols ...string) []string {
	var out []string
	for _, c := range cols {
		if !t.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Len is the number of data rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Filter returns a copy holding only rows where col equals value.
func (t Table) Filter(col, value string) Table {
	out := Table{Columns: append([]string(nil), t.Columns...)}
	for _, r := range t.Rows {
		if r.Get(col) == value {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Distinct lists the distinct non-empty values of col in first-seen order.
func (t Table) Distinct(col string) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range t.Rows {
		v := r.Get(col)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
