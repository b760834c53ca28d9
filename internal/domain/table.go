package domain

// Row is a single record of a loosely-schemaed extract, keyed by column name.
// A missing key and a nil value both mean "null".
type Row map[string]any

// Table is an ordered, column-named set of rows. It carries raw extracts,
// proof subsets and classified outputs between the engine stages.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// NewTable creates an empty table with the given column order.
func NewTable(columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols, Rows: make([]Row, 0)}
}

// Len returns the number of rows; a nil table has zero rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether the exact column name is part of the table header.
func (t *Table) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn appends a column to the header if it is not there yet.
func (t *Table) AddColumn(name string) {
	if !t.HasColumn(name) {
		t.Columns = append(t.Columns, name)
	}
}

// Append adds a row. The row map is stored as given.
func (t *Table) Append(r Row) {
	t.Rows = append(t.Rows, r)
}

// Clone returns a copy whose header and row maps are not shared with t.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := NewTable(t.Columns...)
	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		cp := make(Row, len(r))
		for k, v := range r {
			cp[k] = v
		}
		out.Rows[i] = cp
	}
	return out
}

// Value returns the cell at (row, column) or nil.
func (t *Table) Value(row int, column string) any {
	if t == nil || row < 0 || row >= len(t.Rows) {
		return nil
	}
	return t.Rows[row][column]
}
