package mailmerge

import (
	"fmt"
	"strings"
)

// Table is the column-major, in-memory form of the tabular source.
// Field order is the order of first appearance in the header row.
// A Table is immutable once built and safe for concurrent reads.
type Table struct {
	fields  []string
	columns map[string][]string
}

// NewTable builds a table from a header row and data rows. Values are looked
// up by column position relative to the header: a row shorter than the
// header yields empty strings for the missing trailing fields, cells beyond
// the header are ignored.
//
// Header cells are trimmed. Empty header cells are skipped. When a name
// appears twice the first column wins and the later one is ignored.
func NewTable(header []string, rows [][]string) *Table {
	t, _ := buildTable(header, rows)
	return t
}

// buildTable does the work of NewTable and also reports the header cells it
// skipped, so callers can log them.
func buildTable(header []string, rows [][]string) (*Table, []string) {
	t := &Table{columns: make(map[string][]string)}

	var skipped []string
	positions := make([]int, 0, len(header))
	for col, cell := range header {
		name := strings.TrimSpace(cell)
		if name == "" {
			skipped = append(skipped, fmt.Sprintf("column %d: empty header", col+1))
			continue
		}
		if _, dup := t.columns[name]; dup {
			skipped = append(skipped, fmt.Sprintf("column %d: duplicate header %q", col+1, name))
			continue
		}
		t.fields = append(t.fields, name)
		t.columns[name] = make([]string, 0, len(rows))
		positions = append(positions, col)
	}

	for _, row := range rows {
		for i, name := range t.fields {
			value := ""
			if col := positions[i]; col < len(row) {
				value = row[col]
			}
			t.columns[name] = append(t.columns[name], value)
		}
	}

	return t, skipped
}

// NewTableFromColumns builds a table directly from column sequences. The
// sequences may have different lengths.
func NewTableFromColumns(fields []string, columns map[string][]string) *Table {
	t := &Table{columns: make(map[string][]string, len(fields))}
	for _, name := range fields {
		if _, dup := t.columns[name]; dup {
			continue
		}
		values := columns[name]
		copied := make([]string, len(values))
		copy(copied, values)
		t.fields = append(t.fields, name)
		t.columns[name] = copied
	}
	return t
}

// Fields returns the field names in header order.
func (t *Table) Fields() []string {
	out := make([]string, len(t.fields))
	copy(out, t.fields)
	return out
}

// Width returns the number of fields.
func (t *Table) Width() int {
	return len(t.fields)
}

// HasField reports whether the table has a field with the given name.
func (t *Table) HasField(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// Column returns a copy of the values of one field.
func (t *Table) Column(name string) []string {
	values := t.columns[name]
	out := make([]string, len(values))
	copy(out, values)
	return out
}

// Len returns the length of one field's value sequence.
func (t *Table) Len(name string) int {
	return len(t.columns[name])
}

// Value returns the value of field name in data row i. ok is false when the
// field does not exist or i is out of range for that field.
func (t *Table) Value(name string, i int) (value string, ok bool) {
	values, exists := t.columns[name]
	if !exists || i < 0 || i >= len(values) {
		return "", false
	}
	return values[i], true
}

// RowCount returns the number of rows a merge processes: the maximum, over
// all fields, of the number of non-empty values in that field. A single
// densely filled field therefore drives the count even if other fields are
// shorter or sparser.
func (t *Table) RowCount() int {
	max := 0
	for _, name := range t.fields {
		n := 0
		for _, v := range t.columns[name] {
			if v != "" {
				n++
			}
		}
		if n > max {
			max = n
		}
	}
	return max
}
