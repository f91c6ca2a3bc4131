// Package models holds the tabular record-set types shared by the
// extraction, transform and load stages.
package models

import "fmt"

// Record is one row, keyed by column name. A nil value is a missing cell.
type Record map[string]interface{}

// Table is an ordered set of columns plus its rows.
type Table struct {
	Columns []string
	Rows    []Record
}

// NewTable returns an empty table with the given header.
func NewTable(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

func (t *Table) Len() int { return len(t.Rows) }

// HasColumn reports whether name is part of the header.
func (t *Table) HasColumn(name string) bool {
	return t.index(name) >= 0
}

func (t *Table) index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// AddColumn appends name to the header if it is not already present.
// Existing rows are left without a value for it.
func (t *Table) AddColumn(name string) {
	if !t.HasColumn(name) {
		t.Columns = append(t.Columns, name)
	}
}

// Append adds a row, extending the header with any unseen keys in the
// order they are given by cols.
func (t *Table) Append(r Record, cols ...string) {
	for _, c := range cols {
		t.AddColumn(c)
	}
	t.Rows = append(t.Rows, r)
}

// RenameColumns renames header entries and row keys. Names absent from
// the table are ignored. Returns an error when a rename would collide
// with a column that already exists.
func (t *Table) RenameColumns(names map[string]string) error {
	for from, to := range names {
		i := t.index(from)
		if i < 0 || from == to {
			continue
		}
		if t.HasColumn(to) {
			return fmt.Errorf("rename %q -> %q: column already exists", from, to)
		}
		t.Columns[i] = to
		for _, r := range t.Rows {
			if v, ok := r[from]; ok {
				r[to] = v
				delete(r, from)
			}
		}
	}
	return nil
}

// DropColumns removes the named columns. Unknown names are ignored.
func (t *Table) DropColumns(names ...string) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	kept := t.Columns[:0]
	for _, c := range t.Columns {
		if !drop[c] {
			kept = append(kept, c)
		}
	}
	t.Columns = kept
	for _, r := range t.Rows {
		for n := range drop {
			delete(r, n)
		}
	}
}

// Column returns the values of one column, in row order.
func (t *Table) Column(name string) []interface{} {
	out := make([]interface{}, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[name]
	}
	return out
}

// Clone returns a deep copy of the header and rows. Cell values are
// copied by assignment.
func (t *Table) Clone() *Table {
	c := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Record, len(t.Rows)),
	}
	for i, r := range t.Rows {
		nr := make(Record, len(r))
		for k, v := range r {
			nr[k] = v
		}
		c.Rows[i] = nr
	}
	return c
}

// Concat appends the rows of other, merging headers in first-seen order.
func (t *Table) Concat(other *Table) {
	for _, c := range other.Columns {
		t.AddColumn(c)
	}
	t.Rows = append(t.Rows, other.Rows...)
}
