package models

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Table {
	t := NewTable("id", "name")
	t.Append(Record{"id": "1", "name": "a"})
	t.Append(Record{"id": "2", "name": "b"})
	return t
}

func TestRenameColumns(t *testing.T) {
	tbl := sample()
	require.NoError(t, tbl.RenameColumns(map[string]string{"name": "label", "missing": "x"}))

	assert.Equal(t, []string{"id", "label"}, tbl.Columns)
	assert.Equal(t, "a", tbl.Rows[0]["label"])
	_, stale := tbl.Rows[0]["name"]
	assert.False(t, stale)
}

func TestRenameColumnsCollision(t *testing.T) {
	tbl := sample()
	err := tbl.RenameColumns(map[string]string{"name": "id"})
	assert.Error(t, err)
}

func TestDropColumns(t *testing.T) {
	tbl := sample()
	tbl.DropColumns("name", "absent")

	assert.Equal(t, []string{"id"}, tbl.Columns)
	assert.Equal(t, Record{"id": "2"}, tbl.Rows[1])
}

func TestCloneIsIndependent(t *testing.T) {
	tbl := sample()
	c := tbl.Clone()
	c.Rows[0]["name"] = "changed"
	c.Columns[0] = "other"

	assert.Equal(t, "a", tbl.Rows[0]["name"])
	assert.Equal(t, "id", tbl.Columns[0])
}

func TestConcatMergesHeaders(t *testing.T) {
	a := NewTable("x")
	a.Append(Record{"x": "1"})
	b := NewTable("y", "x")
	b.Append(Record{"x": "2", "y": "3"})

	a.Concat(b)
	assert.Equal(t, []string{"x", "y"}, a.Columns)
	if diff := cmp.Diff([]interface{}{"1", "2"}, a.Column("x")); diff != "" {
		t.Errorf("column x mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []interface{}{nil, "3"}, a.Column("y"))
}

func TestAppendExtendsHeader(t *testing.T) {
	tbl := NewTable()
	tbl.Append(Record{"b": 1, "a": 2}, "b", "a")
	tbl.Append(Record{"c": 3}, "c", "a")

	assert.Equal(t, []string{"b", "a", "c"}, tbl.Columns)
	assert.Equal(t, 2, tbl.Len())
}
