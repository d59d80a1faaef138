package sql

import (
	"io"
	"strings"
)

// Row is a single result row. Column values are stored positionally;
// callers index them with the position a Column or GetField resolved
// against the owning Schema.
type Row []interface{}

// NewRow builds a Row from its values.
func NewRow(values ...interface{}) Row {
	r := make(Row, len(values))
	copy(r, values)
	return r
}

// Copy returns a value-independent copy of the row. The executor does
// not call it: rows it keeps (e.g. the last row WITH TIES compares
// against) are held in materialized slices.
func (r Row) Copy() Row {
	c := make(Row, len(r))
	copy(c, r)
	return c
}

// Column describes one column of a Schema.
type Column struct {
	Name     string
	Source   string
	Type     Type
	Nullable bool
	// PrimaryKey marks a column participating in the table's primary key;
	// used by the planner's row-id scan special case (_ROWID_).
	PrimaryKey bool
}

// Schema is an ordered list of columns.
type Schema []*Column

// IndexOf returns the position of the named column, optionally scoped to
// a source (table alias). Returns -1 if not found.
func (s Schema) IndexOf(name, source string) int {
	for i, c := range s {
		if !strings.EqualFold(c.Name, name) {
			continue
		}
		if source != "" && !strings.EqualFold(c.Source, source) {
			continue
		}
		return i
	}
	return -1
}

// RowIter is the pull-based row source every execution mode produces.
// Next returns io.EOF when exhausted. It mirrors the teacher's lazy
// iterator contract (one row per call, no internal goroutines).
type RowIter interface {
	Next(ctx *Context) (Row, error)
	Close(ctx *Context) error
}

// RowsToSlice drains an iterator into a slice; used by tests and by the
// "random access" (materialized) result path.
func RowsToSlice(ctx *Context, iter RowIter) ([]Row, error) {
	var rows []Row
	for {
		row, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, iter.Close(ctx)
}

type sliceIter struct {
	rows []Row
	pos  int
}

// NewSliceIter returns a RowIter over an already materialized slice.
func NewSliceIter(rows []Row) RowIter {
	return &sliceIter{rows: rows}
}

func (i *sliceIter) Next(ctx *Context) (Row, error) {
	if i.pos >= len(i.rows) {
		return nil, io.EOF
	}
	r := i.rows[i.pos]
	i.pos++
	return r, nil
}

func (i *sliceIter) Close(ctx *Context) error { return nil }
