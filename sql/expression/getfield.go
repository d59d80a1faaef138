// Package expression provides the minimal scalar-expression vocabulary
// the planner and evaluator need: column references, literals, aliases,
// and boolean/comparison operators. Call shapes are grounded on the
// teacher's sql/plan/*_test.go fixtures (expression.NewGetField(i, typ,
// name, nullable), expression.NewAlias(name, expr), expression.NewStar()).
package expression

import (
	"fmt"

	"github.com/relixdb/queryengine/sql"
)

// GetField reads one column of the input row by position, the teacher's
// fundamental "column reference" expression.
type GetField struct {
	index     int
	fieldType sql.Type
	name      string
	table     string
	nullable  bool
}

// NewGetField builds a column reference at the given row position.
func NewGetField(index int, fieldType sql.Type, name string, nullable bool) *GetField {
	return &GetField{index: index, fieldType: fieldType, name: name, nullable: nullable}
}

// NewGetFieldWithTable is NewGetField plus the originating table alias,
// needed by wildcard expansion and qualified-column resolution.
func NewGetFieldWithTable(index int, fieldType sql.Type, table, name string, nullable bool) *GetField {
	return &GetField{index: index, fieldType: fieldType, name: name, table: table, nullable: nullable}
}

func (f *GetField) Resolved() bool   { return true }
func (f *GetField) Type() sql.Type   { return f.fieldType }
func (f *GetField) Index() int       { return f.index }
func (f *GetField) ColumnName() string { return f.name }
func (f *GetField) TableSource() string { return f.table }
func (f *GetField) Children() []sql.Expression { return nil }

func (f *GetField) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	if f.index < 0 || f.index >= len(row) {
		return nil, fmt.Errorf("expression/getfield: index %d out of range for row of length %d", f.index, len(row))
	}
	return row[f.index], nil
}

func (f *GetField) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 0 {
		return nil, fmt.Errorf("expression/getfield: GetField has no children")
	}
	return f, nil
}

func (f *GetField) String() string {
	if f.table != "" {
		return fmt.Sprintf("%s.%s", f.table, f.name)
	}
	return f.name
}

// WithIndex returns a copy of f pointing at a new row position; used when
// Select.init() extends the expression list and has to renumber.
func (f *GetField) WithIndex(i int) *GetField {
	cp := *f
	cp.index = i
	return &cp
}
