package expression

import (
	"fmt"

	"github.com/relixdb/queryengine/sql"
)

// Literal is a constant value. init()'s constant-pruning step (spec.md
// §4.1, §4.3) identifies ORDER BY/GROUP BY terms via IsConstant, which
// only a Literal (transitively) satisfies.
type Literal struct {
	value interface{}
	typ   sql.Type
}

// NewLiteral wraps a constant value with its type.
func NewLiteral(value interface{}, typ sql.Type) *Literal {
	return &Literal{value: value, typ: typ}
}

func (l *Literal) Resolved() bool              { return true }
func (l *Literal) Type() sql.Type              { return l.typ }
func (l *Literal) Children() []sql.Expression  { return nil }
func (l *Literal) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	return l.value, nil
}
func (l *Literal) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 0 {
		return nil, fmt.Errorf("expression/literal: Literal has no children")
	}
	return l, nil
}
func (l *Literal) String() string {
	if l.value == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", l.value)
}

// IsConstant reports whether e is (transitively) a compile-time constant.
// Used by Select.prepareExpressions' SortOrder pruning and by the
// index-sort planner's "skip constants" step.
func IsConstant(e sql.Expression) bool {
	if _, ok := e.(*Literal); ok {
		return true
	}
	children := e.Children()
	if len(children) == 0 {
		return false
	}
	for _, c := range children {
		if !IsConstant(c) {
			return false
		}
	}
	return true
}
