package expression

import (
	"fmt"

	"github.com/relixdb/queryengine/sql"
)

// CmpType enumerates the comparison operators addGlobalCondition (§4.6)
// can push down.
type CmpType int

const (
	CmpEq CmpType = iota
	CmpLt
	CmpLte
	CmpGt
	CmpGte
	CmpNeq
)

// Equals is left = right, and also the "always-true" no-op form
// (`1 = 1`, two equal literals) addGlobalCondition falls back to when a
// pushed column isn't comparable as a whole-row predicate.
type Equals struct {
	left, right sql.Expression
	cmp         CmpType
}

// NewComparison builds a binary comparison of the given kind.
func NewComparison(left, right sql.Expression, cmp CmpType) *Equals {
	return &Equals{left, right, cmp}
}

// NewEquals is the common case, left = right.
func NewEquals(left, right sql.Expression) *Equals {
	return NewComparison(left, right, CmpEq)
}

func (e *Equals) Resolved() bool              { return e.left.Resolved() && e.right.Resolved() }
func (e *Equals) Type() sql.Type              { return sql.Boolean }
func (e *Equals) Left() sql.Expression        { return e.left }
func (e *Equals) Right() sql.Expression       { return e.right }
func (e *Equals) Cmp() CmpType                { return e.cmp }
func (e *Equals) Children() []sql.Expression  { return []sql.Expression{e.left, e.right} }

func (e *Equals) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	lv, err := e.left.Eval(ctx, row)
	if err != nil {
		return nil, err
	}
	rv, err := e.right.Eval(ctx, row)
	if err != nil {
		return nil, err
	}
	if lv == nil || rv == nil {
		return nil, nil
	}
	c, err := ctx.Compare(lv, rv, e.left.Type(), sql.NullsFirst)
	if err != nil {
		return nil, err
	}
	switch e.cmp {
	case CmpEq:
		return c == 0, nil
	case CmpNeq:
		return c != 0, nil
	case CmpLt:
		return c < 0, nil
	case CmpLte:
		return c <= 0, nil
	case CmpGt:
		return c > 0, nil
	case CmpGte:
		return c >= 0, nil
	}
	return nil, fmt.Errorf("expression/comparison: unknown comparison kind %d", e.cmp)
}

func (e *Equals) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, fmt.Errorf("expression/comparison: comparison takes two children")
	}
	return &Equals{children[0], children[1], e.cmp}, nil
}

func (e *Equals) String() string {
	ops := map[CmpType]string{CmpEq: "=", CmpLt: "<", CmpLte: "<=", CmpGt: ">", CmpGte: ">=", CmpNeq: "<>"}
	return fmt.Sprintf("(%s %s %s)", e.left, ops[e.cmp], e.right)
}

// ColumnEquality reports whether e is an equality between two
// ColumnExpressions from distinct table sources, and returns them. The
// rule-based join-order picker uses this to build its join graph edges
// (spec.md §4.2).
func ColumnEquality(e sql.Expression) (left, right sql.ColumnExpression, ok bool) {
	eq, isEq := e.(*Equals)
	if !isEq || eq.cmp != CmpEq {
		return nil, nil, false
	}
	l, lok := eq.left.(sql.ColumnExpression)
	r, rok := eq.right.(sql.ColumnExpression)
	if !lok || !rok {
		return nil, nil, false
	}
	if l.TableSource() == r.TableSource() {
		return nil, nil, false
	}
	return l, r, true
}
