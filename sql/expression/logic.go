package expression

import (
	"fmt"

	"github.com/relixdb/queryengine/sql"
)

type binaryLogic struct {
	left, right sql.Expression
	and         bool
}

// NewAnd builds a conjunction. WHERE/HAVING flattening (join-order
// picker, §4.2; addGlobalCondition, §4.6) both walk the conjunction via
// SplitConjunction below.
func NewAnd(left, right sql.Expression) sql.Expression {
	return &binaryLogic{left, right, true}
}

// NewOr builds a disjunction.
func NewOr(left, right sql.Expression) sql.Expression {
	return &binaryLogic{left, right, false}
}

func (b *binaryLogic) Resolved() bool { return b.left.Resolved() && b.right.Resolved() }
func (b *binaryLogic) Type() sql.Type { return sql.Boolean }
func (b *binaryLogic) Children() []sql.Expression {
	return []sql.Expression{b.left, b.right}
}

func (b *binaryLogic) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	lv, err := b.left.Eval(ctx, row)
	if err != nil {
		return nil, err
	}
	lb, lnull := asBool(lv)
	if b.and && !lnull && !lb {
		return false, nil
	}
	if !b.and && !lnull && lb {
		return true, nil
	}
	rv, err := b.right.Eval(ctx, row)
	if err != nil {
		return nil, err
	}
	rb, rnull := asBool(rv)
	if lnull || rnull {
		// three-valued logic: AND(NULL, true) = NULL, AND(NULL,false) = false
		if b.and {
			if !rnull && !rb {
				return false, nil
			}
			return nil, nil
		}
		if !rnull && rb {
			return true, nil
		}
		return nil, nil
	}
	if b.and {
		return lb && rb, nil
	}
	return lb || rb, nil
}

func asBool(v interface{}) (value bool, isNull bool) {
	if v == nil {
		return false, true
	}
	b, _ := v.(bool)
	return b, false
}

func (b *binaryLogic) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, fmt.Errorf("expression/logic: binary logic takes two children")
	}
	return &binaryLogic{children[0], children[1], b.and}, nil
}

func (b *binaryLogic) String() string {
	op := "AND"
	if !b.and {
		op = "OR"
	}
	return fmt.Sprintf("(%s %s %s)", b.left, op, b.right)
}

// SplitConjunction flattens a WHERE tree into its top-level AND terms,
// used by the rule-based join-order picker to find column=column edges
// (spec.md §4.2) and by index-condition pushdown (§4.1).
func SplitConjunction(e sql.Expression) []sql.Expression {
	and, ok := e.(*binaryLogic)
	if !ok || !and.and {
		if e == nil {
			return nil
		}
		return []sql.Expression{e}
	}
	return append(SplitConjunction(and.left), SplitConjunction(and.right)...)
}

// JoinConjunction rebuilds a single expression from conjunction terms,
// the inverse of SplitConjunction; used by addGlobalCondition (§4.6).
func JoinConjunction(terms []sql.Expression) sql.Expression {
	if len(terms) == 0 {
		return nil
	}
	result := terms[0]
	for _, t := range terms[1:] {
		result = NewAnd(result, t)
	}
	return result
}
