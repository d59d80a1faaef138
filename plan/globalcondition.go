package plan

import (
	"fmt"

	"github.com/relixdb/queryengine/sql"
	"github.com/relixdb/queryengine/sql/expression"
)

// localAndGlobal wraps a pushed-down outer-query condition so the
// planner can tell it apart from a condition the user actually wrote,
// and strip it back out of a cached query template without touching
// user predicates (DESIGN.md, "ConditionAndOr vs ConditionLocalAndGlobal"
// open question — this core keeps the condition tagged rather than
// folding it into a plain AND/OR node).
type localAndGlobal struct {
	local, global sql.Expression
}

// newLocalAndGlobal tags global (the pushed-down condition) for later
// identification while local is what participates in evaluation;
// for this core the two are the same expression — the wrapper exists so
// Strip can find and remove exactly the conditions this query pushed in.
func newLocalAndGlobal(cond sql.Expression) *localAndGlobal {
	return &localAndGlobal{local: cond, global: cond}
}

func (l *localAndGlobal) Resolved() bool             { return l.local.Resolved() }
func (l *localAndGlobal) Type() sql.Type             { return l.local.Type() }
func (l *localAndGlobal) Children() []sql.Expression { return []sql.Expression{l.local} }
func (l *localAndGlobal) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	return l.local.Eval(ctx, row)
}
func (l *localAndGlobal) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("plan/globalcondition: takes one child")
	}
	return &localAndGlobal{local: children[0], global: l.global}, nil
}
func (l *localAndGlobal) String() string { return l.local.String() }

// isPushedDown reports whether e is (or wraps) a previously pushed-down
// global condition.
func isPushedDown(e sql.Expression) bool {
	_, ok := e.(*localAndGlobal)
	return ok
}

// stripPushedDown removes every localAndGlobal-wrapped term from a
// conjunction, leaving only conditions the user actually wrote.
func stripPushedDown(cond sql.Expression) sql.Expression {
	if cond == nil {
		return nil
	}
	terms := expression.SplitConjunction(cond)
	kept := terms[:0]
	for _, t := range terms {
		if !isPushedDown(t) {
			kept = append(kept, t)
		}
	}
	return expression.JoinConjunction(kept)
}

// PushdownTarget is where addGlobalCondition (spec.md §4.6) routes a
// pushed comparison, depending on the query shape it's being pushed into.
type PushdownTarget int

const (
	PushdownWhere PushdownTarget = iota
	PushdownHaving
	PushdownQualify
)

// addGlobalCondition builds the pushed comparison `column cmp param`,
// wrapped as a local/global condition. When column is nil, meaning the
// referenced expression isn't comparable as a whole-row predicate, it
// builds the always-true constant `1 = 1` instead; param is not part of
// that form, so the parameter is not bound by it. It returns only the
// condition: Select.AddGlobalCondition picks the clause it is merged
// into (spec.md §4.6):
//   - flat query: WHERE
//   - window query: QUALIFY
//   - group query: WHERE if columnId is a GROUP BY position, else HAVING
func addGlobalCondition(column sql.Expression, param sql.Expression, cmp expression.CmpType) sql.Expression {
	if column == nil {
		one := expression.NewLiteral(int64(1), sql.Int64)
		return newLocalAndGlobal(expression.NewComparison(one, one, expression.CmpEq))
	}
	return newLocalAndGlobal(expression.NewComparison(column, param, cmp))
}
