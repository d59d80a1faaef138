package expression

import (
	"fmt"

	"github.com/relixdb/queryengine/sql"
)

// Alias names an expression, the vehicle for both user-written `AS`
// aliases and the "preserve original SQL alias after optimization"
// behavior prepareExpressions() performs in ORIGINAL_SQL mode
// (spec.md §4.1).
type Alias struct {
	name  string
	child sql.Expression
	// implicit marks an alias the planner itself introduced (e.g. to
	// preserve a pre-optimization name), reported by Implicit(); String
	// and the wildcard expander treat it like any other alias.
	implicit bool
}

// NewAlias names child with name.
func NewAlias(name string, child sql.Expression) *Alias {
	return &Alias{name: name, child: child}
}

// NewImplicitAlias is used by prepareExpressions() when optimization
// changed an expression's apparent name and ORIGINAL_SQL mode requires
// preserving the pre-optimization alias.
func NewImplicitAlias(name string, child sql.Expression) *Alias {
	return &Alias{name: name, child: child, implicit: true}
}

func (a *Alias) Alias() string      { return a.name }
func (a *Alias) Implicit() bool     { return a.implicit }
func (a *Alias) Resolved() bool     { return a.child.Resolved() }
func (a *Alias) Type() sql.Type     { return a.child.Type() }
func (a *Alias) Child() sql.Expression { return a.child }
func (a *Alias) Children() []sql.Expression { return []sql.Expression{a.child} }

func (a *Alias) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	return a.child.Eval(ctx, row)
}

func (a *Alias) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("expression/alias: Alias takes exactly one child")
	}
	cp := *a
	cp.child = children[0]
	return &cp, nil
}

func (a *Alias) String() string {
	return fmt.Sprintf("%s AS %s", a.child, a.name)
}

// NonAliasExpression unwraps every Alias wrapper, mirroring the
// teacher's Expression.getNonAliasExpression used by GROUP BY identity
// matching (spec.md §4.1).
func NonAliasExpression(e sql.Expression) sql.Expression {
	for {
		a, ok := e.(*Alias)
		if !ok {
			return e
		}
		e = a.child
	}
}
