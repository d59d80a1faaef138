package plan

import (
	"github.com/relixdb/queryengine/sql"
	"github.com/relixdb/queryengine/sql/expression"
)

// SelectListColumnResolver resolves a bare identifier appearing in
// HAVING or QUALIFY to the position of a matching select-list alias
// (spec.md §2 "SelectListColumnResolver"). Ordinary column references
// inside HAVING/QUALIFY that aren't select-list aliases pass through
// unresolved by this step and are later bound against the FROM scope
// like any other expression.
type SelectListColumnResolver struct {
	db      sql.Database
	exprs   []sql.Expression
}

// NewSelectListColumnResolver builds a resolver against the current
// select-list snapshot.
func NewSelectListColumnResolver(db sql.Database, exprs []sql.Expression) *SelectListColumnResolver {
	return &SelectListColumnResolver{db: db, exprs: exprs}
}

// Resolve replaces bare-identifier references to a select-list alias
// with a GetField pointing at that position, recursively over e's
// children. When two select-list entries share the same alias, the
// first one in select-list order is used; no AMBIGUOUS_COLUMN error is
// raised here.
func (r *SelectListColumnResolver) Resolve(e sql.Expression) sql.Expression {
	if name, ok := bareIdentifier(e); ok {
		if idx, typ, found := r.findAlias(name); found {
			return expression.NewGetField(idx, typ, name, true)
		}
		return e
	}
	children := e.Children()
	if len(children) == 0 {
		return e
	}
	newChildren := make([]sql.Expression, len(children))
	changed := false
	for i, c := range children {
		nc := r.Resolve(c)
		newChildren[i] = nc
		if nc != c {
			changed = true
		}
	}
	if !changed {
		return e
	}
	rewritten, err := e.WithChildren(newChildren...)
	if err != nil {
		return e
	}
	return rewritten
}

func (r *SelectListColumnResolver) findAlias(name string) (idx int, typ sql.Type, found bool) {
	for i, expr := range r.exprs {
		a, ok := expr.(sql.Aliasable)
		if !ok {
			continue
		}
		if r.db.EqualsIdentifiers(a.Alias(), name) {
			return i, expr.Type(), true
		}
	}
	return 0, nil, false
}

// unresolvedIdentifier is a thin placeholder produced by the (external)
// parser for a bare identifier before binding; this resolver only needs
// to recognize it, not construct it.
type unresolvedIdentifier interface {
	IdentifierName() string
}

func bareIdentifier(e sql.Expression) (string, bool) {
	u, ok := e.(unresolvedIdentifier)
	if !ok {
		return "", false
	}
	return u.IdentifierName(), true
}
