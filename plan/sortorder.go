package plan

import "github.com/relixdb/queryengine/sql"

// QueryOrderBy is one ORDER BY element as parsed: an expression (which
// may reference a select-list position, an alias, or an arbitrary
// expression to be appended to the expression list), its direction, and
// an optional explicit null ordering (spec.md §3 "QueryOrderBy").
type QueryOrderBy struct {
	Expr         sql.Expression
	Order        sql.SortDirection
	NullOrdering *sql.NullOrdering // nil means "use the database default"
}

// resolveNullOrdering applies the database's default when the clause
// didn't specify one explicitly (spec.md §4.3).
func (q QueryOrderBy) resolveNullOrdering(db sql.Database) sql.NullOrdering {
	if q.NullOrdering != nil {
		return *q.NullOrdering
	}
	return db.DefaultNullOrdering()
}

// materializeSortOrder turns a []QueryOrderBy plus the already-resolved
// expression-list positions into the SortFields the executor consumes.
// `positions[i]` is the index into the owning Query's expression list
// that QueryOrderBy element i was bound to (spec.md §4.1: "extending
// expressions when the referent is not a visible column").
func materializeSortOrder(db sql.Database, orderBy []QueryOrderBy, exprs []sql.Expression, positions []int) sql.SortFields {
	if len(orderBy) == 0 {
		return nil
	}
	fields := make(sql.SortFields, len(orderBy))
	for i, ob := range orderBy {
		fields[i] = sql.SortField{
			Column:       exprs[positions[i]],
			Order:        ob.Order,
			NullOrdering: ob.resolveNullOrdering(db),
		}
	}
	return fields
}

// pruneConstantSortFields drops SortFields whose column is a compile-time
// constant: they can never change relative row order, so removing them
// doesn't change the result (spec.md §8 "Constant-order pruning"). The
// original QueryOrderBy entries are left untouched in `expressions` per
// spec.md §4.1's stated invariant.
func pruneConstantSortFields(fields sql.SortFields, isConstant func(sql.Expression) bool) sql.SortFields {
	if fields == nil {
		return nil
	}
	out := make(sql.SortFields, 0, len(fields))
	for _, f := range fields {
		if isConstant(f.Column) {
			continue
		}
		out = append(out, f)
	}
	return out
}
