package sql

// SortField describes one materialized ORDER BY element: which column
// (by position, already resolved against the owning Query's expression
// list) it sorts on, its direction and null ordering. Named after the
// teacher's sql.SortField used throughout sql/plan/sort_test.go.
type SortField struct {
	Column       Expression
	Order        SortDirection
	NullOrdering NullOrdering
}

// SortFields is a materialized SortOrder: the column-index/sort-type
// bitfield pair spec.md §3 describes for SortOrder, expressed here as a
// slice of SortField since Expression.Index() carries the column index.
type SortFields []SortField

// Less reports whether row a sorts before row b under the given
// comparator context. Used by the in-memory sort fallback and by the
// WITH TIES tie-break check (spec.md §4.4, §8).
func (sf SortFields) Less(ctx *Context, a, b Row) (bool, error) {
	cmp, err := sf.Compare(ctx, a, b)
	return cmp < 0, err
}

// Compare returns the three-way comparison of a and b under this sort
// order: negative if a sorts first, 0 if equal under every field
// (the WITH TIES equality test, spec.md §8), positive otherwise.
func (sf SortFields) Compare(ctx *Context, a, b Row) (int, error) {
	for _, f := range sf {
		av, err := f.Column.Eval(ctx, a)
		if err != nil {
			return 0, err
		}
		bv, err := f.Column.Eval(ctx, b)
		if err != nil {
			return 0, err
		}
		c, err := ctx.Compare(av, bv, f.Column.Type(), f.NullOrdering)
		if err != nil {
			return 0, err
		}
		// NULLS FIRST/LAST place a NULL absolutely; only LOW/HIGH NULLs
		// (and non-NULL pairs) follow the direction.
		nullPlaced := (av == nil) != (bv == nil) && (f.NullOrdering == NullsFirst || f.NullOrdering == NullsLast)
		if f.Order == Descending && !nullPlaced {
			c = -c
		}
		if c != 0 {
			return c, nil
		}
	}
	return 0, nil
}
