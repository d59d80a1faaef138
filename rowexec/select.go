package rowexec

import (
	"github.com/relixdb/queryengine/plan"
	"github.com/relixdb/queryengine/sql"
)

// buildSelect dispatches to the right execution-mode producer for s,
// following spec.md §4.4's precedence: "quick-aggregate ≻ window (group
// + window or window alone) ≻ group (sorted or hashed) ≻
// distinct-via-index ≻ flat".
func buildSelect(ctx *sql.Context, s *plan.Select, limit int64, hasLimit bool) (sql.RowIter, error) {
	switch {
	case s.IsQuickAggregateQuery:
		return buildQuickAggregate(ctx, s)
	case s.IsWindowQuery:
		return buildWindow(ctx, s)
	case s.IsGroupQuery:
		if s.IsGroupSortedQuery {
			return buildGroupSorted(ctx, s)
		}
		return buildGroupHashed(ctx, s)
	case s.IsDistinctQuery:
		return buildDistinctViaIndex(ctx, s)
	case s.Distinct:
		return buildDistinctGeneral(ctx, s)
	default:
		return buildFlat(ctx, s)
	}
}

// finisherFor builds the common OFFSET/FETCH/WITH TIES finisher for s
// (spec.md §4.4). needsSort is true whenever the producer's own order
// doesn't already cover the full ORDER BY (i.e. indexSortedColumns is
// short of len(SortOrder)).
func finisherFor(s *plan.Select) finisher {
	return finisher{
		of:                 s.OffsetFetch,
		sortOrder:          s.SortOrder,
		indexSortedColumns: s.IndexSortedColumns,
		needsSort:          len(s.SortOrder) > 0 && s.IndexSortedColumns != len(s.SortOrder) && s.IndexSortedColumns != plan.FullySorted,
	}
}

// evalBool evaluates e against row and reports its three-valued-logic
// truthiness: NULL and false are both "not true" (spec.md §4.4 "evaluate
// WHERE; if true, emit").
func evalBool(ctx *sql.Context, e sql.Expression, row sql.Row) (bool, error) {
	if e == nil {
		return true, nil
	}
	v, err := e.Eval(ctx, row)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	return ok && b, nil
}
