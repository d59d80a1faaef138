package rowexec

import (
	"sort"

	"github.com/relixdb/queryengine/plan"
	"github.com/relixdb/queryengine/sql"
)

// finisher drains a producer iterator and applies OFFSET/FETCH/WITH
// TIES per spec.md §4.4 "OFFSET/FETCH/WITH TIES — finishing rules". It
// is shared by every execution mode except quick aggregate (which
// always produces exactly one row, for which offset/fetch is moot).
type finisher struct {
	of                 plan.OffsetFetch
	sortOrder          sql.SortFields
	indexSortedColumns int
	needsSort          bool // true when the producer's order doesn't already satisfy sortOrder
}

// Finish evaluates OffsetFetch against the already-produced row sequence
// and returns the finished iterator. Rows are always materialized first
// (and sorted when needsSort is set), so WITH TIES can look ahead past
// the fetch boundary; OFFSET is then applied by slicing. No streaming
// quickOffset pre-skip is done, even when the scan already satisfies
// sortOrder.
func (f finisher) Finish(ctx *sql.Context, src sql.RowIter) (sql.RowIter, error) {
	if f.needsSort && len(f.sortOrder) > 0 {
		rows, err := sql.RowsToSlice(ctx, src)
		if err != nil {
			return nil, err
		}
		sortRows(ctx, rows, f.sortOrder)
		src = sql.NewSliceIter(rows)
	}

	rows, err := sql.RowsToSlice(ctx, src)
	if err != nil {
		return nil, err
	}

	resolved, err := f.of.Resolve(ctx, nil, func() (int64, error) { return int64(len(rows)), nil }, f.indexSortedColumns, len(f.sortOrder))
	if err != nil {
		return nil, err
	}

	start := 0
	if resolved.Offset > 0 {
		start = int(resolved.Offset)
		if start > len(rows) {
			start = len(rows)
		}
	}
	rows = rows[start:]

	if resolved.HasLimit {
		limit := int(resolved.Limit)
		if limit > len(rows) {
			limit = len(rows)
		}
		if resolved.WithTies && limit > 0 && limit < len(rows) && len(f.sortOrder) > 0 {
			last := rows[limit-1]
			for limit < len(rows) {
				c, err := f.sortOrder.Compare(ctx, last, rows[limit])
				if err != nil {
					return nil, err
				}
				if c != 0 {
					break
				}
				limit++
			}
		}
		rows = rows[:limit]
	}

	return sql.NewSliceIter(rows), nil
}

// sortRows stably sorts rows by order (spec.md §8 "ORDER-BY
// preservation"); stability keeps scan order among ties, which the
// group-sorted-equivalence and constant-pruning invariants depend on.
func sortRows(ctx *sql.Context, rows []sql.Row, order sql.SortFields) {
	sort.SliceStable(rows, func(i, j int) bool {
		less, err := order.Less(ctx, rows[i], rows[j])
		if err != nil {
			return false
		}
		return less
	})
}

// projectRows slices every row down to its first n columns, the final
// step that drops ORDER BY/DISTINCT/HAVING/QUALIFY helper columns before
// the result reaches the caller (spec.md §3 "visibleColumnCount").
func projectRows(rows []sql.Row, n int) []sql.Row {
	out := make([]sql.Row, len(rows))
	for i, r := range rows {
		out[i] = r[:n]
	}
	return out
}

type projectIter struct {
	src sql.RowIter
	n   int
}

func (p *projectIter) Next(ctx *sql.Context) (sql.Row, error) {
	row, err := p.src.Next(ctx)
	if err != nil {
		return nil, err
	}
	return row[:p.n], nil
}
func (p *projectIter) Close(ctx *sql.Context) error { return p.src.Close(ctx) }
