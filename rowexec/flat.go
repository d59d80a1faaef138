package rowexec

import (
	"github.com/relixdb/queryengine/plan"
	"github.com/relixdb/queryengine/sql"
)

// buildFlat is the default execution mode (spec.md §4.4 "Flat"):
// advance the joined filters, evaluate WHERE, and for FOR UPDATE queries
// invoke per-row locking before a row is allowed to emit.
func buildFlat(ctx *sql.Context, s *plan.Select) (sql.RowIter, error) {
	join, err := newJoinIter(ctx, s.TopFilters)
	if err != nil {
		return nil, err
	}
	src := &flatIter{ctx: ctx, join: join, where: s.Where, fu: s.ForUpdate, filters: s.TopFilters}
	finished, err := finisherFor(s).Finish(ctx, src)
	if err != nil {
		return nil, err
	}
	return &projectIter{src: finished, n: s.VisibleColumnCount}, nil
}

type flatIter struct {
	ctx     *sql.Context
	join    *joinIter
	where   sql.Expression
	fu      *plan.ForUpdate
	filters []sql.TableFilter
}

func (f *flatIter) Next(ctx *sql.Context) (sql.Row, error) {
	for {
		row, err := f.join.Next(ctx)
		if err != nil {
			return nil, err
		}
		ok, err := evalBool(ctx, f.where, row)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if f.fu != nil {
			// The join is materialized, so point each filter's CurrentRow at
			// its own slice of this joined row before locking it.
			off := 0
			for _, flt := range f.filters {
				n := len(flt.Schema())
				flt.SetCurrentRow(row[off : off+n])
				off += n
			}
			met, err := lockForUpdate(ctx, f.fu, f.filters)
			if err != nil {
				return nil, err
			}
			if !met {
				continue // SKIP LOCKED: silently skip the row (spec.md §5)
			}
			// isConditionMetForUpdate: if the lock succeeded but a newer
			// snapshot replaced the row, re-evaluate WHERE against the
			// filter's now-current row before emitting (spec.md §5).
			current := currentJoinedRow(f.filters)
			if current != nil {
				ok, err := evalBool(ctx, f.where, current)
				if err != nil {
					return nil, err
				}
				if !ok {
					continue
				}
				row = current
			}
		}
		return row, nil
	}
}

// currentJoinedRow re-reads CurrentRow() off every filter and
// concatenates them, used by the FOR UPDATE re-evaluation contract
// (spec.md §5) when a filter's row was replaced by a newer snapshot
// during locking.
func currentJoinedRow(filters []sql.TableFilter) sql.Row {
	var row sql.Row
	any := false
	for _, f := range filters {
		cur := f.CurrentRow()
		if cur != nil {
			any = true
		}
		row = append(row, cur...)
	}
	if !any {
		return nil
	}
	return row
}

func (f *flatIter) Close(ctx *sql.Context) error { return f.join.Close(ctx) }
