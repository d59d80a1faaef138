package rowexec

import (
	"io"

	"github.com/relixdb/queryengine/plan"
	"github.com/relixdb/queryengine/sql"
)

// buildGroupSorted streams rows already ordered on the GROUP BY columns
// by the chosen index, emitting a materialized group row as soon as the
// key changes and flushing the final group at end-of-stream (spec.md
// §4.4 "Group-sorted (lazy)").
func buildGroupSorted(ctx *sql.Context, s *plan.Select) (sql.RowIter, error) {
	join, err := newJoinIter(ctx, s.TopFilters)
	if err != nil {
		return nil, err
	}
	s.Groups.ResetLazy()
	src := &groupSortedIter{join: join, groups: s.Groups, where: s.Where, having: s.Having, qualify: s.Qualify}
	finished, err := finisherFor(s).Finish(ctx, src)
	if err != nil {
		return nil, err
	}
	return &projectIter{src: finished, n: s.VisibleColumnCount}, nil
}

// groupSortedIter drives s.Groups's lazy accumulator in lockstep with
// its own scan: each qualifying row is fed in via NextLazyRow, and
// NextLazyGroup is polled after every feed to see whether a completed
// group row is ready. NextLazyRow(ctx, nil) is this core's chosen
// end-of-stream signal (no explicit "flush" verb exists on SelectGroups;
// spec.md §4.4 only says "the final group is flushed on end-of-stream"),
// telling the accumulator to emit whatever group it was still building.
type groupSortedIter struct {
	join            *joinIter
	groups          plan.SelectGroups
	where           sql.Expression
	having, qualify sql.Expression
	eof             bool
}

func (g *groupSortedIter) Next(ctx *sql.Context) (sql.Row, error) {
	for {
		groupRow, ready, err := g.groups.NextLazyGroup(ctx)
		if err != nil {
			return nil, err
		}
		if ready {
			accept, err := g.accept(ctx, groupRow)
			if err != nil {
				return nil, err
			}
			if accept {
				return groupRow, nil
			}
			continue
		}
		if g.eof {
			return nil, io.EOF
		}

		row, err := g.join.Next(ctx)
		if err == io.EOF {
			g.eof = true
			if ferr := g.groups.NextLazyRow(ctx, nil); ferr != nil {
				return nil, ferr
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		ok, err := evalBool(ctx, g.where, row)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if err := g.groups.NextLazyRow(ctx, row); err != nil {
			return nil, err
		}
	}
}

func (g *groupSortedIter) accept(ctx *sql.Context, row sql.Row) (bool, error) {
	ok, err := evalBool(ctx, g.having, row)
	if err != nil || !ok {
		return false, err
	}
	return evalBool(ctx, g.qualify, row)
}

func (g *groupSortedIter) Close(ctx *sql.Context) error { return g.join.Close(ctx) }
