package rowexec

import (
	"io"

	"github.com/relixdb/queryengine/plan"
	"github.com/relixdb/queryengine/sql"
)

// buildGroupHashed gathers every qualifying row into s.Groups, keyed by
// the GROUP BY columns, then materializes one row per group, applying
// HAVING and then QUALIFY (spec.md §4.4 "Group (hashed)"). s.Groups owns
// its own row source (wired in by the binder/planner, outside this
// package's concern) and is driven purely through Reset/NextSource/Next.
func buildGroupHashed(ctx *sql.Context, s *plan.Select) (sql.RowIter, error) {
	s.Groups.Reset()
	for {
		ok, err := s.Groups.NextSource(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
	}

	src := &groupHashedIter{groups: s.Groups, having: s.Having, qualify: s.Qualify}
	finished, err := finisherFor(s).Finish(ctx, src)
	if err != nil {
		return nil, err
	}
	return &projectIter{src: finished, n: s.VisibleColumnCount}, nil
}

type groupHashedIter struct {
	groups          plan.SelectGroups
	having, qualify sql.Expression
}

func (g *groupHashedIter) Next(ctx *sql.Context) (sql.Row, error) {
	for {
		row, err := g.groups.Next(ctx)
		if err != nil {
			return nil, err
		}
		if row == nil {
			return nil, io.EOF
		}
		ok, err := evalBool(ctx, g.having, row)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		ok, err = evalBool(ctx, g.qualify, row)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		return row, nil
	}
}

func (g *groupHashedIter) Close(ctx *sql.Context) error {
	g.groups.Remove()
	return nil
}
