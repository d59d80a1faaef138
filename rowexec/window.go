package rowexec

import (
	"io"

	"github.com/mitchellh/hashstructure"

	"github.com/relixdb/queryengine/plan"
	"github.com/relixdb/queryengine/sql"
)

// buildWindow implements spec.md §4.4 "Window": a plain pass over every
// qualifying row treated as a single partition, or, when GROUP BY is
// also present, a group+window pass that runs HAVING over the hashed
// groups first and then re-walks each surviving group's member rows to
// evaluate the window expressions.
func buildWindow(ctx *sql.Context, s *plan.Select) (sql.RowIter, error) {
	join, err := newJoinIter(ctx, s.TopFilters)
	if err != nil {
		return nil, err
	}
	defer join.Close(ctx)

	var rows []sql.Row
	for {
		row, err := join.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		ok, err := evalBool(ctx, s.Where, row)
		if err != nil {
			return nil, err
		}
		if ok {
			rows = append(rows, row)
		}
	}

	if s.IsGroupQuery {
		rows, err = filterSurvivingGroups(ctx, s, rows)
		if err != nil {
			return nil, err
		}
	}

	out := make([]sql.Row, 0, len(rows))
	for i := range rows {
		materialized, err := materializeWindowRow(ctx, s, rows, i)
		if err != nil {
			return nil, err
		}
		ok, err := evalBool(ctx, s.Qualify, materialized)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, materialized)
		}
	}

	finished, err := finisherFor(s).Finish(ctx, sql.NewSliceIter(out))
	if err != nil {
		return nil, err
	}
	return &projectIter{src: finished, n: s.VisibleColumnCount}, nil
}

// materializeWindowRow evaluates every select-list expression for the
// row at pos: window expressions see the full partition (spec.md §4.4
// "window stage"), ordinary expressions evaluate against their own row.
func materializeWindowRow(ctx *sql.Context, s *plan.Select, rows []sql.Row, pos int) (sql.Row, error) {
	out := make(sql.Row, len(s.Expressions))
	for i, e := range s.Expressions {
		if w, ok := plan.WindowAggregatable(e); ok {
			v, err := w.EvalWindow(ctx, rows, pos)
			if err != nil {
				return nil, err
			}
			out[i] = v
			continue
		}
		v, err := e.Eval(ctx, rows[pos])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// filterSurvivingGroups computes each row's GROUP BY key, drives
// s.Groups exactly as the hashed group mode does to learn which keys
// pass HAVING, and keeps only the member rows belonging to a surviving
// key (spec.md §4.4 "after hashing groups and running HAVING, re-walk
// every surviving group in window stage").
func filterSurvivingGroups(ctx *sql.Context, s *plan.Select, rows []sql.Row) ([]sql.Row, error) {
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

	survivors := map[uint64]bool{}
	for {
		groupRow, err := s.Groups.Next(ctx)
		if err != nil {
			return nil, err
		}
		if groupRow == nil {
			break
		}
		ok, err := evalBool(ctx, s.Having, groupRow)
		if err != nil {
			return nil, err
		}
		if ok {
			key, err := groupKeyOf(groupRow, s.GroupIndex)
			if err != nil {
				return nil, err
			}
			survivors[key] = true
		}
	}

	var kept []sql.Row
	for _, row := range rows {
		key, err := evalGroupKey(ctx, s, row)
		if err != nil {
			return nil, err
		}
		if survivors[key] {
			kept = append(kept, row)
		}
	}
	return kept, nil
}

// groupKeyOf hashes a group row's key columns via hashstructure (spec.md
// §4.5's same structured-hashing approach), matching rowKey's choice in
// union.go over a formatted string key.
func groupKeyOf(row sql.Row, groupIndex []int) (uint64, error) {
	vals := make([]interface{}, len(groupIndex))
	for i, gi := range groupIndex {
		vals[i] = row[gi]
	}
	return hashstructure.Hash(vals, nil)
}

func evalGroupKey(ctx *sql.Context, s *plan.Select, row sql.Row) (uint64, error) {
	vals := make([]interface{}, len(s.GroupIndex))
	for i, gi := range s.GroupIndex {
		v, err := s.Expressions[gi].Eval(ctx, row)
		if err != nil {
			return 0, err
		}
		vals[i] = v
	}
	return hashstructure.Hash(vals, nil)
}
