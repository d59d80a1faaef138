package rowexec

import (
	"io"

	"github.com/mitchellh/hashstructure"

	"github.com/relixdb/queryengine/plan"
	"github.com/relixdb/queryengine/sql"
)

// buildDistinctViaIndex walks the leading column of the unique index
// tryDistinctViaIndex chose, using FindNext seeded by the last observed
// value so every call returns at most one row per distinct key (spec.md
// §4.4 "Distinct via index").
func buildDistinctViaIndex(ctx *sql.Context, s *plan.Select) (sql.RowIter, error) {
	filter := s.TopFilters[0]
	src := &distinctIter{ctx: ctx, idx: filter.Index()}
	finished, err := finisherFor(s).Finish(ctx, src)
	if err != nil {
		return nil, err
	}
	return &projectIter{src: finished, n: s.VisibleColumnCount}, nil
}

type distinctIter struct {
	ctx     *sql.Context
	idx     sql.Index
	seed    sql.Row
	started bool
}

func (d *distinctIter) Next(ctx *sql.Context) (sql.Row, error) {
	var first sql.Row
	if d.started {
		first = d.seed
	}
	iter, err := d.idx.FindNext(ctx, first, nil)
	if err != nil {
		return nil, err
	}
	row, err := iter.Next(ctx)
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, err
	}
	d.seed = sql.Row{row[0]}
	d.started = true
	return row, nil
}

func (d *distinctIter) Close(ctx *sql.Context) error { return nil }

// buildDistinctGeneral implements spec.md §4.1/§8's general DISTINCT and
// DISTINCT ON: every DISTINCT query that doesn't qualify for
// buildDistinctViaIndex's narrow single-filter/unique-index switch still
// has to dedupe, so this materializes every qualifying row and hashes
// the key columns. DISTINCT ON sorts by SortOrder before deduping so
// "first occurrence" is the first row under that order (spec.md scenario
// S2); plain DISTINCT dedupes in scan order and lets the shared finisher
// apply ORDER BY afterward.
func buildDistinctGeneral(ctx *sql.Context, s *plan.Select) (sql.RowIter, error) {
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

	keyIndexes := s.DistinctIndexes
	if len(keyIndexes) == 0 {
		keyIndexes = visibleIndexes(s.VisibleColumnCount)
	} else if len(s.SortOrder) > 0 {
		sortRows(ctx, rows, s.SortOrder)
	}

	deduped, err := dedupeByColumns(rows, keyIndexes)
	if err != nil {
		return nil, err
	}

	finished, err := finisherFor(s).Finish(ctx, sql.NewSliceIter(deduped))
	if err != nil {
		return nil, err
	}
	return &projectIter{src: finished, n: s.VisibleColumnCount}, nil
}

// visibleIndexes is the default DISTINCT key: every visible column.
func visibleIndexes(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// dedupeByColumns keeps the first occurrence of each distinct
// combination of the given column positions, in scan order, hashing via
// hashstructure like rowKey in union.go and groupKeyOf in window.go.
func dedupeByColumns(rows []sql.Row, keyIndexes []int) ([]sql.Row, error) {
	seen := map[uint64]bool{}
	out := make([]sql.Row, 0, len(rows))
	for _, r := range rows {
		vals := make([]interface{}, len(keyIndexes))
		for i, ki := range keyIndexes {
			vals[i] = r[ki]
		}
		k, err := hashstructure.Hash(vals, nil)
		if err != nil {
			return nil, err
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out, nil
}
