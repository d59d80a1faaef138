package rowexec

import (
	"github.com/mitchellh/hashstructure"

	"github.com/relixdb/queryengine/plan"
	"github.com/relixdb/queryengine/sql"
)

// buildUnion executes each side of a set operation independently and
// combines them per spec.md §4.4 "Set operations (SelectUnion)": UNION
// and EXCEPT make the result distinct, INTERSECT iterates the left side
// into a distinct helper and emits only right-side rows present in it,
// and UNION ALL simply concatenates both sides without deduplicating.
func buildUnion(ctx *sql.Context, u *plan.SelectUnion, limit int64, hasLimit bool) (sql.RowIter, error) {
	leftRows, err := drainSide(ctx, u.Left)
	if err != nil {
		return nil, err
	}
	rightRows, err := drainSide(ctx, u.Right)
	if err != nil {
		return nil, err
	}

	schema := u.Schema()
	leftRows, err = coerceRows(leftRows, u.Left.Schema(), schema)
	if err != nil {
		return nil, err
	}
	rightRows, err = coerceRows(rightRows, u.Right.Schema(), schema)
	if err != nil {
		return nil, err
	}

	var out []sql.Row
	switch u.Type {
	case plan.UnionAll:
		out = append(out, leftRows...)
		out = append(out, rightRows...)
	case plan.Union:
		out, err = distinctRows(append(append([]sql.Row{}, leftRows...), rightRows...))
		if err != nil {
			return nil, err
		}
	case plan.Except:
		seen, err := rowSet(rightRows)
		if err != nil {
			return nil, err
		}
		var kept []sql.Row
		emitted := map[uint64]bool{}
		for _, r := range leftRows {
			k, err := rowKey(r)
			if err != nil {
				return nil, err
			}
			if seen[k] || emitted[k] {
				continue
			}
			emitted[k] = true
			kept = append(kept, r)
		}
		out = kept
	case plan.Intersect:
		left, err := rowSet(leftRows)
		if err != nil {
			return nil, err
		}
		var kept []sql.Row
		emitted := map[uint64]bool{}
		for _, r := range rightRows {
			k, err := rowKey(r)
			if err != nil {
				return nil, err
			}
			if !left[k] || emitted[k] {
				continue
			}
			emitted[k] = true
			kept = append(kept, r)
		}
		out = kept
	}

	f := finisher{
		of:                 u.OffsetFetch,
		sortOrder:          u.SortOrder,
		indexSortedColumns: 0,
		needsSort:          len(u.SortOrder) > 0,
	}
	finished, err := f.Finish(ctx, sql.NewSliceIter(out))
	if err != nil {
		return nil, err
	}
	return &projectIter{src: finished, n: u.VisibleColumnCount}, nil
}

func drainSide(ctx *sql.Context, q plan.QueryNode) ([]sql.Row, error) {
	iter, err := build(ctx, q, 0, false)
	if err != nil {
		return nil, err
	}
	return sql.RowsToSlice(ctx, iter)
}

func coerceRows(rows []sql.Row, from, to sql.Schema) ([]sql.Row, error) {
	out := make([]sql.Row, len(rows))
	for i, r := range rows {
		coerced, err := plan.CoerceRow(r, from, to)
		if err != nil {
			return nil, err
		}
		out[i] = coerced
	}
	return out, nil
}

// rowKey hashes a row's values to a single uint64 via hashstructure, the
// same structured-hashing approach cache.Key uses (spec.md §4.5):
// cheaper to compare and store than a formatted string key.
func rowKey(r sql.Row) (uint64, error) {
	return hashstructure.Hash([]interface{}(r), nil)
}

func rowSet(rows []sql.Row) (map[uint64]bool, error) {
	set := make(map[uint64]bool, len(rows))
	for _, r := range rows {
		k, err := rowKey(r)
		if err != nil {
			return nil, err
		}
		set[k] = true
	}
	return set, nil
}

// distinctRows keeps the first occurrence of each distinct row, in scan
// order, matching the stable-ordering invariant the rest of the core
// relies on (spec.md §8 "ORDER-BY preservation").
func distinctRows(rows []sql.Row) ([]sql.Row, error) {
	seen := map[uint64]bool{}
	var out []sql.Row
	for _, r := range rows {
		k, err := rowKey(r)
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
