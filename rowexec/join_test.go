package rowexec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relixdb/queryengine/internal/memtable"
	"github.com/relixdb/queryengine/sql"
)

func deptTable() *memtable.Table {
	tbl := memtable.NewTable("depts", sql.Schema{
		{Name: "id", Type: sql.Int64},
		{Name: "name", Type: sql.Text},
	})
	tbl.Insert(sql.NewRow(int64(1), "eng"))
	tbl.Insert(sql.NewRow(int64(2), "sales"))
	return tbl
}

// TestJoinIterCrossProduct exercises newJoinIter directly across two
// filters with no join condition: every combination of left/right rows
// must appear, concatenated wide (spec.md §4.2's join order feeds this).
func TestJoinIterCrossProduct(t *testing.T) {
	ctx := sql.NewEmptyContext()
	left := memtable.NewFilter(peopleTable(), "people")
	right := memtable.NewFilter(deptTable(), "depts")

	join, err := newJoinIter(ctx, []sql.TableFilter{left, right})
	require.NoError(t, err)
	rows, err := sql.RowsToSlice(ctx, join)
	require.NoError(t, err)
	require.Len(t, rows, 6) // 3 people * 2 depts
	require.Equal(t, sql.NewRow(int64(1), int64(30), int64(1), "eng"), rows[0])
	require.NoError(t, join.Close(ctx))
}

// TestJoinIterOuterEmitsNullRowOnNoMatch exercises the "IsJoinOuter"
// fallback (spec.md §6): when the outer filter's inner loop produces no
// match at all, one all-NULL row of that filter's columns is emitted so
// the outer side's rows are never silently dropped.
func TestJoinIterOuterEmitsNullRowOnNoMatch(t *testing.T) {
	ctx := sql.NewEmptyContext()
	empty := memtable.NewTable("empty_depts", sql.Schema{
		{Name: "id", Type: sql.Int64},
		{Name: "name", Type: sql.Text},
	})
	right := memtable.NewFilter(empty, "empty_depts")
	right.SetJoinOuter(true)

	join, err := newJoinIter(ctx, []sql.TableFilter{right})
	require.NoError(t, err)
	rows, err := sql.RowsToSlice(ctx, join)
	require.NoError(t, err)
	require.Equal(t, []sql.Row{sql.NewRow(nil, nil)}, rows)
}
