package rowexec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relixdb/queryengine/internal/memtable"
	"github.com/relixdb/queryengine/plan"
	"github.com/relixdb/queryengine/sql"
	"github.com/relixdb/queryengine/sql/expression"
)

// TestBuildFlatFetchWithTies pins spec.md §8 scenario S1: FETCH FIRST 2
// ROWS WITH TIES over v=10,10,20,20,30 ordered by v must extend past the
// 2-row boundary to include every row tying the last emitted row.
func TestBuildFlatFetchWithTies(t *testing.T) {
	ctx := sql.NewEmptyContext()
	tbl := memtable.NewTable("t", sql.Schema{
		{Name: "id", Type: sql.Int64},
		{Name: "v", Type: sql.Int64},
	})
	tbl.Insert(sql.NewRow(int64(1), int64(10)))
	tbl.Insert(sql.NewRow(int64(2), int64(10)))
	tbl.Insert(sql.NewRow(int64(3), int64(20)))
	tbl.Insert(sql.NewRow(int64(4), int64(20)))
	tbl.Insert(sql.NewRow(int64(5), int64(30)))
	filter := memtable.NewFilter(tbl, "t")
	db := sql.NewSimpleDatabase("test")

	v := expression.NewGetField(1, sql.Int64, "v", false)
	s := plan.NewSelect(db, []sql.Expression{v}, []sql.TableFilter{filter})
	s.TopFilters = []sql.TableFilter{filter}
	s.VisibleColumnCount = 1
	s.SortOrder = sql.SortFields{{Column: v, Order: sql.Ascending, NullOrdering: sql.NullsFirst}}
	s.OffsetFetch = plan.OffsetFetch{
		Fetch:    expression.NewLiteral(int64(2), sql.Int64),
		WithTies: true,
	}

	iter, err := buildSelect(ctx, s, 0, false)
	require.NoError(t, err)
	rows, err := sql.RowsToSlice(ctx, iter)
	require.NoError(t, err)
	require.Equal(t, []sql.Row{
		sql.NewRow(int64(10)),
		sql.NewRow(int64(10)),
		sql.NewRow(int64(20)),
		sql.NewRow(int64(20)),
	}, rows)
}

// TestBuildFlatFetchWithoutTiesStopsAtBoundary is the control case: the
// same data without WITH TIES must stop exactly at the fetch count even
// though row 2 ties row 1's value.
func TestBuildFlatFetchWithoutTiesStopsAtBoundary(t *testing.T) {
	ctx := sql.NewEmptyContext()
	tbl := memtable.NewTable("t", sql.Schema{
		{Name: "id", Type: sql.Int64},
		{Name: "v", Type: sql.Int64},
	})
	tbl.Insert(sql.NewRow(int64(1), int64(10)))
	tbl.Insert(sql.NewRow(int64(2), int64(10)))
	tbl.Insert(sql.NewRow(int64(3), int64(20)))
	filter := memtable.NewFilter(tbl, "t")
	db := sql.NewSimpleDatabase("test")

	v := expression.NewGetField(1, sql.Int64, "v", false)
	s := plan.NewSelect(db, []sql.Expression{v}, []sql.TableFilter{filter})
	s.TopFilters = []sql.TableFilter{filter}
	s.VisibleColumnCount = 1
	s.SortOrder = sql.SortFields{{Column: v, Order: sql.Ascending, NullOrdering: sql.NullsFirst}}
	s.OffsetFetch = plan.OffsetFetch{
		Fetch: expression.NewLiteral(int64(1), sql.Int64),
	}

	iter, err := buildSelect(ctx, s, 0, false)
	require.NoError(t, err)
	rows, err := sql.RowsToSlice(ctx, iter)
	require.NoError(t, err)
	require.Equal(t, []sql.Row{sql.NewRow(int64(10))}, rows)
}
