package rowexec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relixdb/queryengine/internal/memtable"
	"github.com/relixdb/queryengine/plan"
	"github.com/relixdb/queryengine/sql"
	"github.com/relixdb/queryengine/sql/expression"
)

func TestBuildDistinctViaIndexWalksDistinctKeys(t *testing.T) {
	ctx := sql.NewEmptyContext()
	tbl := memtable.NewTable("tags", sql.Schema{{Name: "label", Type: sql.Text}})
	tbl.Insert(sql.NewRow("b"))
	tbl.Insert(sql.NewRow("a"))
	tbl.Insert(sql.NewRow("a"))
	tbl.Insert(sql.NewRow("c"))

	idx := tbl.CreateIndex("by_label", tbl.Schema()[0], false, sql.Ascending)
	filter := memtable.NewFilter(tbl, "tags")
	filter.SetIndex(idx, false)

	db := sql.NewSimpleDatabase("test")
	s := plan.NewSelect(db, []sql.Expression{expression.NewGetField(0, sql.Text, "label", false)}, []sql.TableFilter{filter})
	s.TopFilters = []sql.TableFilter{filter}
	s.VisibleColumnCount = 1
	s.Distinct = true
	s.IsDistinctQuery = true

	iter, err := buildSelect(ctx, s, 0, false)
	require.NoError(t, err)
	rows, err := sql.RowsToSlice(ctx, iter)
	require.NoError(t, err)
	require.Equal(t, []sql.Row{sql.NewRow("a"), sql.NewRow("b"), sql.NewRow("c")}, rows)
}

// TestBuildDistinctGeneralDedupesWithoutIndex exercises the fallback
// DISTINCT path (spec.md §4.1, §8): two visible columns and no qualifying
// unique index rules out buildDistinctViaIndex, so s.Distinct alone must
// still route to a dedup producer that drops the repeated ("east", 10)
// row.
func TestBuildDistinctGeneralDedupesWithoutIndex(t *testing.T) {
	ctx := sql.NewEmptyContext()
	tbl := memtable.NewTable("sales", sql.Schema{
		{Name: "region", Type: sql.Text},
		{Name: "amount", Type: sql.Int64},
	})
	tbl.Insert(sql.NewRow("east", int64(10)))
	tbl.Insert(sql.NewRow("east", int64(10)))
	tbl.Insert(sql.NewRow("west", int64(20)))
	filter := memtable.NewFilter(tbl, "sales")

	db := sql.NewSimpleDatabase("test")
	region := expression.NewGetField(0, sql.Text, "region", false)
	amount := expression.NewGetField(1, sql.Int64, "amount", false)
	s := plan.NewSelect(db, []sql.Expression{region, amount}, []sql.TableFilter{filter})
	s.TopFilters = []sql.TableFilter{filter}
	s.VisibleColumnCount = 2
	s.Distinct = true

	iter, err := buildSelect(ctx, s, 0, false)
	require.NoError(t, err)
	rows, err := sql.RowsToSlice(ctx, iter)
	require.NoError(t, err)
	require.Equal(t, []sql.Row{
		sql.NewRow("east", int64(10)),
		sql.NewRow("west", int64(20)),
	}, rows)
}

// TestBuildDistinctGeneralOnPicksFirstUnderSortOrder pins spec.md's
// DISTINCT ON scenario S2: DISTINCT ON (region) ORDER BY region,
// amount DESC must keep the highest-amount row per region, which
// requires sorting before deduping rather than deduping in scan order.
func TestBuildDistinctGeneralOnPicksFirstUnderSortOrder(t *testing.T) {
	ctx := sql.NewEmptyContext()
	tbl := memtable.NewTable("sales", sql.Schema{
		{Name: "region", Type: sql.Text},
		{Name: "amount", Type: sql.Int64},
	})
	tbl.Insert(sql.NewRow("east", int64(10)))
	tbl.Insert(sql.NewRow("east", int64(30)))
	tbl.Insert(sql.NewRow("west", int64(20)))
	filter := memtable.NewFilter(tbl, "sales")

	db := sql.NewSimpleDatabase("test")
	region := expression.NewGetField(0, sql.Text, "region", false)
	amount := expression.NewGetField(1, sql.Int64, "amount", false)
	s := plan.NewSelect(db, []sql.Expression{region, amount}, []sql.TableFilter{filter})
	s.TopFilters = []sql.TableFilter{filter}
	s.VisibleColumnCount = 2
	s.Distinct = true
	s.DistinctIndexes = []int{0}
	s.SortOrder = sql.SortFields{
		{Column: region, Order: sql.Ascending, NullOrdering: sql.NullsFirst},
		{Column: amount, Order: sql.Descending, NullOrdering: sql.NullsFirst},
	}

	iter, err := buildSelect(ctx, s, 0, false)
	require.NoError(t, err)
	rows, err := sql.RowsToSlice(ctx, iter)
	require.NoError(t, err)
	require.Equal(t, []sql.Row{
		sql.NewRow("east", int64(30)),
		sql.NewRow("west", int64(20)),
	}, rows)
}
