package plan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relixdb/queryengine/internal/memtable"
	"github.com/relixdb/queryengine/sql"
	"github.com/relixdb/queryengine/sql/expression"
)

func TestPlanIndexSortPicksLongestPrefix(t *testing.T) {
	tbl := memtable.NewTable("t", sql.Schema{
		{Name: "a", Type: sql.Int64},
		{Name: "b", Type: sql.Int64},
	})
	tbl.Insert(sql.NewRow(int64(1), int64(1)))
	byA := tbl.CreateIndex("by_a", tbl.Schema()[0], false, sql.Ascending)
	_ = byA

	filter := memtable.NewFilter(tbl, "t")
	orderBy := sql.SortFields{
		{Column: expression.NewGetField(0, sql.Int64, "a", false), Order: sql.Ascending},
	}

	candidates := PlanIndexSort(sql.NewSimpleDatabase("test"), filter, orderBy)
	require.Len(t, candidates, 1)
	require.Equal(t, FullySorted, candidates[0].SortedColumns)
	require.False(t, candidates[0].Reverse)

	chosen := ChooseIndexSort(filter.Index(), candidates)
	require.NotNil(t, chosen)
	require.Equal(t, byA, chosen.Index)
}

func TestPlanIndexSortDetectsReverseScan(t *testing.T) {
	tbl := memtable.NewTable("t", sql.Schema{{Name: "a", Type: sql.Int64}})
	tbl.Insert(sql.NewRow(int64(1)))
	tbl.CreateIndex("by_a", tbl.Schema()[0], false, sql.Ascending)
	filter := memtable.NewFilter(tbl, "t")

	orderBy := sql.SortFields{
		{Column: expression.NewGetField(0, sql.Int64, "a", false), Order: sql.Descending},
	}
	candidates := PlanIndexSort(sql.NewSimpleDatabase("test"), filter, orderBy)
	require.Len(t, candidates, 1)
	require.True(t, candidates[0].Reverse)
}

func TestIndexSortBetterPrefersFullySortedThenLongerPrefix(t *testing.T) {
	full := IndexSort{SortedColumns: FullySorted}
	partial := IndexSort{SortedColumns: 2}
	shorter := IndexSort{SortedColumns: 1}

	require.True(t, full.Better(partial))
	require.True(t, partial.Better(shorter))
	require.False(t, shorter.Better(partial))
}
