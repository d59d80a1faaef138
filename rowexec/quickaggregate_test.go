package rowexec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relixdb/queryengine/internal/memtable"
	"github.com/relixdb/queryengine/plan"
	"github.com/relixdb/queryengine/sql"
)

// fakeCountStar is a minimal quick-aggregatable expression, standing in
// for an externally supplied COUNT(*) implementation (spec.md §1 places
// the aggregate runtime outside the core).
type fakeCountStar struct{}

func (fakeCountStar) Resolved() bool             { return true }
func (fakeCountStar) Type() sql.Type             { return sql.Int64 }
func (fakeCountStar) Children() []sql.Expression { return nil }
func (fakeCountStar) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	return nil, nil
}
func (fakeCountStar) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	return fakeCountStar{}, nil
}
func (fakeCountStar) String() string { return "COUNT(*)" }
func (fakeCountStar) QuickAggregatable(sql.TableFilter) bool { return true }
func (fakeCountStar) EvalQuick(ctx *sql.Context, filter sql.TableFilter) (interface{}, error) {
	n, err := filter.Table().RowCountApproximation(ctx)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func TestBuildQuickAggregate(t *testing.T) {
	ctx := sql.NewEmptyContext()
	tbl := peopleTable()
	filter := memtable.NewFilter(tbl, "people")
	db := sql.NewSimpleDatabase("test")

	s := plan.NewSelect(db, []sql.Expression{fakeCountStar{}}, []sql.TableFilter{filter})
	s.TopFilters = []sql.TableFilter{filter}
	s.VisibleColumnCount = 1
	s.IsQuickAggregateQuery = true

	iter, err := buildSelect(ctx, s, 0, false)
	require.NoError(t, err)
	rows, err := sql.RowsToSlice(ctx, iter)
	require.NoError(t, err)
	require.Equal(t, []sql.Row{sql.NewRow(int64(3))}, rows)
}
