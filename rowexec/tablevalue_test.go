package rowexec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relixdb/queryengine/plan"
	"github.com/relixdb/queryengine/sql"
	"github.com/relixdb/queryengine/sql/expression"
)

func TestBuildTableValueConstructorOrdersAndCoerces(t *testing.T) {
	ctx := sql.NewEmptyContext()
	db := sql.NewSimpleDatabase("test")

	rows := [][]sql.Expression{
		{expression.NewLiteral(int64(2), sql.Int64)},
		{expression.NewLiteral(float64(1), sql.Float64)},
	}
	tvc, err := plan.NewTableValueConstructor(db, rows)
	require.NoError(t, err)
	tvc.SortOrder = sql.SortFields{{
		Column: expression.NewGetField(0, sql.Float64, "C1", false),
		Order:  sql.Ascending,
	}}

	iter, err := build(ctx, tvc, 0, false)
	require.NoError(t, err)
	out, err := sql.RowsToSlice(ctx, iter)
	require.NoError(t, err)
	require.Equal(t, []sql.Row{sql.NewRow(float64(1)), sql.NewRow(float64(2))}, out)
}
