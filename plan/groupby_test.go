package plan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relixdb/queryengine/sql"
	"github.com/relixdb/queryengine/sql/expression"
)

// groupByIdentifier stands in for a bare column-name reference in a
// GROUP BY clause (e.g. `GROUP BY total`), whose only role here is to
// carry a String() that resolveGroupBy compares against candidate
// aliases.
type groupByIdentifier struct{ name string }

func (g groupByIdentifier) Resolved() bool             { return true }
func (g groupByIdentifier) Type() sql.Type             { return sql.Int64 }
func (g groupByIdentifier) Children() []sql.Expression { return nil }
func (g groupByIdentifier) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	return nil, nil
}
func (g groupByIdentifier) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	return g, nil
}
func (g groupByIdentifier) String() string { return g.name }

func TestResolveGroupByMatchesByAlias(t *testing.T) {
	db := sql.NewSimpleDatabase("test")
	dept := expression.NewGetFieldWithTable(0, sql.Text, "e", "dept", false)
	total := expression.NewAlias("total", expression.NewGetFieldWithTable(1, sql.Int64, "e", "amount", false))

	s := NewSelect(db, []sql.Expression{dept, total}, nil)
	s.GroupBy = []sql.Expression{dept, groupByIdentifier{name: "total"}}

	require.NoError(t, s.resolveGroupBy())
	require.True(t, s.IsGroupQuery)
	require.Equal(t, []int{0, 1}, s.GroupIndex)
	require.Equal(t, []bool{true, true}, s.GroupByExpression)
}

func TestResolveGroupByDedupesIdenticalExpressions(t *testing.T) {
	db := sql.NewSimpleDatabase("test")
	dept := expression.NewGetFieldWithTable(0, sql.Text, "e", "dept", false)

	s := NewSelect(db, []sql.Expression{dept}, nil)
	// GROUP BY dept, dept -- an equal-SQL term is merged rather than
	// evaluated and appended a second time.
	s.GroupBy = []sql.Expression{dept, dept}

	require.NoError(t, s.resolveGroupBy())
	require.Equal(t, []int{0, 0}, s.GroupIndex)
	require.Equal(t, -2, s.GroupByCopies[0])
	require.Equal(t, 0, s.GroupByCopies[1])
	require.Len(t, s.Expressions, 1)
}

func TestResolveGroupByAliasMatchPrefersLastCandidateOnAmbiguity(t *testing.T) {
	db := sql.NewSimpleDatabase("test")
	firstTotal := expression.NewAlias("total", expression.NewGetFieldWithTable(0, sql.Int64, "e", "a", false))
	secondTotal := expression.NewAlias("total", expression.NewGetFieldWithTable(1, sql.Int64, "e", "b", false))

	s := NewSelect(db, []sql.Expression{firstTotal, secondTotal}, nil)
	s.GroupBy = []sql.Expression{groupByIdentifier{name: "total"}}

	require.NoError(t, s.resolveGroupBy())
	// resolveGroupBy scans every candidate column for an alias match
	// rather than stopping at the first hit, so the last matching
	// column wins when the alias is ambiguous.
	require.Equal(t, []int{1}, s.GroupIndex)
}

func TestResolveGroupByAppendsWhenNoColumnMatches(t *testing.T) {
	db := sql.NewSimpleDatabase("test")
	dept := expression.NewGetFieldWithTable(0, sql.Text, "e", "dept", false)
	region := expression.NewGetFieldWithTable(1, sql.Text, "e", "region", false)

	s := NewSelect(db, []sql.Expression{dept}, nil)
	s.GroupBy = []sql.Expression{region}

	require.NoError(t, s.resolveGroupBy())
	require.Equal(t, []int{1}, s.GroupIndex)
	require.Len(t, s.Expressions, 2)
	require.Equal(t, []bool{false, true}, s.GroupByExpression)
}
