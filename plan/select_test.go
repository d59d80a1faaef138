package plan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relixdb/queryengine/internal/memtable"
	"github.com/relixdb/queryengine/sql"
	"github.com/relixdb/queryengine/sql/expression"
)

func TestSelectInitExpandsWildcardAndPromotesHavingQualify(t *testing.T) {
	ctx := sql.NewEmptyContext()
	db := sql.NewSimpleDatabase("test")
	tbl := memtable.NewTable("people", sql.Schema{
		{Name: "id", Type: sql.Int64},
		{Name: "name", Type: sql.Text},
	})
	filter := memtable.NewFilter(tbl, "people")

	s := NewSelect(db, []sql.Expression{expression.NewStar()}, []sql.TableFilter{filter})
	s.Having = expression.NewEquals(expression.NewGetField(0, sql.Int64, "id", false), expression.NewLiteral(int64(1), sql.Int64))
	s.Qualify = expression.NewEquals(expression.NewGetField(0, sql.Int64, "id", false), expression.NewLiteral(int64(2), sql.Int64))

	require.NoError(t, s.Init(ctx))
	require.Equal(t, 2, s.VisibleColumnCount)
	require.Equal(t, 4, len(s.Expressions)) // id, name, having, qualify
	require.Equal(t, 2, s.HavingIndex)
	require.Equal(t, 3, s.QualifyIndex)

	// Init is idempotent: a second call is a no-op.
	require.NoError(t, s.Init(ctx))
	require.Equal(t, 4, len(s.Expressions))
}

// TestSelectInitResolvesHavingAliasAgainstSelectList pins review
// scenario S3: a bare `total` in HAVING must resolve against the
// select list's `total` alias before Init promotes HAVING into
// s.Expressions, so the promoted clause evaluates the aliased
// expression rather than an unresolved identifier.
func TestSelectInitResolvesHavingAliasAgainstSelectList(t *testing.T) {
	ctx := sql.NewEmptyContext()
	db := sql.NewSimpleDatabase("test")
	tbl := memtable.NewTable("orders", sql.Schema{{Name: "amount", Type: sql.Int64}})
	filter := memtable.NewFilter(tbl, "orders")

	total := expression.NewAlias("total", expression.NewGetField(0, sql.Int64, "amount", false))
	s := NewSelect(db, []sql.Expression{total}, []sql.TableFilter{filter})
	s.Having = expression.NewComparison(fakeIdentifier{name: "total"}, expression.NewLiteral(int64(5), sql.Int64), expression.CmpGt)

	require.NoError(t, s.Init(ctx))
	require.Equal(t, 2, len(s.Expressions)) // total, having
	require.Equal(t, 1, s.HavingIndex)

	having, ok := s.Expressions[s.HavingIndex].(*expression.Equals)
	require.True(t, ok)
	gf, ok := having.Left().(*expression.GetField)
	require.True(t, ok)
	require.Equal(t, 0, gf.Index())
}

func TestSelectInitRejectsTooManyColumns(t *testing.T) {
	ctx := sql.NewEmptyContext()
	db := sql.NewSimpleDatabase("test")
	exprs := make([]sql.Expression, db.MaxColumns()+1)
	for i := range exprs {
		exprs[i] = expression.NewLiteral(int64(i), sql.Int64)
	}
	s := NewSelect(db, exprs, nil)
	require.Error(t, s.Init(ctx))
}

// fakeMinAggregate is a minimal quick-aggregatable expression, standing
// in for an externally supplied MIN(col) implementation.
type fakeMinAggregate struct{}

func (fakeMinAggregate) Resolved() bool             { return true }
func (fakeMinAggregate) Type() sql.Type             { return sql.Int64 }
func (fakeMinAggregate) Children() []sql.Expression { return nil }
func (fakeMinAggregate) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	return nil, nil
}
func (fakeMinAggregate) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	return fakeMinAggregate{}, nil
}
func (fakeMinAggregate) String() string { return "MIN(x)" }
func (fakeMinAggregate) QuickAggregatable(sql.TableFilter) bool { return true }
func (fakeMinAggregate) EvalQuick(ctx *sql.Context, filter sql.TableFilter) (interface{}, error) {
	return int64(0), nil
}

func TestSelectPrepareExpressionsDetectsQuickAggregate(t *testing.T) {
	ctx := sql.NewEmptyContext()
	db := sql.NewSimpleDatabase("test")
	tbl := memtable.NewTable("people", sql.Schema{{Name: "id", Type: sql.Int64}})
	filter := memtable.NewFilter(tbl, "people")

	s := NewSelect(db, []sql.Expression{fakeMinAggregate{}}, []sql.TableFilter{filter})
	require.NoError(t, s.Init(ctx))
	s.VisibleColumnCount = 1

	identity := func(e sql.Expression) (sql.Expression, error) { return e, nil }
	require.NoError(t, s.PrepareExpressions(ctx, identity, false))
	require.True(t, s.IsQuickAggregateQuery)
}

func TestSelectPrepareExpressionsQuickAggregateRequiresNoWhere(t *testing.T) {
	ctx := sql.NewEmptyContext()
	db := sql.NewSimpleDatabase("test")
	tbl := memtable.NewTable("people", sql.Schema{{Name: "id", Type: sql.Int64}})
	filter := memtable.NewFilter(tbl, "people")

	s := NewSelect(db, []sql.Expression{fakeMinAggregate{}}, []sql.TableFilter{filter})
	s.Where = expression.NewEquals(expression.NewGetField(0, sql.Int64, "id", false), expression.NewLiteral(int64(1), sql.Int64))
	require.NoError(t, s.Init(ctx))
	s.VisibleColumnCount = 1

	identity := func(e sql.Expression) (sql.Expression, error) { return e, nil }
	require.NoError(t, s.PrepareExpressions(ctx, identity, false))
	require.False(t, s.IsQuickAggregateQuery)
}

func TestSelectPreparePlanSwitchesToIndexForDistinct(t *testing.T) {
	ctx := sql.NewEmptyContext()
	db := sql.NewSimpleDatabase("test")
	tbl := memtable.NewTable("tags", sql.Schema{{Name: "label", Type: sql.Text}})
	tbl.Insert(sql.NewRow("a"))
	tbl.Insert(sql.NewRow("b"))
	idx := tbl.CreateIndex("by_label", tbl.Schema()[0], true, sql.Ascending)
	idx.SetSelectivity(0.01)
	filter := memtable.NewFilter(tbl, "tags")

	s := NewSelect(db, []sql.Expression{expression.NewGetField(0, sql.Text, "label", false)}, []sql.TableFilter{filter})
	s.Distinct = true
	require.NoError(t, s.Init(ctx))
	s.VisibleColumnCount = 1

	require.NoError(t, s.PreparePlan(ctx))
	require.True(t, s.IsDistinctQuery)
	require.Equal(t, idx, filter.Index())
}

func TestSelectSchemaUsesAliasWhenPresent(t *testing.T) {
	db := sql.NewSimpleDatabase("test")
	aliased := expression.NewAlias("total", expression.NewGetField(0, sql.Int64, "amount", false))
	s := NewSelect(db, []sql.Expression{aliased}, nil)
	s.VisibleColumnCount = 1

	schema := s.Schema()
	require.Len(t, schema, 1)
	require.Equal(t, "total", schema[0].Name)
}
