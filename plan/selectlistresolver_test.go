package plan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relixdb/queryengine/sql"
	"github.com/relixdb/queryengine/sql/expression"
)

// fakeIdentifier stands in for the parser's pre-binding bare-identifier
// node (e.g. `total` in `HAVING total > 5`).
type fakeIdentifier struct{ name string }

func (f fakeIdentifier) Resolved() bool             { return false }
func (f fakeIdentifier) Type() sql.Type             { return nil }
func (f fakeIdentifier) Children() []sql.Expression { return nil }
func (f fakeIdentifier) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	return nil, nil
}
func (f fakeIdentifier) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	return f, nil
}
func (f fakeIdentifier) String() string         { return f.name }
func (f fakeIdentifier) IdentifierName() string { return f.name }

func TestSelectListColumnResolverRewritesAliasReference(t *testing.T) {
	db := sql.NewSimpleDatabase("test")
	total := expression.NewAlias("total", expression.NewGetFieldWithTable(0, sql.Int64, "e", "amount", false))
	r := NewSelectListColumnResolver(db, []sql.Expression{total})

	resolved := r.Resolve(fakeIdentifier{name: "total"})
	gf, ok := resolved.(*expression.GetField)
	require.True(t, ok)
	require.Equal(t, 0, gf.Index())
}

func TestSelectListColumnResolverLeavesUnmatchedIdentifierAlone(t *testing.T) {
	db := sql.NewSimpleDatabase("test")
	total := expression.NewAlias("total", expression.NewGetFieldWithTable(0, sql.Int64, "e", "amount", false))
	r := NewSelectListColumnResolver(db, []sql.Expression{total})

	id := fakeIdentifier{name: "unknown"}
	resolved := r.Resolve(id)
	require.Equal(t, id, resolved)
}

func TestSelectListColumnResolverRecursesIntoChildren(t *testing.T) {
	db := sql.NewSimpleDatabase("test")
	total := expression.NewAlias("total", expression.NewGetFieldWithTable(0, sql.Int64, "e", "amount", false))
	r := NewSelectListColumnResolver(db, []sql.Expression{total})

	cmp := expression.NewComparison(fakeIdentifier{name: "total"}, expression.NewLiteral(int64(5), sql.Int64), expression.CmpGt)
	resolved := r.Resolve(cmp)

	eq, ok := resolved.(*expression.Equals)
	require.True(t, ok)
	gf, ok := eq.Left().(*expression.GetField)
	require.True(t, ok)
	require.Equal(t, 0, gf.Index())
}

func TestSelectListColumnResolverLeavesPlainColumnsAlone(t *testing.T) {
	db := sql.NewSimpleDatabase("test")
	r := NewSelectListColumnResolver(db, nil)

	col := expression.NewGetField(0, sql.Int64, "id", false)
	resolved := r.Resolve(col)
	require.Equal(t, col, resolved)
}
