package plan

import (
	"fmt"

	"github.com/relixdb/queryengine/queryerr"
	"github.com/relixdb/queryengine/sql"
	"github.com/relixdb/queryengine/sql/expression"
)

// TableValueConstructor is an in-line `VALUES (...), (...)` table (spec.md
// §2, §3). Every row must share the same arity; the synthesized schema
// exposes columns C1..Cn whose types are the pairwise higher-type across
// rows (spec.md §3 "column types are the pairwise higher-type across
// rows"), mirroring the widening SelectUnion applies across its two
// sides (spec.md §4.7).
type TableValueConstructor struct {
	Base

	// Rows is the non-empty ordered sequence of same-arity expression
	// rows as parsed (spec.md §3 "TableValueConstructor").
	Rows [][]sql.Expression

	db sql.Database
}

// NewTableValueConstructor builds a TableValueConstructor over rows, all
// of which must have the same arity. Returns an error otherwise (the
// binder is expected to have already caught this, but the core doesn't
// trust its collaborators blindly).
func NewTableValueConstructor(db sql.Database, rows [][]sql.Expression) (*TableValueConstructor, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("plan: TableValueConstructor requires at least one row")
	}
	arity := len(rows[0])
	for _, r := range rows {
		if len(r) != arity {
			return nil, queryerr.ErrColumnCountDoesNotMatch.New(arity, len(r))
		}
	}

	tvc := &TableValueConstructor{
		Base: NewBase(),
		Rows: rows,
		db:   db,
	}
	tvc.VisibleColumnCount = arity
	tvc.ResultColumnCount = arity
	tvc.CachePolicy.Enabled = db.OptimizeReuseResults()
	tvc.CachePolicy.Deterministic = true
	return tvc, nil
}

func (t *TableValueConstructor) Resolved() bool {
	for _, row := range t.Rows {
		for _, e := range row {
			if !e.Resolved() {
				return false
			}
		}
	}
	return true
}

// Schema synthesizes C1..Cn columns (spec.md §3), widening each column's
// type to the pairwise higher-type across every row (SPEC_FULL.md §3
// reuse of HigherType for VALUES row coercion).
func (t *TableValueConstructor) Schema() sql.Schema {
	arity := len(t.Rows[0])
	schema := make(sql.Schema, arity)
	for i := 0; i < arity; i++ {
		var typ sql.Type
		for _, row := range t.Rows {
			typ = sql.HigherType(typ, row[i].Type())
		}
		schema[i] = &sql.Column{Name: fmt.Sprintf("C%d", i+1), Type: typ, Nullable: true}
	}
	return schema
}

func (t *TableValueConstructor) Children() []sql.Node { return nil }
func (t *TableValueConstructor) String() string        { return "TableValueConstructor" }

// AddGlobalCondition is a no-op: a VALUES constructor has no WHERE/
// HAVING/QUALIFY to push into (spec.md §4.6 only names flat/window/group
// queries as pushdown targets).
func (t *TableValueConstructor) AddGlobalCondition(ctx *sql.Context, column, param sql.Expression, columnID int) error {
	return nil
}

// AllowGlobalConditions is always false: there is nothing for the outer
// query to correlate into (matches the no-op AddGlobalCondition above).
func (t *TableValueConstructor) AllowGlobalConditions() bool { return false }

// RowAt evaluates the expressions of row i and coerces them to the
// harmonized schema, the per-row step the common OFFSET/FETCH/ORDER BY/
// WITH TIES finishing path in package rowexec drives (spec.md §4.4
// "Table value constructor").
func (t *TableValueConstructor) RowAt(ctx *sql.Context, i int) (sql.Row, error) {
	exprs := t.Rows[i]
	schema := t.Schema()
	row := make(sql.Row, len(exprs))
	for ci, e := range exprs {
		v, err := e.Eval(ctx, nil)
		if err != nil {
			return nil, err
		}
		if v != nil && e.Type() != schema[ci].Type {
			v, err = expression.CastTo(v, schema[ci].Type)
			if err != nil {
				return nil, err
			}
		}
		row[ci] = v
	}
	return row, nil
}

// RowCount returns the number of VALUES rows.
func (t *TableValueConstructor) RowCount() int { return len(t.Rows) }
