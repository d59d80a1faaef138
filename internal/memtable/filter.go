package memtable

import (
	"io"

	"github.com/relixdb/queryengine/queryerr"
	"github.com/relixdb/queryengine/sql"
	"github.com/relixdb/queryengine/sql/expression"
)

// errLockTimeout is returned by Table.LockRow on contention; it carries
// the same identity tests assert against via queryerr.ErrLockTimeout.Is.
var errLockTimeout = queryerr.ErrLockTimeout.New()

// Filter is the sql.TableFilter reference implementation: one FROM
// source scanning a Table through whichever Index the planner chose
// (spec.md §6 "TableFilter").
type Filter struct {
	table       *Table
	alias       string
	index       sql.Index
	reverse     bool
	iter        sql.RowIter
	currentRow  sql.Row
	joinOuter   bool
	rowCountHint int64 // -1 means "ask the table"

	seekSet   bool        // an index condition set this scan's starting key
	seekValue interface{} // the starting key value, compared against the index's sole column
}

// NewFilter wraps table as a FROM source under the given alias, scanning
// through the row-id index by default.
func NewFilter(table *Table, alias string) *Filter {
	return &Filter{table: table, alias: alias, index: table.indexes[0], rowCountHint: -1}
}

func (f *Filter) Table() sql.Table  { return f.table }
func (f *Filter) Alias() string     { return f.alias }
func (f *Filter) Schema() sql.Schema { return f.table.schema }
func (f *Filter) Index() sql.Index  { return f.index }
func (f *Filter) Reverse() bool     { return f.reverse }

func (f *Filter) SetIndex(idx sql.Index, reverse bool) {
	f.index = idx
	f.reverse = reverse
	f.iter = nil
	f.seekSet = false
	f.seekValue = nil
}

// CreateIndexConditions implements sql.TableFilter's index-condition
// pushdown (spec.md §4.1): a top-level equality conjunct naming the
// filter's current index column and a constant seeds Next's scan at
// that key, so rows before it are skipped. The scan has no upper bound:
// rows after the key are still returned, and the re-checked predicate
// drops them. At most one such conjunct is consumed per call; every other conjunct,
// consumed or not, is returned unmodified so the caller keeps
// evaluating the overall predicate (the pushed equality is redundant
// but still correct to re-check row by row).
func (f *Filter) CreateIndexConditions(ctx *sql.Context, cond sql.Expression) (sql.Expression, error) {
	if cond == nil {
		return nil, nil
	}
	idx, ok := f.index.(*Index)
	if !ok || len(idx.cols) != 1 {
		return cond, nil
	}
	colName := idx.cols[0].Column.Name

	for _, term := range expression.SplitConjunction(cond) {
		lit, found := columnEqualsConstant(term, colName, f.alias)
		if !found {
			continue
		}
		v, err := lit.Eval(ctx, nil)
		if err != nil {
			return nil, err
		}
		f.seekValue = v
		f.seekSet = true
		break
	}
	return cond, nil
}

// columnEqualsConstant reports whether term is `col = constant` (in
// either operand order) where col names this filter's column, and
// returns the constant-valued side.
func columnEqualsConstant(term sql.Expression, colName, alias string) (sql.Expression, bool) {
	eq, ok := term.(*expression.Equals)
	if !ok || eq.Cmp() != expression.CmpEq {
		return nil, false
	}
	pairs := [2][2]sql.Expression{{eq.Left(), eq.Right()}, {eq.Right(), eq.Left()}}
	for _, p := range pairs {
		col, ok := p[0].(sql.ColumnExpression)
		if !ok || col.ColumnName() != colName {
			continue
		}
		if col.TableSource() != "" && col.TableSource() != alias {
			continue
		}
		if expression.IsConstant(p[1]) {
			return p[1], true
		}
	}
	return nil, false
}

// SetEstimatedRowCount overrides the row-count estimate the join-order
// picker and cost-based Optimizer consult (spec.md §4.2); tests use this
// to script a specific join order without needing real cardinality.
func (f *Filter) SetEstimatedRowCount(n int64) { f.rowCountHint = n }

func (f *Filter) EstimatedRowCount(ctx *sql.Context) (int64, error) {
	if f.rowCountHint >= 0 {
		return f.rowCountHint, nil
	}
	return f.table.RowCountApproximation(ctx)
}

func (f *Filter) IsJoinOuter() bool   { return f.joinOuter }
func (f *Filter) SetJoinOuter(v bool) { f.joinOuter = v }

func (f *Filter) CurrentRow() Row       { return f.currentRow }
func (f *Filter) SetCurrentRow(r Row)   { f.currentRow = r }

func (f *Filter) Reset(ctx *sql.Context) error {
	f.iter = nil
	f.currentRow = nil
	return nil
}

// Next advances the underlying index scan one row (spec.md §6
// "TableFilter.next()").
func (f *Filter) Next(ctx *sql.Context) (sql.Row, error) {
	if f.iter == nil {
		idx, ok := f.index.(*Index)
		if !ok {
			return nil, io.EOF
		}
		var first, last sql.Row
		if f.seekSet {
			first = sql.Row{f.seekValue}
			last = sql.Row{f.seekValue}
		}
		iter, err := idx.scan(ctx, first, last, false, false)
		if err != nil {
			return nil, err
		}
		if f.reverse {
			iter, err = reversed(ctx, iter)
			if err != nil {
				return nil, err
			}
		}
		f.iter = iter
	}
	row, err := f.iter.Next(ctx)
	if err != nil {
		return nil, err
	}
	f.currentRow = row
	return row, nil
}

// Row is an alias kept local so Filter's method signatures read like the
// rest of this package without importing sql twice under two names.
type Row = sql.Row

func reversed(ctx *sql.Context, iter sql.RowIter) (sql.RowIter, error) {
	rows, err := sql.RowsToSlice(ctx, iter)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return sql.NewSliceIter(rows), nil
}
