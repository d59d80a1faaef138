// Package memtable is a minimal in-memory Table/Index/TableFilter
// reference implementation of the sql package's collaborator
// interfaces (spec.md §6), used only by tests. It mirrors the shape of
// the teacher's memory.NewTable/memory.NewPartitionedTable test
// fixtures referenced throughout sql/plan/*_test.go, trimmed to what
// the planner and executor actually call.
package memtable

import (
	"io"
	"sort"

	"github.com/relixdb/queryengine/sql"
)

// Table is a name, a schema, and a row slice, with zero or more Indexes
// built over it. It carries no partitioning or persistence: every row
// lives in the Rows slice for the lifetime of the process.
type Table struct {
	name        string
	schema      sql.Schema
	Rows        []sql.Row
	indexes     []*Index
	rowCountID  int64 // advances on every row insert, the table's modification-id
	rowLockable bool
	locks       map[int]bool
}

// NewTable builds an empty table with the given schema.
func NewTable(name string, schema sql.Schema) *Table {
	t := &Table{name: name, schema: schema, rowLockable: true, locks: map[int]bool{}}
	t.indexes = []*Index{newRowIDIndex(t)}
	return t
}

func (t *Table) Name() string     { return t.name }
func (t *Table) Schema() sql.Schema { return t.schema }

// Insert appends a row and advances the modification-id, invalidating
// any sorted index order (indexes are recomputed lazily on next scan).
func (t *Table) Insert(row sql.Row) {
	t.Rows = append(t.Rows, row)
	t.rowCountID++
	for _, idx := range t.indexes {
		idx.stale = true
	}
}

func (t *Table) RowCountApproximation(ctx *sql.Context) (int64, error) {
	return int64(len(t.Rows)), nil
}

func (t *Table) GetMaxDataModificationId(ctx *sql.Context) (int64, error) {
	return t.rowCountID, nil
}

func (t *Table) ScanIndex(ctx *sql.Context) sql.Index { return t.indexes[0] }

func (t *Table) IndexForColumn(ctx *sql.Context, col *sql.Column) sql.Index {
	for _, idx := range t.indexes[1:] {
		if len(idx.cols) == 1 && idx.cols[0].Column.Name == col.Name {
			return idx
		}
	}
	return nil
}

func (t *Table) Indexes(ctx *sql.Context) []sql.Index {
	out := make([]sql.Index, len(t.indexes))
	for i, idx := range t.indexes {
		out[i] = idx
	}
	return out
}

func (t *Table) IsRowLockable() bool { return t.rowLockable }

// SetRowLockable lets a test disable row locking to exercise the
// "derived/virtual table" FOR UPDATE branch (spec.md §5).
func (t *Table) SetRowLockable(v bool) { t.rowLockable = v }

// LockRow implements the sentinel-timeout contract of spec.md §5: a row
// already in t.locks is contended; DEFAULT/WAIT/NOWAIT all fail
// immediately in this in-memory stand-in (there is no second session to
// actually wait on), SKIP_LOCKED's caller is expected to treat a
// LockTimeout as "skip" per the ForUpdate contract.
func (t *Table) LockRow(ctx *sql.Context, row sql.Row, timeoutMillis int64) error {
	idx := t.rowIndexOf(row)
	if idx < 0 {
		return nil
	}
	if t.locks[idx] {
		return errLockTimeout
	}
	t.locks[idx] = true
	return nil
}

// Unlock releases every row lock this table holds, used by tests between
// scenarios to simulate a new transaction.
func (t *Table) Unlock() { t.locks = map[int]bool{} }

func (t *Table) rowIndexOf(row sql.Row) int {
	for i, r := range t.Rows {
		if rowEquals(r, row) {
			return i
		}
	}
	return -1
}

func rowEquals(a, b sql.Row) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// CreateIndex builds a sorted secondary index over the named column.
func (t *Table) CreateIndex(name string, col *sql.Column, unique bool, dir sql.SortDirection) *Index {
	idx := &Index{
		table: t,
		name:  name,
		cols:  []sql.IndexColumn{{Column: col, Direction: dir}},
		typ:   sql.IndexTypeBTree,
		unique: unique,
		selectivity: 0.1,
	}
	t.indexes = append(t.indexes, idx)
	return idx
}

// Index is a sorted view over a Table's rows keyed by one or more
// columns. The "sort" is recomputed lazily (stale flag) rather than
// maintained incrementally, since this package exists only to give
// tests something to plan and execute against.
type Index struct {
	table       *Table
	name        string
	cols        []sql.IndexColumn
	typ         sql.IndexType
	unique      bool
	selectivity float64
	order       []int // row positions in index order
	stale       bool
	isRowID     bool
}

func newRowIDIndex(t *Table) *Index {
	return &Index{table: t, name: "PRIMARY", typ: sql.IndexTypeScan, isRowID: true, unique: true}
}

func (i *Index) Name() string             { return i.name }
func (i *Index) Table() string            { return i.table.name }
func (i *Index) IndexType() sql.IndexType { return i.typ }
func (i *Index) Columns() []sql.IndexColumn { return i.cols }
func (i *Index) Unique() bool             { return i.unique }
func (i *Index) IsRowIDIndex() bool       { return i.isRowID }
func (i *Index) Selectivity() float64     { return i.selectivity }

// SetSelectivity lets a test set up the distinct-via-index scenario of
// spec.md §4.1 (selectivity < 20%).
func (i *Index) SetSelectivity(s float64) { i.selectivity = s }

func (i *Index) ColumnIndex(col *sql.Column) int {
	for ci, c := range i.table.schema {
		if c.Name == col.Name {
			return ci
		}
	}
	return -1
}

func (i *Index) ensureSorted(ctx *sql.Context) error {
	if !i.stale && i.order != nil {
		return nil
	}
	order := make([]int, len(i.table.Rows))
	for p := range order {
		order[p] = p
	}
	if !i.isRowID {
		positions := make([]int, len(i.cols))
		for ci, c := range i.cols {
			positions[ci] = i.ColumnIndex(c.Column)
		}
		sort.SliceStable(order, func(a, b int) bool {
			ra, rb := i.table.Rows[order[a]], i.table.Rows[order[b]]
			for ci, pos := range positions {
				c, err := ctx.Compare(ra[pos], rb[pos], i.cols[ci].Column.Type, sql.NullsFirst)
				if err != nil {
					continue
				}
				if i.cols[ci].Direction == sql.Descending {
					c = -c
				}
				if c != 0 {
					return c < 0
				}
			}
			return false
		})
	}
	i.order = order
	i.stale = false
	return nil
}

// Find seeds a scan at the first row whose key is >= first (spec.md §6
// "Index"); nil first means "start of the index".
func (i *Index) Find(ctx *sql.Context, first, last sql.Row) (sql.RowIter, error) {
	return i.scan(ctx, first, last, false, false)
}

// FindNext is Find's sibling used by the distinct-via-index executor
// (spec.md §4.4): seeded by the last observed value, it seeks strictly
// past that value (unlike Find's inclusive seek) and returns at most one
// row, so repeated calls walk one distinct key at a time.
func (i *Index) FindNext(ctx *sql.Context, first, last sql.Row) (sql.RowIter, error) {
	return i.scan(ctx, first, last, true, first != nil)
}

func (i *Index) scan(ctx *sql.Context, first, last sql.Row, nextOnly, exclusive bool) (sql.RowIter, error) {
	if err := i.ensureSorted(ctx); err != nil {
		return nil, err
	}
	start := 0
	if first != nil && !i.isRowID {
		pos := i.ColumnIndex(i.cols[0].Column)
		for idx, p := range i.order {
			c, err := ctx.Compare(i.table.Rows[p][pos], first[0], i.cols[0].Column.Type, sql.NullsFirst)
			if err != nil {
				return nil, err
			}
			if exclusive {
				if c > 0 {
					start = idx
					break
				}
			} else if c >= 0 {
				start = idx
				break
			}
			start = idx + 1
		}
	}
	return &indexIter{table: i.table, order: i.order, pos: start, single: nextOnly}, nil
}

type indexIter struct {
	table  *Table
	order  []int
	pos    int
	single bool
}

func (it *indexIter) Next(ctx *sql.Context) (sql.Row, error) {
	if it.pos >= len(it.order) {
		return nil, io.EOF
	}
	row := it.table.Rows[it.order[it.pos]]
	it.pos++
	if it.single {
		it.pos = len(it.order) // FindNext answers exactly one row per call
	}
	return row, nil
}

func (it *indexIter) Close(ctx *sql.Context) error { return nil }
