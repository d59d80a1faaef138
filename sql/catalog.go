package sql

import "strings"

// Database is the catalog root collaborator (spec.md §6). Only the
// handful of knobs the planner/executor actually consults are modeled;
// DDL, users, and schema mutation live in the external command layer.
type Database interface {
	Name() string
	OptimizeReuseResults() bool
	OptimizeInsertFromSelect() bool
	OptimizeDistinct() bool
	OptimizeEvaluatableSubqueries() bool
	EqualsIdentifiers(a, b string) bool
	DefaultNullOrdering() NullOrdering
	MaxColumns() int
	// DefaultSelectivity is the selectivity assumed for a column with no
	// collected statistics. The distinct-via-index heuristic (spec.md
	// §4.1, "selectivity < 20%") reads Index.Selectivity, not this value.
	DefaultSelectivity() float64
}

// simpleDatabase is the reference Database used by tests and by callers
// that don't need per-database overrides.
type simpleDatabase struct {
	name                string
	reuseResults        bool
	insertFromSelect    bool
	distinct            bool
	evaluatableSubquery bool
	nullOrdering        NullOrdering
	maxColumns          int
	defaultSelectivity  float64
}

// NewSimpleDatabase returns a Database collaborator with the engine
// defaults the root Config exposes (SPEC_FULL.md §2 "Configuration").
func NewSimpleDatabase(name string) Database {
	return &simpleDatabase{
		name:               name,
		reuseResults:       true,
		insertFromSelect:   true,
		distinct:           true,
		nullOrdering:       NullsFirst,
		maxColumns:         1000,
		defaultSelectivity: 0.1,
	}
}

func (d *simpleDatabase) Name() string                       { return d.name }
func (d *simpleDatabase) OptimizeReuseResults() bool          { return d.reuseResults }
func (d *simpleDatabase) OptimizeInsertFromSelect() bool      { return d.insertFromSelect }
func (d *simpleDatabase) OptimizeDistinct() bool              { return d.distinct }
func (d *simpleDatabase) OptimizeEvaluatableSubqueries() bool { return d.evaluatableSubquery }
func (d *simpleDatabase) EqualsIdentifiers(a, b string) bool  { return strings.EqualFold(a, b) }
func (d *simpleDatabase) DefaultNullOrdering() NullOrdering   { return d.nullOrdering }
func (d *simpleDatabase) MaxColumns() int                     { return d.maxColumns }
func (d *simpleDatabase) DefaultSelectivity() float64         { return d.defaultSelectivity }

// IndexType distinguishes the scan strategies the planner reasons about
// (spec.md §4.3 "skip scan and hash").
type IndexType int

const (
	IndexTypeBTree IndexType = iota
	IndexTypeHash
	IndexTypeScan // the full-table/row-id scan, always available
)

// IndexColumn is one column participating in an Index, together with
// its declared sort direction (ASC unless stated otherwise).
type IndexColumn struct {
	Column    *Column
	Direction SortDirection
}

// Index is the storage-layer access path collaborator (spec.md §6).
type Index interface {
	Name() string
	Table() string
	IndexType() IndexType
	Columns() []IndexColumn
	ColumnIndex(col *Column) int
	Unique() bool
	IsRowIDIndex() bool
	// Selectivity estimates the fraction of rows a single key value
	// matches; used by the distinct-via-index optimization (§4.1).
	Selectivity() float64
	// Find seeds a scan at the first key >= first (or <= last in a
	// reverse scan); Next/FindNext advance the cursor one row/key.
	Find(ctx *Context, first, last Row) (RowIter, error)
	FindNext(ctx *Context, first, last Row) (RowIter, error)
}

// Table is the storage-layer table collaborator (spec.md §6).
type Table interface {
	Name() string
	Schema() Schema
	RowCountApproximation(ctx *Context) (int64, error)
	GetMaxDataModificationId(ctx *Context) (int64, error)
	ScanIndex(ctx *Context) Index
	IndexForColumn(ctx *Context, col *Column) Index
	Indexes(ctx *Context) []Index
	// IsRowLockable reports whether LockRow is meaningful for this table;
	// derived/virtual tables return false (spec.md §5 FOR UPDATE).
	IsRowLockable() bool
	// LockRow attempts to lock the given row for the duration of the
	// transaction. timeoutMillis follows the ForUpdate sentinel contract
	// (spec.md §5): -1 session default, 0 NOWAIT, >0 WAIT n, -2 SKIP_LOCKED.
	LockRow(ctx *Context, row Row, timeoutMillis int64) error
}

// TableFilter is one FROM source (spec.md §3 "Select", §6). It owns the
// cursor state for a single table scan within a join.
type TableFilter interface {
	Table() Table
	Alias() string
	Schema() Schema
	Index() Index
	SetIndex(idx Index, reverse bool)
	Reverse() bool
	Next(ctx *Context) (Row, error)
	Reset(ctx *Context) error
	// CurrentRow returns the row most recently returned by Next, used by
	// the FOR UPDATE re-evaluation contract (spec.md §5
	// "isConditionMetForUpdate").
	CurrentRow() Row
	SetCurrentRow(Row)
	IsJoinOuter() bool
	// EstimatedRowCount backs the rule-based join-order picker's
	// "smallest first" heuristic (spec.md §4.2).
	EstimatedRowCount(ctx *Context) (int64, error)
	// CreateIndexConditions pushes WHERE conjuncts naming this filter's
	// current index column and a constant into the scan itself (spec.md
	// §4.1, PreparePlan's first step), returning whichever conjuncts it
	// could not consume so the caller still evaluates them as a regular
	// predicate. Called once per non-outer filter before the join-order
	// optimizer runs; outer filters are skipped since a pushed condition
	// there would wrongly suppress the NULL-extended row on no match.
	CreateIndexConditions(ctx *Context, cond Expression) (Expression, error)
}
