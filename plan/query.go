package plan

import (
	"github.com/relixdb/queryengine/cache"
	"github.com/relixdb/queryengine/sql"
	uuid "github.com/satori/go.uuid"
)

// QueryNode is what Select, SelectUnion, and TableValueConstructor all
// satisfy: a runnable, schema-carrying node that also knows how to
// participate in outer-query correlation pushdown (spec.md §4.6) and in
// FOR UPDATE propagation (spec.md §3 "SelectUnion ... shared ForUpdate
// propagates to both"). This is the interface spec.md §9 describes as
// "shared mutable fields via struct composition" — QueryNode is the
// public contract; Base below is the composed struct every
// implementation embeds.
// Execution (RowIter/query()) is deliberately not part of this
// interface: it lives in package rowexec, which imports plan and
// type-switches over concrete node types (*Select, *SelectUnion,
// *TableValueConstructor) to build the right producer — the same
// plan/rowexec split the teacher uses (sql/plan defines nodes,
// sql/rowexec executes them).
type QueryNode interface {
	sql.Node
	// AddGlobalCondition pushes an outer WHERE comparison into this
	// query (spec.md §4.6). column is nil when the referenced expression
	// isn't comparable as a whole-row predicate, in which case the
	// always-true constant `1 = 1` is pushed instead and param is unused.
	AddGlobalCondition(ctx *sql.Context, column, param sql.Expression, columnID int) error
	// AllowGlobalConditions reports whether pushdown is currently safe;
	// false when OFFSET/FETCH/DISTINCT-ON prevent it (spec.md §4.6).
	AllowGlobalConditions() bool
	SetForUpdate(fu *ForUpdate)
	GetForUpdate() *ForUpdate

	// Params returns the bound parameter values this query would be
	// evaluated with, part of the result-cache key (spec.md §4.5).
	Params() []interface{}
	// MaxObservedModificationId is the highest table modification-id this
	// query's dependencies have reached (spec.md §4.5); the cache records
	// it and compares it against the session's statement modification id
	// on every subsequent Lookup.
	MaxObservedModificationId(ctx *sql.Context) (int64, error)
	// CachingEnabled reports whether this query's CachePolicy permits
	// reusing a prior result at all (spec.md §4.5).
	CachingEnabled() bool
	CacheLookup(key cache.Key, sessionStatementModID int64) ([]sql.Row, bool)
	CacheStore(key cache.Key, rows []sql.Row, maxModification, sessionStatementModID int64)
	ExistsLookup(key cache.Key, sessionStatementModID int64) (bool, bool)
	ExistsStore(key cache.Key, verdict bool, maxModification, sessionStatementModID int64)
}

// ResultTarget is the sink a caller may supply instead of receiving a
// RowIter (spec.md §4.4 "finishing rules"); the finish path drains into
// it and returns no result.
type ResultTarget interface {
	Append(ctx *sql.Context, row sql.Row) error
}

// CTE is one WITH-clause entry: insertion order matters (iteration must
// match declaration order) and some entries are recursive (spec.md §3).
type CTE struct {
	Name      string
	Query     QueryNode
	Recursive bool
}

// Base holds every field spec.md §3 "Query (abstract)" describes as
// shared across Select/SelectUnion/TableValueConstructor. Concrete node
// types embed Base by value and layer their own fields/methods on top —
// the "shared struct composition" form spec.md §9 recommends over a
// class hierarchy.
type Base struct {
	ID uuid.UUID

	// Expressions is the projected list, extended with ORDER BY/DISTINCT
	// helper columns, then HAVING, then QUALIFY (spec.md §3).
	Expressions []sql.Expression
	// ExprArray is a snapshot of Expressions for fast indexed access,
	// rebuilt whenever Expressions is mutated (spec.md §3).
	ExprArray []sql.Expression

	OrderBy   []QueryOrderBy
	SortOrder sql.SortFields

	OffsetFetch OffsetFetch

	Distinct           bool
	RandomAccessResult bool

	VisibleColumnCount int
	ResultColumnCount  int

	prepared  bool
	checkInit bool

	OuterQuery *Base

	With []CTE

	ForUpdate *ForUpdate

	// resultCache/existsCache are this query's private cache slots
	// (spec.md §4.5), both gated on CachePolicy. ResultCache matches on
	// parameters and limit; ExistsCache matches on parameters only.
	ResultCache cache.ResultCache
	ExistsCache cache.ExistsCache
	CachePolicy cache.Policy
}

// NewBase returns a zero-valued Base with a fresh id, the one field that
// must never be the zero value (spec.md "Base.ID"). The id is assigned
// here, when the node is constructed.
func NewBase() Base {
	return Base{ID: uuid.NewV4()}
}

// MarkInitialized enforces the one-shot semantics of init() (spec.md
// §4.1 "idempotency enforced by a one-shot flag"): returns true the
// first time it's called, false on every subsequent call so the caller
// can skip re-running init().
func (b *Base) MarkInitialized() (first bool) {
	if b.checkInit {
		return false
	}
	b.checkInit = true
	return true
}

func (b *Base) Prepared() bool      { return b.prepared }
func (b *Base) MarkPrepared()       { b.prepared = true }

// RebuildExprArray refreshes the ExprArray snapshot after Expressions
// was mutated; called at the end of init() and prepareExpressions()
// (spec.md §3 invariant).
func (b *Base) RebuildExprArray() {
	b.ExprArray = make([]sql.Expression, len(b.Expressions))
	copy(b.ExprArray, b.Expressions)
}

// AllowGlobalConditions is false exactly when OFFSET/FETCH or DISTINCT
// ON prevent safely pushing an outer correlation into this query
// (spec.md §4.6).
func (b *Base) AllowGlobalConditions(hasDistinctOn bool) bool {
	if b.OffsetFetch.Offset != nil || b.OffsetFetch.Fetch != nil {
		return false
	}
	return !hasDistinctOn
}

func (b *Base) SetForUpdate(fu *ForUpdate) { b.ForUpdate = fu }
func (b *Base) GetForUpdate() *ForUpdate   { return b.ForUpdate }

// Params is Base's default: no bound parameters. AddGlobalCondition's
// pushed correlation (spec.md §4.6) splices a literal into the WHERE
// tree rather than tracking a separate parameter list, so every
// concrete node inherits this unless it has its own parameters to
// report.
func (b *Base) Params() []interface{} { return nil }

// MaxObservedModificationId is Base's default of 0, correct for a node
// with no table dependency (TableValueConstructor); Select and
// SelectUnion override it to walk their actual Filters/branches.
func (b *Base) MaxObservedModificationId(ctx *sql.Context) (int64, error) { return 0, nil }

// CachingEnabled reports whether CachePolicy currently permits reusing a
// prior result (spec.md §4.5).
func (b *Base) CachingEnabled() bool {
	return b.CachePolicy.Enabled && b.CachePolicy.Deterministic
}

// CacheLookup/CacheStore/ExistsLookup/ExistsStore delegate to this
// query's private cache slots (spec.md §4.5, "two independent caches
// exist per Query").
func (b *Base) CacheLookup(key cache.Key, sessionStatementModID int64) ([]sql.Row, bool) {
	return b.ResultCache.Lookup(b.CachePolicy, key, sessionStatementModID)
}

func (b *Base) CacheStore(key cache.Key, rows []sql.Row, maxModification, sessionStatementModID int64) {
	b.ResultCache.Store(key, rows, maxModification, sessionStatementModID)
}

func (b *Base) ExistsLookup(key cache.Key, sessionStatementModID int64) (bool, bool) {
	return b.ExistsCache.Lookup(b.CachePolicy, key, sessionStatementModID)
}

func (b *Base) ExistsStore(key cache.Key, verdict bool, maxModification, sessionStatementModID int64) {
	b.ExistsCache.Store(key, verdict, maxModification, sessionStatementModID)
}
