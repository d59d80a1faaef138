// Package rowexec turns a prepared plan.QueryNode into a sql.RowIter:
// the execution-mode producers of spec.md §4.4 (quick aggregate, flat,
// distinct-via-index, group hashed/sorted, window, set operations, table
// value constructor) plus the common OFFSET/FETCH/WITH TIES finishing
// path. Selection between modes is by precedence, exactly as spec.md
// §4.4 states: "quick-aggregate ≻ window ... ≻ group ... ≻
// distinct-via-index ≻ flat".
//
// This mirrors the teacher's plan/rowexec package split: sql/plan
// defines the logical nodes (package plan, in this core), sql/rowexec
// builds the iterators that run them (this package).
package rowexec

import (
	"io"

	"github.com/opentracing/opentracing-go"

	"github.com/relixdb/queryengine/cache"
	"github.com/relixdb/queryengine/plan"
	"github.com/relixdb/queryengine/queryerr"
	"github.com/relixdb/queryengine/sql"
)

// Query executes q and returns a RowIter, or drains into target and
// returns (nil, nil) when the caller supplied a ResultTarget (spec.md
// §4.4 "finishing rules: when the caller supplies a ResultTarget, the
// finish path drains into it and returns no result"). When q's
// CachePolicy permits it (spec.md §4.5), a prior result reusable under
// the session's current statement modification id is returned without
// rebuilding the producer at all; otherwise the fresh result is
// materialized and stored for the next call.
func Query(ctx *sql.Context, q plan.QueryNode, limit int64, hasLimit bool, target plan.ResultTarget) (sql.RowIter, error) {
	span, ctx2 := startSpan(ctx, "query.execute")
	defer span.Finish()

	sessionModID := sessionStatementModID(ctx2)
	if q.CachingEnabled() {
		key := cache.Key{Params: q.Params(), Limit: limit, HasLimit: hasLimit}
		if rows, ok := q.CacheLookup(key, sessionModID); ok {
			span.SetTag("cache.hit", true)
			return drain(ctx2, sql.NewSliceIter(rows), target)
		}
		span.SetTag("cache.hit", false)
	}

	iter, err := build(ctx2, q, limit, hasLimit)
	if err != nil {
		span.SetTag("error", true)
		return nil, err
	}

	if !q.CachingEnabled() {
		return drain(ctx2, iter, target)
	}

	rows, err := sql.RowsToSlice(ctx2, iter)
	if err != nil {
		span.SetTag("error", true)
		return nil, err
	}
	maxMod, err := q.MaxObservedModificationId(ctx2)
	if err != nil {
		span.SetTag("error", true)
		return nil, err
	}
	key := cache.Key{Params: q.Params(), Limit: limit, HasLimit: hasLimit}
	q.CacheStore(key, rows, maxMod, sessionModID)
	return drain(ctx2, sql.NewSliceIter(rows), target)
}

// sessionStatementModID reads the enclosing session's modification-id
// ceiling, or 0 for a Context with no Session (tests, and any caller
// that never advertises a session's mutation state).
func sessionStatementModID(ctx *sql.Context) int64 {
	if ctx.Session == nil {
		return 0
	}
	return ctx.Session.GetStatementModificationDataId()
}

// drain either hands iter back to the caller, or fully drains it into
// target and returns (nil, nil) (spec.md §4.4 "finishing rules").
func drain(ctx *sql.Context, iter sql.RowIter, target plan.ResultTarget) (sql.RowIter, error) {
	if target == nil {
		return iter, nil
	}
	for {
		row, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			_ = iter.Close(ctx)
			return nil, err
		}
		if err := target.Append(ctx, row); err != nil {
			_ = iter.Close(ctx)
			return nil, err
		}
	}
	return nil, iter.Close(ctx)
}

func startSpan(ctx *sql.Context, op string) (opentracing.Span, *sql.Context) {
	span, goCtx := opentracing.StartSpanFromContext(ctx, op)
	cp := *ctx
	cp.Context = goCtx
	return span, &cp
}

func build(ctx *sql.Context, q plan.QueryNode, limit int64, hasLimit bool) (sql.RowIter, error) {
	var (
		iter sql.RowIter
		err  error
	)
	switch n := q.(type) {
	case *plan.Select:
		iter, err = buildSelect(ctx, n, limit, hasLimit)
	case *plan.SelectUnion:
		iter, err = buildUnion(ctx, n, limit, hasLimit)
	case *plan.TableValueConstructor:
		iter, err = buildTableValueConstructor(ctx, n, limit, hasLimit)
	default:
		return nil, queryerr.ErrInternal.New("rowexec: unsupported query node type")
	}
	if err != nil || !hasLimit {
		return iter, err
	}
	return &capIter{src: iter, remaining: limit}, nil
}

// capIter enforces the caller-supplied query(limit, target) ceiling
// (spec.md §3 "query(limit,target)") on top of whatever FETCH the query
// itself carries; the smaller of the two wins. EXISTS uses this with
// limit=1 to implement spec.md §8's "exists(Q) = query(Q,1).next()==true"
// without draining the rest of the producer.
type capIter struct {
	src       sql.RowIter
	remaining int64
}

func (c *capIter) Next(ctx *sql.Context) (sql.Row, error) {
	if c.remaining <= 0 {
		return nil, io.EOF
	}
	row, err := c.src.Next(ctx)
	if err == nil {
		c.remaining--
	}
	return row, err
}

func (c *capIter) Close(ctx *sql.Context) error { return c.src.Close(ctx) }

// Exists implements spec.md §8's "EXISTS equivalence": exists(Q) =
// (query(Q, 1).next() == true), consulting and populating q's separate
// ExistsCache slot per spec.md §4.5 ("EXISTS has its own separate
// last-verdict cache with identical rules").
func Exists(ctx *sql.Context, q plan.QueryNode) (bool, error) {
	sessionModID := sessionStatementModID(ctx)
	key := cache.Key{Params: q.Params(), Limit: 1, HasLimit: true}
	if q.CachingEnabled() {
		if verdict, ok := q.ExistsLookup(key, sessionModID); ok {
			return verdict, nil
		}
	}

	iter, err := build(ctx, q, 1, true)
	if err != nil {
		return false, err
	}
	defer iter.Close(ctx)
	_, err = iter.Next(ctx)
	verdict := true
	if err == io.EOF {
		verdict = false
	} else if err != nil {
		return false, err
	}

	if q.CachingEnabled() {
		maxMod, err := q.MaxObservedModificationId(ctx)
		if err != nil {
			return false, err
		}
		q.ExistsStore(key, verdict, maxMod, sessionModID)
	}
	return verdict, nil
}
