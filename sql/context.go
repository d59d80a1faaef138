package sql

import (
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// NullOrdering controls where NULL sorts relative to non-NULL values
// when an ORDER BY element doesn't say explicitly (spec.md §4.3).
type NullOrdering int

const (
	NullsFirst NullOrdering = iota
	NullsLast
	// NullOrderingLow/High mirror the teacher's LOW/HIGH database-default
	// modes: NULL behaves as the lowest (resp. highest) possible value of
	// the column's type rather than an absolute first/last.
	NullOrderingLow
	NullOrderingHigh
)

// SortDirection is ASC or DESC.
type SortDirection int

const (
	Ascending SortDirection = iota
	Descending
)

// Session is the subset of the enclosing engine session the query core
// depends on (spec.md §6 "Session"). A production embedder implements
// this against its real connection/session object.
type Session interface {
	ID() uint32
	GetStatementModificationDataId() int64
	GetSnapshotDataModificationId() int64
	IsLazyQueryExecution() bool
	SetLazyQueryExecution(bool)
	GetCancel() <-chan struct{}
	Compare(a, b interface{}, t Type) (int, error)
	GetLockTimeoutMillis() int64
}

// Context threads cancellation, logging and the active Session through
// every planner and executor call, the same role *sql.Context plays in
// the teacher (engine.go takes *sql.Context as its first argument
// everywhere).
type Context struct {
	context.Context
	Session Session
	logger  *logrus.Entry
	cancel  atomic.Bool
}

// NewContext wraps a Go context and session into a query Context.
func NewContext(parent context.Context, session Session) *Context {
	if parent == nil {
		parent = context.Background()
	}
	return &Context{
		Context: parent,
		Session: session,
		logger:  logrus.WithField("component", "queryengine"),
	}
}

// NewEmptyContext returns a Context with no session, for tests that
// don't exercise cache/lock behavior. Named after the teacher's
// sql.NewEmptyContext() used pervasively in sql/plan/*_test.go.
func NewEmptyContext() *Context {
	return NewContext(context.Background(), nil)
}

// GetLogger returns the structured logger for this context, mirroring
// ctx.GetLogger() in engine.go.
func (c *Context) GetLogger() *logrus.Entry {
	return c.logger
}

// WithLogger returns a copy of the Context carrying the given logger
// fields merged in. Nothing in the planner or executor calls it.
func (c *Context) WithLogger(fields logrus.Fields) *Context {
	cp := *c
	cp.logger = c.logger.WithFields(fields)
	return &cp
}

// Canceled reports whether the session asked this query to stop
// (spec.md §5 "Cancellation"); checked at row-advance points.
func (c *Context) Canceled() bool {
	if c.cancel.Load() {
		return true
	}
	if c.Session == nil {
		return false
	}
	select {
	case <-c.Session.GetCancel():
		c.cancel.Store(true)
		return true
	default:
		return false
	}
}

// Compare delegates to the session when present, and otherwise falls
// back to the type's own total-order comparator plus NullOrdering
// handling (SPEC_FULL.md §4, "Value total-ordering comparator").
func (c *Context) Compare(a, b interface{}, t Type, no NullOrdering) (int, error) {
	if a == nil && b == nil {
		return 0, nil
	}
	if a == nil || b == nil {
		return compareNulls(a == nil, no), nil
	}
	if c.Session != nil {
		return c.Session.Compare(a, b, t)
	}
	return t.Compare(a, b)
}

func compareNulls(aIsNull bool, no NullOrdering) int {
	nullsFirst := no == NullsFirst || no == NullOrderingLow
	if aIsNull {
		if nullsFirst {
			return -1
		}
		return 1
	}
	if nullsFirst {
		return 1
	}
	return -1
}
