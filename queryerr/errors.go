// Package queryerr defines the error taxonomy for the query engine core.
//
// Every error kind is a gopkg.in/src-d/go-errors.v1 Kind, the same
// pattern the teacher engine uses for its own sql.Err* variables
// (sql.ErrUnsupportedFeature, sql.ErrReadOnly, ...): callers compare
// against the Kind, not against a formatted string.
package queryerr

import errors "gopkg.in/src-d/go-errors.v1"

// Schema errors.
var (
	ErrTableOrViewNotFound                      = errors.NewKind("table or view not found: %s")
	ErrColumnCountDoesNotMatch                   = errors.NewKind("union column count mismatch: left has %d, right has %d")
	ErrOrderByNotInResult                       = errors.NewKind("order by term %q does not appear in the result columns and DISTINCT is active")
	ErrAmbiguousColumn                          = errors.NewKind("ambiguous column name %q")
	ErrWithTiesWithoutOrderBy                   = errors.NewKind("WITH TIES requires an ORDER BY clause")
	ErrTooManyColumns                           = errors.NewKind("select list expands to %d columns, exceeding the limit of %d")
	ErrForUpdateNotAllowedInDistinctOrGroupedSelect = errors.NewKind("FOR UPDATE is not allowed on a DISTINCT or GROUP BY query")
	ErrUnknownTableAlias                        = errors.NewKind("unknown table alias %q in qualified wildcard")
	ErrNoValidJoinOrder                         = errors.NewKind("no valid join order without a cartesian product")
)

// Value errors.
var (
	ErrInvalidValue         = errors.NewKind("invalid value for %s: %v")
	ErrFeatureNotSupported  = errors.NewKind("feature not supported: %s")
	ErrSecondPrimaryKey     = errors.NewKind("a table may only have one primary key")
)

// Concurrency errors.
var (
	ErrLockTimeout      = errors.NewKind("lock timeout acquiring row lock")
	ErrStatementCanceled = errors.NewKind("statement canceled")
)

// Session errors.
var (
	// ErrReadOnly is returned when a FOR UPDATE query is prepared on a
	// Runner configured read-only (mirroring the teacher's
	// Config.IsReadOnly / sql.ErrReadOnly).
	ErrReadOnly = errors.NewKind("cannot execute statement: database is read-only")
)

// Internal errors.
var (
	ErrInternal = errors.NewKind("internal error: %s")
)
