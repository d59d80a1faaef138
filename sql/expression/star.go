package expression

import "github.com/relixdb/queryengine/sql"

// Star is the unqualified `*` wildcard placeholder. init() replaces
// every Star (and QualifiedStar) with concrete GetField expressions
// before any other phase runs (spec.md §4.1); a Star surviving past
// init() is a planner bug.
type Star struct {
	// Table is empty for `*`, non-empty for `t.*`.
	Table string
}

// NewStar returns an unqualified `*`.
func NewStar() *Star { return &Star{} }

// NewQualifiedStar returns a `table.*` wildcard.
func NewQualifiedStar(table string) *Star { return &Star{Table: table} }

func (s *Star) Resolved() bool             { return false }
func (s *Star) Type() sql.Type             { return nil }
func (s *Star) Children() []sql.Expression { return nil }
func (s *Star) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	return nil, sql.ErrStarNotResolved
}
func (s *Star) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	return s, nil
}
func (s *Star) String() string {
	if s.Table == "" {
		return "*"
	}
	return s.Table + ".*"
}
