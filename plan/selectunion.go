package plan

import (
	"github.com/relixdb/queryengine/queryerr"
	"github.com/relixdb/queryengine/sql"
	"github.com/relixdb/queryengine/sql/expression"
)

// UnionType is the set-operation kind (spec.md §3 "SelectUnion").
type UnionType int

const (
	Union UnionType = iota
	UnionAll
	Except
	Intersect
)

func (t UnionType) String() string {
	switch t {
	case Union:
		return "UNION"
	case UnionAll:
		return "UNION ALL"
	case Except:
		return "EXCEPT"
	case Intersect:
		return "INTERSECT"
	}
	return "UNION"
}

// SelectUnion implements UNION/UNION ALL/INTERSECT/EXCEPT over two
// sub-queries (spec.md §3, §4.4, §4.7).
type SelectUnion struct {
	Base

	Type  UnionType
	Left  QueryNode
	Right QueryNode

	db sql.Database
}

// NewSelectUnion builds a set operation, harmonizing column types as the
// pairwise higher-type join (spec.md §3, §4.7). Returns
// COLUMN_COUNT_DOES_NOT_MATCH if the two sides have different arity.
func NewSelectUnion(db sql.Database, typ UnionType, left, right QueryNode) (*SelectUnion, error) {
	ls, rs := left.Schema(), right.Schema()
	if len(ls) != len(rs) {
		return nil, queryerr.ErrColumnCountDoesNotMatch.New(len(ls), len(rs))
	}

	su := &SelectUnion{
		Base:  NewBase(),
		Type:  typ,
		Left:  left,
		Right: right,
		db:    db,
	}
	su.VisibleColumnCount = len(ls)
	su.ResultColumnCount = len(ls)

	if typ == Union || typ == Except || typ == Intersect {
		su.Distinct = true
	}
	su.CachePolicy.Enabled = db.OptimizeReuseResults()
	su.CachePolicy.Deterministic = true

	return su, nil
}

func (u *SelectUnion) Resolved() bool { return u.Left.Resolved() && u.Right.Resolved() }

// Schema returns the harmonized schema: same names as the left side
// (SQL convention), types widened via HigherType per column (spec.md
// §4.7 "for Union(L,R) with i-th column types Tₗᵢ and Tᵣᵢ, Q.column(i).type
// == higher_type(Tₗᵢ, Tᵣᵢ)").
func (u *SelectUnion) Schema() sql.Schema {
	ls, rs := u.Left.Schema(), u.Right.Schema()
	out := make(sql.Schema, len(ls))
	for i := range ls {
		out[i] = &sql.Column{
			Name:     ls[i].Name,
			Type:     sql.HigherType(ls[i].Type, rs[i].Type),
			Nullable: ls[i].Nullable || rs[i].Nullable,
		}
	}
	return out
}

func (u *SelectUnion) Children() []sql.Node { return nil }
func (u *SelectUnion) String() string       { return u.Type.String() }

// MaxObservedModificationId is the higher of the two branches' ceilings
// (spec.md §4.5): either side advancing invalidates this union's cache
// slot.
func (u *SelectUnion) MaxObservedModificationId(ctx *sql.Context) (int64, error) {
	l, err := u.Left.MaxObservedModificationId(ctx)
	if err != nil {
		return 0, err
	}
	r, err := u.Right.MaxObservedModificationId(ctx)
	if err != nil {
		return 0, err
	}
	if l > r {
		return l, nil
	}
	return r, nil
}

// SetForUpdate propagates FOR UPDATE to both sides (spec.md §3 invariant
// "shared ForUpdate ... propagates to both").
func (u *SelectUnion) SetForUpdate(fu *ForUpdate) {
	u.ForUpdate = fu
	u.Left.SetForUpdate(fu)
	u.Right.SetForUpdate(fu)
}
func (u *SelectUnion) GetForUpdate() *ForUpdate { return u.ForUpdate }

// AllowGlobalConditions is false whenever OFFSET/FETCH is present on
// this union (spec.md §4.6).
func (u *SelectUnion) AllowGlobalConditions() bool {
	return u.Base.AllowGlobalConditions(false)
}

// AddGlobalCondition propagates to both sides for UNION/UNION_ALL/
// INTERSECT, and to the left side only for EXCEPT (spec.md §4.7).
func (u *SelectUnion) AddGlobalCondition(ctx *sql.Context, column, param sql.Expression, columnID int) error {
	if err := u.Left.AddGlobalCondition(ctx, column, param, columnID); err != nil {
		return err
	}
	if u.Type == Except {
		return nil
	}
	return u.Right.AddGlobalCondition(ctx, column, param, columnID)
}

// CoerceRow widens a row produced by one side to the harmonized schema,
// using spf13/cast for the numeric/string widening conversions between
// mismatched branch types (SPEC_FULL.md §3). Exported for package
// rowexec, which drives both sides of a set operation independently
// (spec.md §4.4 "Set operations").
func CoerceRow(row sql.Row, from, to sql.Schema) (sql.Row, error) {
	out := make(sql.Row, len(row))
	for i, v := range row {
		if v == nil || from[i].Type == to[i].Type {
			out[i] = v
			continue
		}
		coerced, err := expression.CastTo(v, to[i].Type)
		if err != nil {
			return nil, err
		}
		out[i] = coerced
	}
	return out, nil
}
