package plan

import (
	"github.com/relixdb/queryengine/queryerr"
	"github.com/relixdb/queryengine/sql"
)

// OffsetFetch holds the parsed OFFSET/FETCH clause of a Query: the
// offset and fetch expressions (evaluated once per execution, since
// they may reference bind parameters), the PERCENT flag, and WITH TIES
// (spec.md §3, §4.4).
type OffsetFetch struct {
	Offset      sql.Expression // nil means no OFFSET
	Fetch       sql.Expression // nil means no FETCH
	FetchPercent bool
	WithTies    bool
}

// Resolved is the result of evaluating an OffsetFetch against a concrete
// row count: concrete offset/limit numbers plus whether the caller
// should use the "quickOffset" pre-skip optimization (spec.md §4.4).
type Resolved struct {
	Offset       int64
	HasLimit     bool
	Limit        int64
	WithTies     bool
	QuickOffset  bool
	PartialQuickOffset bool
}

// Resolve evaluates Offset/Fetch against the current row (usually nil —
// these clauses may only reference outer-query correlation in some
// dialects, but the common case is constants/bind parameters) and
// totalRows, which is only consulted for FETCH PERCENT (spec.md §4.4).
//
// indexSortedColumns/orderByLen together decide whether quickOffset can
// apply at all, and whether it is "partial" (spec.md §4.4: "when ORDER
// BY is present but only partially satisfied by the index, quickOffset
// is partial — the offset applies only over the sorted prefix").
func (o OffsetFetch) Resolve(ctx *sql.Context, row sql.Row, totalRows func() (int64, error), indexSortedColumns, orderByLen int) (Resolved, error) {
	var r Resolved
	r.WithTies = o.WithTies

	if o.Offset != nil {
		v, err := o.Offset.Eval(ctx, row)
		if err != nil {
			return r, err
		}
		n, ok := asNonNegativeInt(v)
		if !ok {
			return r, queryerr.ErrInvalidValue.New("OFFSET", v)
		}
		r.Offset = n
	}

	if o.Fetch != nil {
		v, err := o.Fetch.Eval(ctx, row)
		if err != nil {
			return r, err
		}
		n, ok := asNonNegativeInt(v)
		if !ok {
			return r, queryerr.ErrInvalidValue.New("FETCH", v)
		}
		if o.FetchPercent {
			if n > 100 {
				return r, queryerr.ErrInvalidValue.New("FETCH ... PERCENT", v)
			}
			if n == 0 {
				r.HasLimit = true
				r.Limit = 0
				return r, nil
			}
			total, err := totalRows()
			if err != nil {
				return r, err
			}
			r.HasLimit = true
			r.Limit = (total*n + 99) / 100
		} else {
			r.HasLimit = true
			r.Limit = n
		}
	}

	if !o.FetchPercent {
		r.QuickOffset = true
		r.PartialQuickOffset = orderByLen > 0 && indexSortedColumns != FullySorted && indexSortedColumns < orderByLen
	}
	return r, nil
}

func asNonNegativeInt(v interface{}) (int64, bool) {
	if v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		if n < 0 {
			return 0, false
		}
		return int64(n), true
	case int32:
		if n < 0 {
			return 0, false
		}
		return int64(n), true
	case int64:
		if n < 0 {
			return 0, false
		}
		return n, true
	case float64:
		if n < 0 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}
