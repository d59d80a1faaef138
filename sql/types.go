package sql

import "fmt"

// Type is the minimal value-system contract the planner and evaluator
// need: a name for error messages, a total-order comparator, and a
// notion of "higher type" used by SelectUnion and TableValueConstructor
// to unify columns of mismatched declared types (spec.md §4.7, §3).
type Type interface {
	fmt.Stringer
	// Compare returns -1, 0, 1 for a<b, a==b, a>b. NULLs are handled by
	// the caller (Context.Compare), never passed here.
	Compare(a, b interface{}) (int, error)
	// Zero returns a zero value for the type: int64(0) for every numeric
	// type, "" for TEXT, false for BOOLEAN. Nothing in the core calls it;
	// a VALUES row of the wrong length is rejected rather than padded.
	Zero() interface{}
}

type numberType struct{ name string }

func (t numberType) String() string { return t.name }
func (t numberType) Zero() interface{} {
	return int64(0)
}
func (t numberType) Compare(a, b interface{}) (int, error) {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return 0, fmt.Errorf("%s: cannot compare %v and %v", t.name, a, b)
	}
	switch {
	case af < bf:
		return -1, nil
	case af > bf:
		return 1, nil
	default:
		return 0, nil
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

type stringType struct{ name string }

func (t stringType) String() string    { return t.name }
func (t stringType) Zero() interface{} { return "" }
func (t stringType) Compare(a, b interface{}) (int, error) {
	as, aok := a.(string)
	bs, bok := b.(string)
	if !aok || !bok {
		return 0, fmt.Errorf("%s: cannot compare %v and %v", t.name, a, b)
	}
	switch {
	case as < bs:
		return -1, nil
	case as > bs:
		return 1, nil
	default:
		return 0, nil
	}
}

type boolType struct{}

func (boolType) String() string    { return "BOOLEAN" }
func (boolType) Zero() interface{} { return false }
func (boolType) Compare(a, b interface{}) (int, error) {
	ab, aok := a.(bool)
	bb, bok := b.(bool)
	if !aok || !bok {
		return 0, fmt.Errorf("BOOLEAN: cannot compare %v and %v", a, b)
	}
	switch {
	case ab == bb:
		return 0, nil
	case !ab && bb:
		return -1, nil
	default:
		return 1, nil
	}
}

// Concrete types, named after the teacher's sql.Int64/sql.Text/etc.
var (
	Int32   Type = numberType{"INT"}
	Int64   Type = numberType{"BIGINT"}
	Float64 Type = numberType{"DOUBLE"}
	Text    Type = stringType{"TEXT"}
	Boolean Type = boolType{}
)

// typeRank orders types for the "higher type" join used by SelectUnion
// column typing and TableValueConstructor row coercion: wider numeric
// types win over narrower ones, and any type paired with Text widens to
// Text (matches the teacher's general numeric-promotes-to-string-on-
// conflict behavior for heterogeneous UNION branches).
var typeRank = map[Type]int{
	Boolean: 0,
	Int32:   1,
	Int64:   2,
	Float64: 3,
	Text:    4,
}

// HigherType returns the common supertype of a and b (spec.md GLOSSARY).
func HigherType(a, b Type) Type {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a == b {
		return a
	}
	ra, aok := typeRank[a]
	rb, bok := typeRank[b]
	if !aok || !bok {
		return Text
	}
	if ra >= rb {
		return a
	}
	return b
}
