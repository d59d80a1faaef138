package sql

import "testing"

func col(i int, t Type) Expression { return &testGetField{index: i, typ: t} }

// testGetField is a minimal column-reference Expression local to this
// package's tests, avoiding an import cycle with sql/expression.
type testGetField struct {
	index int
	typ   Type
}

func (f *testGetField) Resolved() bool         { return true }
func (f *testGetField) Type() Type             { return f.typ }
func (f *testGetField) Children() []Expression { return nil }
func (f *testGetField) Eval(ctx *Context, row Row) (interface{}, error) {
	return row[f.index], nil
}
func (f *testGetField) WithChildren(children ...Expression) (Expression, error) { return f, nil }
func (f *testGetField) String() string                                          { return "col" }

func TestSortFieldsCompareAscending(t *testing.T) {
	ctx := NewEmptyContext()
	sf := SortFields{{Column: col(0, Int64), Order: Ascending, NullOrdering: NullsFirst}}

	c, err := sf.Compare(ctx, NewRow(int64(1)), NewRow(int64(2)))
	if err != nil {
		t.Fatal(err)
	}
	if c >= 0 {
		t.Fatalf("expected row a to sort before row b, got %d", c)
	}
}

func TestSortFieldsCompareDescendingInvertsResult(t *testing.T) {
	ctx := NewEmptyContext()
	sf := SortFields{{Column: col(0, Int64), Order: Descending, NullOrdering: NullsFirst}}

	c, err := sf.Compare(ctx, NewRow(int64(1)), NewRow(int64(2)))
	if err != nil {
		t.Fatal(err)
	}
	if c <= 0 {
		t.Fatalf("expected row a to sort after row b under DESC, got %d", c)
	}
}

func TestSortFieldsCompareFallsThroughToSecondField(t *testing.T) {
	ctx := NewEmptyContext()
	sf := SortFields{
		{Column: col(0, Int64), Order: Ascending, NullOrdering: NullsFirst},
		{Column: col(1, Int64), Order: Ascending, NullOrdering: NullsFirst},
	}

	c, err := sf.Compare(ctx, NewRow(int64(1), int64(5)), NewRow(int64(1), int64(2)))
	if err != nil {
		t.Fatal(err)
	}
	if c <= 0 {
		t.Fatalf("expected row a to sort after row b on the second field, got %d", c)
	}
}

func TestSortFieldsCompareEqualRowsIsZero(t *testing.T) {
	ctx := NewEmptyContext()
	sf := SortFields{{Column: col(0, Int64), Order: Ascending, NullOrdering: NullsFirst}}

	c, err := sf.Compare(ctx, NewRow(int64(1)), NewRow(int64(1)))
	if err != nil {
		t.Fatal(err)
	}
	if c != 0 {
		t.Fatalf("expected equal rows to compare as 0, got %d", c)
	}
}

func TestSortFieldsCompareNullsFirst(t *testing.T) {
	ctx := NewEmptyContext()
	sf := SortFields{{Column: col(0, Int64), Order: Ascending, NullOrdering: NullsFirst}}

	c, err := sf.Compare(ctx, NewRow(nil), NewRow(int64(1)))
	if err != nil {
		t.Fatal(err)
	}
	if c >= 0 {
		t.Fatalf("expected NULL to sort first, got %d", c)
	}
}

func TestSortFieldsLessMatchesCompareSign(t *testing.T) {
	ctx := NewEmptyContext()
	sf := SortFields{{Column: col(0, Int64), Order: Ascending, NullOrdering: NullsFirst}}

	less, err := sf.Less(ctx, NewRow(int64(1)), NewRow(int64(2)))
	if err != nil {
		t.Fatal(err)
	}
	if !less {
		t.Fatalf("expected row a to be less than row b")
	}
}
