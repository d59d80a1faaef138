package sql

// Expression is a node in the scalar expression tree: a select-list
// item, a WHERE/HAVING/QUALIFY predicate term, an ORDER BY key, etc.
// (spec.md §6 "Expression"). Kept deliberately small — the production
// expression/aggregate/window runtime is an external collaborator per
// spec.md §1.
type Expression interface {
	Resolved() bool
	Type() Type
	// Eval computes this expression's value against row, which must be
	// shaped like the Schema of whatever Node produced it.
	Eval(ctx *Context, row Row) (interface{}, error)
	Children() []Expression
	// WithChildren returns a copy of this expression with its children
	// replaced, used by optimize passes that rewrite subtrees in place.
	WithChildren(children ...Expression) (Expression, error)
	String() string
}

// Aliasable is implemented by expressions that carry a user- or
// planner-assigned name (column alias, GROUP BY alias, ORDER BY alias).
// SelectListColumnResolver and the GROUP BY alias resolution in
// Select.init() both depend on this.
type Aliasable interface {
	Alias() string
}

// ColumnExpression is implemented by expressions that reference a single
// underlying table column by position (GetField in the teacher). The
// index-sort planner (§4.3) only considers ORDER BY terms that satisfy
// this interface; anything else makes the sortable suffix stop.
type ColumnExpression interface {
	Expression
	Index() int
	ColumnName() string
	TableSource() string
}

// Node is a logical plan node: a FROM source, a Select, a SelectUnion, or
// a TableValueConstructor (spec.md §6 "Expression" sibling concept). The
// core only needs enough of this to drive RowIter() and Schema(); the
// parser/binder that produces fully resolved Nodes is an external
// collaborator.
type Node interface {
	Resolved() bool
	Schema() Schema
	Children() []Node
	String() string
}

// Executable is implemented by every Node this core knows how to run.
type Executable interface {
	Node
	RowIter(ctx *Context, row Row) (RowIter, error)
}
