package plan

import (
	"github.com/relixdb/queryengine/queryerr"
	"github.com/relixdb/queryengine/sql"
	"github.com/relixdb/queryengine/sql/expression"
)

// joinGraph is an undirected graph over TableFilter positions: an edge
// exists between i and j when the WHERE condition contains a column=column
// equality between a column of filter i and a column of filter j
// (spec.md §4.2).
type joinGraph struct {
	n     int
	edges map[int]map[int]bool
}

func newJoinGraph(n int) *joinGraph {
	return &joinGraph{n: n, edges: make(map[int]map[int]bool, n)}
}

func (g *joinGraph) addEdge(i, j int) {
	if g.edges[i] == nil {
		g.edges[i] = map[int]bool{}
	}
	if g.edges[j] == nil {
		g.edges[j] = map[int]bool{}
	}
	g.edges[i][j] = true
	g.edges[j][i] = true
}

func (g *joinGraph) connectedTo(i int, joined map[int]bool) bool {
	for j := range g.edges[i] {
		if joined[j] {
			return true
		}
	}
	return false
}

// buildJoinGraph flattens the WHERE condition into a conjunction and
// adds an edge for every column=column equality between distinct
// filters (spec.md §4.2).
func buildJoinGraph(filters []sql.TableFilter, where sql.Expression) *joinGraph {
	g := newJoinGraph(len(filters))
	if where == nil {
		return g
	}
	filterIndex := func(source string) int {
		for i, f := range filters {
			if f.Alias() == source {
				return i
			}
		}
		return -1
	}
	for _, term := range expression.SplitConjunction(where) {
		l, r, ok := expression.ColumnEquality(term)
		if !ok {
			continue
		}
		li, ri := filterIndex(l.TableSource()), filterIndex(r.TableSource())
		if li < 0 || ri < 0 || li == ri {
			continue
		}
		g.addEdge(li, ri)
	}
	return g
}

// RuleBasedJoinOrder picks a join order that avoids a cartesian product
// when one is avoidable (spec.md §4.2): start from the smallest table,
// then repeatedly add the smallest remaining table that has an edge to
// the already-joined set. Returns the filters in join order, or
// ErrNoValidJoinOrder if the join graph is disconnected (spec.md §9,
// "Open Question: disconnected join graph" — this core keeps the
// explicit-error policy).
func RuleBasedJoinOrder(ctx *sql.Context, filters []sql.TableFilter, where sql.Expression) ([]sql.TableFilter, error) {
	if len(filters) <= 1 {
		return filters, nil
	}

	rowCounts := make([]int64, len(filters))
	for i, f := range filters {
		n, err := f.EstimatedRowCount(ctx)
		if err != nil {
			return nil, err
		}
		rowCounts[i] = n
	}

	g := buildJoinGraph(filters, where)

	joined := make(map[int]bool, len(filters))
	order := make([]sql.TableFilter, 0, len(filters))

	start := smallestUnjoined(rowCounts, joined)
	joined[start] = true
	order = append(order, filters[start])

	for len(order) < len(filters) {
		next := -1
		for i := range filters {
			if joined[i] {
				continue
			}
			if !g.connectedTo(i, joined) {
				continue
			}
			if next == -1 || rowCounts[i] < rowCounts[next] {
				next = i
			}
		}
		if next == -1 {
			return nil, queryerr.ErrNoValidJoinOrder.New()
		}
		joined[next] = true
		order = append(order, filters[next])
	}

	return order, nil
}

func smallestUnjoined(rowCounts []int64, joined map[int]bool) int {
	best := -1
	for i, c := range rowCounts {
		if joined[i] {
			continue
		}
		if best == -1 || c < rowCounts[best] {
			best = i
		}
	}
	return best
}
