package plan

import (
	"github.com/relixdb/queryengine/sql"
)

// FullySorted is the IndexSort sentinel meaning every ORDER BY column is
// satisfied by the chosen scan (spec.md §3 "IndexSort").
const FullySorted = -1

// IndexSort describes how many leading ORDER BY columns a candidate
// index satisfies, and in which direction it must be scanned to do so
// (spec.md §3, §4.3).
type IndexSort struct {
	Index         sql.Index
	SortedColumns int // FullySorted when every ORDER BY column matches
	Reverse       bool
}

// Better reports whether a sorts before b in IndexSort preference order:
// a fully-sorted index beats any partial one; otherwise more satisfied
// columns wins; a forward scan is preferred over a reverse scan on ties
// (spec.md §3 "comparable: better sorts come first").
func (a IndexSort) Better(b IndexSort) bool {
	as, bs := a.normalizedRank(), b.normalizedRank()
	if as != bs {
		return as > bs
	}
	if a.Reverse != b.Reverse {
		return !a.Reverse
	}
	return false
}

func (a IndexSort) normalizedRank() int {
	if a.SortedColumns == FullySorted {
		return 1 << 30
	}
	return a.SortedColumns
}

// PlanIndexSort implements the index-sort planner of spec.md §4.3: for
// each candidate index (skipping scan/hash indexes, which carry no
// useful column order), compute the IndexSort describing how large a
// leading prefix of orderBy it satisfies.
//
// orderBy must already be constant-pruned (spec.md §4.1) and expressed
// over columns of `top`, the chosen top filter; a RowID index is
// recognized by IsRowIDIndex() and handles the `_ROWID_` special case.
func PlanIndexSort(db sql.Database, top sql.TableFilter, orderBy sql.SortFields) []IndexSort {
	var results []IndexSort
	for _, idx := range top.Table().Indexes(sql.NewEmptyContext()) {
		if idx.IndexType() == sql.IndexTypeHash {
			continue
		}
		if is, ok := planOneIndex(db, idx, orderBy); ok {
			results = append(results, is)
		}
	}
	return results
}

func planOneIndex(db sql.Database, idx sql.Index, orderBy sql.SortFields) (IndexSort, bool) {
	cols := idx.Columns()
	if len(cols) == 0 && !idx.IsRowIDIndex() {
		return IndexSort{}, false
	}

	matched := 0
	reverse := false
	determinedDirection := false

	for i, sf := range orderBy {
		col, ok := sf.Column.(sql.ColumnExpression)
		if !ok {
			break // an unsortable term ends the satisfiable suffix
		}
		if i >= len(cols) {
			break
		}
		ic := cols[i]
		if idx.ColumnIndex(ic.Column) != col.Index() {
			break
		}

		forwardMatches := sortDirectionMatches(ic.Direction, sf.Order)
		reverseMatches := sortDirectionMatches(oppositeDirection(ic.Direction), sf.Order)

		if !determinedDirection {
			switch {
			case forwardMatches:
				reverse = false
			case reverseMatches:
				reverse = true
			default:
				return IndexSort{}, matched > 0
			}
			determinedDirection = true
		} else {
			ok := forwardMatches
			if reverse {
				ok = reverseMatches
			}
			if !ok {
				break
			}
		}
		matched++
	}

	if matched == 0 {
		return IndexSort{}, false
	}
	sorted := matched
	if matched == len(orderBy) {
		sorted = FullySorted
	}
	return IndexSort{Index: idx, SortedColumns: sorted, Reverse: reverse}, true
}

func sortDirectionMatches(indexDir, sortDir sql.SortDirection) bool {
	return indexDir == sortDir
}

func oppositeDirection(d sql.SortDirection) sql.SortDirection {
	if d == sql.Ascending {
		return sql.Descending
	}
	return sql.Ascending
}

// ChooseIndexSort picks the best IndexSort for the given orderBy among
// the current index (if it already happens to satisfy a prefix) and the
// computed candidates, returning nil if nothing beats a plain sort.
func ChooseIndexSort(current sql.Index, candidates []IndexSort) *IndexSort {
	var best *IndexSort
	for i := range candidates {
		c := candidates[i]
		if c.Index == current {
			// A candidate matching the index already chosen by the
			// cost-based optimizer doesn't require switching access
			// paths, so it's strictly preferable at equal rank.
			if best == nil || !best.Better(c) {
				return &c
			}
		}
		if best == nil || c.Better(*best) {
			best = &c
		}
	}
	return best
}
