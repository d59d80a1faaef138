package rowexec

import (
	"io"

	"github.com/relixdb/queryengine/sql"
)

// joinIter nested-loop joins every TableFilter in join order (spec.md
// §4.2's output), concatenating each filter's schema into one wide row.
// Outer filters are handled per spec.md §6 "IsJoinOuter": when an outer
// filter's inner loop produces no match, one row of that filter's
// columns, all NULL, is still emitted.
type joinIter struct {
	ctx     *sql.Context
	filters []sql.TableFilter
	rows    [][]sql.Row // buffered rows per filter position while building the cross product
	done    bool
	buf     []sql.Row
	pos     int
}

// newJoinIter materializes the nested-loop join of filters. A streaming
// (non-materializing) join is a natural follow-up, but every filter here
// is cheap to re-Reset and re-scan (memtable), so materializing keeps the
// join logic simple and correct, matching spec.md's stated precedence of
// correctness invariants over a specific execution strategy.
func newJoinIter(ctx *sql.Context, filters []sql.TableFilter) (*joinIter, error) {
	rows, err := buildJoin(ctx, filters)
	if err != nil {
		return nil, err
	}
	return &joinIter{ctx: ctx, filters: filters, buf: rows}, nil
}

func buildJoin(ctx *sql.Context, filters []sql.TableFilter) ([]sql.Row, error) {
	if len(filters) == 0 {
		return []sql.Row{{}}, nil
	}
	if err := filters[0].Reset(ctx); err != nil {
		return nil, err
	}
	var out []sql.Row
	for {
		row, err := filters[0].Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rest, err := buildJoin(ctx, filters[1:])
		if err != nil {
			return nil, err
		}
		for _, r := range rest {
			combined := make(sql.Row, 0, len(row)+len(r))
			combined = append(combined, row...)
			combined = append(combined, r...)
			out = append(out, combined)
		}
	}
	if len(out) == 0 && anyOuter(filters) {
		return []sql.Row{nullRow(filters)}, nil
	}
	return out, nil
}

func anyOuter(filters []sql.TableFilter) bool {
	for _, f := range filters {
		if f.IsJoinOuter() {
			return true
		}
	}
	return false
}

func nullRow(filters []sql.TableFilter) sql.Row {
	var row sql.Row
	for _, f := range filters {
		row = append(row, make(sql.Row, len(f.Schema()))...)
	}
	return row
}

func (j *joinIter) Next(ctx *sql.Context) (sql.Row, error) {
	if j.pos >= len(j.buf) {
		return nil, io.EOF
	}
	row := j.buf[j.pos]
	j.pos++
	return row, nil
}

func (j *joinIter) Close(ctx *sql.Context) error { return nil }
