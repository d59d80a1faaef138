package rowexec

import (
	"github.com/relixdb/queryengine/plan"
	"github.com/relixdb/queryengine/sql"
)

// buildTableValueConstructor evaluates a VALUES row list and runs it
// through the common OFFSET/FETCH/ORDER BY/WITH TIES finishing path
// (spec.md §4.4 "Table value constructor").
func buildTableValueConstructor(ctx *sql.Context, t *plan.TableValueConstructor, limit int64, hasLimit bool) (sql.RowIter, error) {
	rows := make([]sql.Row, t.RowCount())
	for i := range rows {
		row, err := t.RowAt(ctx, i)
		if err != nil {
			return nil, err
		}
		rows[i] = row
	}

	f := finisher{
		of:        t.OffsetFetch,
		sortOrder: t.SortOrder,
		needsSort: len(t.SortOrder) > 0,
	}
	finished, err := f.Finish(ctx, sql.NewSliceIter(rows))
	if err != nil {
		return nil, err
	}
	return &projectIter{src: finished, n: t.VisibleColumnCount}, nil
}
