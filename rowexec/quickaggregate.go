package rowexec

import (
	"github.com/relixdb/queryengine/plan"
	"github.com/relixdb/queryengine/queryerr"
	"github.com/relixdb/queryengine/sql"
)

// buildQuickAggregate answers a quick-aggregate query (COUNT(*), MIN/MAX
// on an indexed column) directly from index metadata without scanning
// (spec.md §4.4 "Quick aggregate"). It always produces exactly one row,
// so OFFSET/FETCH/WITH TIES never apply (spec.md §4.4 invariant: a
// quick-aggregate Select has no WHERE, GROUP BY, HAVING or QUALIFY).
func buildQuickAggregate(ctx *sql.Context, s *plan.Select) (sql.RowIter, error) {
	filter := s.Filters[0]
	row := make(sql.Row, s.VisibleColumnCount)
	for i, e := range s.Expressions[:s.VisibleColumnCount] {
		qa, ok := plan.QuickAggregatable(e)
		if !ok {
			return nil, queryerr.ErrInternal.New("rowexec: quick aggregate column is not quick-aggregatable")
		}
		v, err := qa.EvalQuick(ctx, filter)
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	return sql.NewSliceIter([]sql.Row{row}), nil
}
