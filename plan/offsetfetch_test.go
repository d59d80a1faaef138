package plan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relixdb/queryengine/sql"
	"github.com/relixdb/queryengine/sql/expression"
)

func noTotalRows() (int64, error) {
	panic("totalRows should not be called")
}

func TestOffsetFetchResolveBasicOffsetAndLimit(t *testing.T) {
	ctx := sql.NewEmptyContext()
	o := OffsetFetch{
		Offset: expression.NewLiteral(int64(2), sql.Int64),
		Fetch:  expression.NewLiteral(int64(5), sql.Int64),
	}
	r, err := o.Resolve(ctx, nil, noTotalRows, 0, 0)
	require.NoError(t, err)
	require.Equal(t, int64(2), r.Offset)
	require.True(t, r.HasLimit)
	require.Equal(t, int64(5), r.Limit)
	require.True(t, r.QuickOffset)
	require.False(t, r.PartialQuickOffset)
}

func TestOffsetFetchResolvePercentRoundsUp(t *testing.T) {
	ctx := sql.NewEmptyContext()
	o := OffsetFetch{
		Fetch:        expression.NewLiteral(int64(50), sql.Int64),
		FetchPercent: true,
	}
	total := int64(7)
	r, err := o.Resolve(ctx, nil, func() (int64, error) { return total, nil }, 0, 0)
	require.NoError(t, err)
	require.True(t, r.HasLimit)
	require.Equal(t, int64(4), r.Limit) // ceil(7 * 0.5) == 4
}

func TestOffsetFetchResolvePercentZeroSkipsTotalRows(t *testing.T) {
	ctx := sql.NewEmptyContext()
	o := OffsetFetch{
		Fetch:        expression.NewLiteral(int64(0), sql.Int64),
		FetchPercent: true,
	}
	r, err := o.Resolve(ctx, nil, noTotalRows, 0, 0)
	require.NoError(t, err)
	require.True(t, r.HasLimit)
	require.Equal(t, int64(0), r.Limit)
}

func TestOffsetFetchResolvePercentOver100Errors(t *testing.T) {
	ctx := sql.NewEmptyContext()
	o := OffsetFetch{
		Fetch:        expression.NewLiteral(int64(150), sql.Int64),
		FetchPercent: true,
	}
	_, err := o.Resolve(ctx, nil, noTotalRows, 0, 0)
	require.Error(t, err)
}

func TestOffsetFetchResolveNegativeOffsetErrors(t *testing.T) {
	ctx := sql.NewEmptyContext()
	o := OffsetFetch{Offset: expression.NewLiteral(int64(-1), sql.Int64)}
	_, err := o.Resolve(ctx, nil, noTotalRows, 0, 0)
	require.Error(t, err)
}

func TestOffsetFetchResolveWithTiesPartialQuickOffset(t *testing.T) {
	ctx := sql.NewEmptyContext()
	o := OffsetFetch{
		Fetch:    expression.NewLiteral(int64(3), sql.Int64),
		WithTies: true,
	}
	// Two ORDER BY columns, but the chosen index only satisfies the
	// first one: quickOffset can still pre-skip, but only partially.
	r, err := o.Resolve(ctx, nil, noTotalRows, 1, 2)
	require.NoError(t, err)
	require.True(t, r.WithTies)
	require.True(t, r.QuickOffset)
	require.True(t, r.PartialQuickOffset)
}

func TestOffsetFetchResolveFullyIndexSortedIsNotPartial(t *testing.T) {
	ctx := sql.NewEmptyContext()
	o := OffsetFetch{Fetch: expression.NewLiteral(int64(3), sql.Int64)}
	r, err := o.Resolve(ctx, nil, noTotalRows, FullySorted, 2)
	require.NoError(t, err)
	require.False(t, r.PartialQuickOffset)
}
