package cache

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relixdb/queryengine/sql"
)

func enabledPolicy() Policy { return Policy{Enabled: true, Deterministic: true} }

func TestResultCacheStoreThenLookupHit(t *testing.T) {
	var c ResultCache
	key := Key{Params: []interface{}{int64(1)}, Limit: 10, HasLimit: true}
	rows := []sql.Row{sql.NewRow(int64(1)), sql.NewRow(int64(2))}

	c.Store(key, rows, 5, 5)

	got, ok := c.Lookup(enabledPolicy(), key, 5)
	require.True(t, ok)
	require.Equal(t, rows, got)
}

func TestResultCacheLookupReturnsIndependentSlice(t *testing.T) {
	var c ResultCache
	key := Key{Params: nil, Limit: 0, HasLimit: false}
	rows := []sql.Row{sql.NewRow(int64(1))}
	c.Store(key, rows, 0, 0)

	got, ok := c.Lookup(enabledPolicy(), key, 0)
	require.True(t, ok)
	got[0] = sql.NewRow(int64(99))

	got2, ok := c.Lookup(enabledPolicy(), key, 0)
	require.True(t, ok)
	require.Equal(t, sql.NewRow(int64(1)), got2[0])
}

func TestResultCacheLookupMissWhenPolicyDisabled(t *testing.T) {
	var c ResultCache
	key := Key{Limit: 1, HasLimit: true}
	c.Store(key, []sql.Row{sql.NewRow(int64(1))}, 0, 0)

	_, ok := c.Lookup(Policy{Enabled: false, Deterministic: true}, key, 0)
	require.False(t, ok)

	_, ok = c.Lookup(Policy{Enabled: true, Deterministic: false}, key, 0)
	require.False(t, ok)
}

func TestResultCacheLookupMissWhenStaleRelativeToSession(t *testing.T) {
	var c ResultCache
	key := Key{Limit: 1, HasLimit: true}
	c.Store(key, []sql.Row{sql.NewRow(int64(1))}, 10, 10)

	// A statement issued before modification 10 took effect can't reuse
	// this entry.
	_, ok := c.Lookup(enabledPolicy(), key, 9)
	require.False(t, ok)
}

func TestResultCacheLookupMissOnLimitMismatch(t *testing.T) {
	var c ResultCache
	key := Key{Limit: 5, HasLimit: true}
	c.Store(key, []sql.Row{sql.NewRow(int64(1))}, 0, 0)

	_, ok := c.Lookup(enabledPolicy(), Key{Limit: 6, HasLimit: true}, 0)
	require.False(t, ok)
}

func TestResultCacheLookupTreatsNilParamsAsWildcard(t *testing.T) {
	var c ResultCache
	key := Key{Params: []interface{}{nil, int64(2)}, Limit: 1, HasLimit: true}
	c.Store(key, []sql.Row{sql.NewRow(int64(1))}, 0, 0)

	lookupKey := Key{Params: []interface{}{int64(42), int64(2)}, Limit: 1, HasLimit: true}
	_, ok := c.Lookup(enabledPolicy(), lookupKey, 0)
	require.True(t, ok)
}

func TestResultCacheStoreClearsWhenModificationExceedsSession(t *testing.T) {
	var c ResultCache
	key := Key{Limit: 1, HasLimit: true}
	c.Store(key, []sql.Row{sql.NewRow(int64(1))}, 0, 0)
	require.True(t, c.entry.valid)

	c.Store(key, []sql.Row{sql.NewRow(int64(2))}, 100, 5)
	require.False(t, c.entry.valid)

	_, ok := c.Lookup(enabledPolicy(), key, 100)
	require.False(t, ok)
}

func TestExistsCacheStoreThenLookup(t *testing.T) {
	var c ExistsCache
	key := Key{Params: []interface{}{"x"}, HasLimit: false}
	c.Store(key, true, 3, 3)

	verdict, ok := c.Lookup(enabledPolicy(), key, 3)
	require.True(t, ok)
	require.True(t, verdict)
}

func TestExistsCacheLookupMissOnParamMismatch(t *testing.T) {
	var c ExistsCache
	key := Key{Params: []interface{}{"x"}}
	c.Store(key, true, 0, 0)

	_, ok := c.Lookup(enabledPolicy(), Key{Params: []interface{}{"y"}}, 0)
	require.False(t, ok)
}

func TestExistsCacheStoreClearsWhenModificationExceedsSession(t *testing.T) {
	var c ExistsCache
	key := Key{}
	c.Store(key, true, 100, 5)
	require.False(t, c.entry.valid)
}
