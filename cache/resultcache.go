// Package cache implements the result-reuse policy of spec.md §4.5: a
// query's last result (or last EXISTS verdict) is reusable across
// executions when the query is deterministic, parameters match, and no
// modification has invalidated it since.
package cache

import (
	"reflect"

	"github.com/mitchellh/hashstructure"
	"github.com/relixdb/queryengine/sql"
)

// Key is the cache lookup key: the bound parameter values plus the
// requested limit (spec.md §4.5, "the request's limit equals the cached
// limit"). hashstructure folds it into a single uint64 so the common
// case — a cache miss because something upstream already changed — is
// one integer compare instead of an element-wise slice walk.
type Key struct {
	Params []interface{}
	Limit  int64
	// HasLimit distinguishes "no LIMIT" from "LIMIT 0", mirroring
	// OffsetFetch.Resolved.HasLimit.
	HasLimit bool
}

func (k Key) hash() (uint64, error) {
	return hashstructure.Hash(k, nil)
}

// Entry is one cache slot: the last parameters/limit used, the last
// observed modification-id ceiling, and the cached payload itself
// (either a materialized row slice or an EXISTS verdict — ResultCache
// fills rows, ExistsCache fills verdict).
type Entry struct {
	key             Key
	keyHash         uint64
	maxModification int64
	rows            []sql.Row
	verdict         bool
	valid           bool
}

// ResultCache holds the single last-result slot of one Query (spec.md
// §3 "cache state"). Two independent caches exist per Query: one for
// query() results, one for exists() verdicts (spec.md §4.5) — this type
// holds the query() results; ExistsCache below holds the verdicts.
type ResultCache struct {
	entry Entry
}

// Policy bundles the global/query-level gates that decide whether
// caching applies at all (spec.md §4.5): global enablement,
// determinism, and independence from randomness/current-time/volatile
// references.
type Policy struct {
	Enabled      bool
	Deterministic bool
}

// Lookup returns the cached rows and true if they are reusable for key
// at the given session modification ceiling, per spec.md §4.5: the
// query's maximum observable modification-id must be <= the session's
// statement modification-id at population time, which is exactly
// `sessionStatementModID` here (the cache was populated under some past
// ceiling; as long as that ceiling still dominates the entry's recorded
// max-modification, nothing relevant has changed).
func (c *ResultCache) Lookup(policy Policy, key Key, sessionStatementModID int64) ([]sql.Row, bool) {
	if !policy.Enabled || !policy.Deterministic || !c.entry.valid {
		return nil, false
	}
	if c.entry.maxModification > sessionStatementModID {
		return nil, false
	}
	h, err := key.hash()
	if err != nil || h != c.entry.keyHash {
		if !paramsMatch(c.entry.key.Params, key.Params) {
			return nil, false
		}
	}
	if c.entry.key.HasLimit != key.HasLimit || c.entry.key.Limit != key.Limit {
		return nil, false
	}
	// Shallow copy per spec.md §4.5 "a shallow copy is returned after
	// reset": callers get their own slice header but share row values.
	cp := make([]sql.Row, len(c.entry.rows))
	copy(cp, c.entry.rows)
	return cp, true
}

// paramsMatch compares parameter slices element-wise, treating nil gaps
// (derived-table parameters with no outer binding) as wildcard matches
// (spec.md §4.5).
func paramsMatch(a, b []interface{}) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] == nil || b[i] == nil {
			continue
		}
		if !reflect.DeepEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Store populates the cache slot with a fresh result, unless the new
// result's observed max-modification-id already exceeds the session's
// current statement id — in which case the slot is cleared instead
// (spec.md §4.5: "stored only if the new modification-id does not
// exceed the session's current statement id; otherwise the cache slot
// is cleared").
func (c *ResultCache) Store(key Key, rows []sql.Row, maxModification, sessionStatementModID int64) {
	if maxModification > sessionStatementModID {
		c.Clear()
		return
	}
	h, _ := key.hash()
	c.entry = Entry{key: key, keyHash: h, maxModification: maxModification, rows: rows, valid: true}
}

// Clear invalidates the cache slot, e.g. before executing a fresh query
// on a miss ("the old result is closed, executed anew").
func (c *ResultCache) Clear() {
	c.entry = Entry{}
}

// ExistsCache is the EXISTS-specific sibling cache (spec.md §4.5,
// "EXISTS has its own separate last-verdict cache with identical
// rules").
type ExistsCache struct {
	entry Entry
}

func (c *ExistsCache) Lookup(policy Policy, key Key, sessionStatementModID int64) (bool, bool) {
	if !policy.Enabled || !policy.Deterministic || !c.entry.valid {
		return false, false
	}
	if c.entry.maxModification > sessionStatementModID {
		return false, false
	}
	if !paramsMatch(c.entry.key.Params, key.Params) {
		return false, false
	}
	return c.entry.verdict, true
}

func (c *ExistsCache) Store(key Key, verdict bool, maxModification, sessionStatementModID int64) {
	if maxModification > sessionStatementModID {
		c.Clear()
		return
	}
	c.entry = Entry{key: key, verdict: verdict, maxModification: maxModification, valid: true}
}

func (c *ExistsCache) Clear() {
	c.entry = Entry{}
}
