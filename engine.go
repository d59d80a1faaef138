// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package queryengine wires a prepared plan.QueryNode to a sql.Session
// and drives it through package rowexec, the same role engine.go plays
// in the teacher, trimmed to this core's scope: no parser, no wire
// protocol, no DDL. Config loads the session-level optimizer toggles
// spec.md's [MODULE] sections consult (lazy-query-execution,
// optimize-reuse-results, default-null-ordering, mode.expression-names).
package queryengine

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/relixdb/queryengine/plan"
	"github.com/relixdb/queryengine/queryerr"
	"github.com/relixdb/queryengine/rowexec"
	"github.com/relixdb/queryengine/sql"
)

// Config holds the session-level toggles SPEC_FULL.md §2 names, loaded
// from YAML the same way the teacher's Config struct in engine.go is
// built up field by field, but over this core's actual knobs instead of
// server/account settings.
type Config struct {
	LazyQueryExecution       bool    `yaml:"lazy-query-execution"`
	OptimizeReuseResults     bool    `yaml:"optimize-reuse-results"`
	OptimizeInsertFromSelect bool    `yaml:"optimize-insert-from-select"`
	OptimizeDistinct         bool    `yaml:"optimize-distinct"`
	DefaultNullOrdering      string  `yaml:"default-null-ordering"`
	AnalyzeSample            float64 `yaml:"analyze-sample"`
	// PreserveExpressionAliases mirrors "mode.expression-names ==
	// ORIGINAL_SQL" (spec.md §4.1 "prepareExpressions"): when true, an
	// optimized expression that would otherwise change its apparent name
	// is re-wrapped in an Alias carrying its original name.
	PreserveExpressionAliases bool `yaml:"mode.expression-names"`
}

// LoadConfig parses YAML bytes into a Config, defaulting the toggles a
// zero-value Config would otherwise leave off to this core's usual
// engine defaults.
func LoadConfig(data []byte) (*Config, error) {
	cfg := &Config{
		OptimizeReuseResults:     true,
		OptimizeInsertFromSelect: true,
		OptimizeDistinct:         true,
		DefaultNullOrdering:      "FIRST",
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "unable to parse queryengine config")
	}
	return cfg, nil
}

// PreparedQueryCache manages every session's prepared plan.QueryNode by
// name, mirroring the teacher's PreparedDataCache (engine.go) but
// holding a prepared logical plan instead of a parsed sqlparser.Statement
// — the parser/binder step that produces one is out of this core's
// scope (spec.md §1).
type PreparedQueryCache struct {
	mu   sync.Mutex
	data map[uint32]map[string]plan.QueryNode
}

// NewPreparedQueryCache returns an empty cache.
func NewPreparedQueryCache() *PreparedQueryCache {
	return &PreparedQueryCache{data: make(map[uint32]map[string]plan.QueryNode)}
}

// Get retrieves the prepared node associated with sessID and name, if any.
func (p *PreparedQueryCache) Get(sessID uint32, name string) (plan.QueryNode, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sessData, ok := p.data[sessID]
	if !ok {
		return nil, false
	}
	q, ok := sessData[name]
	return q, ok
}

// Put associates name with q for sessID, caching it for later Query calls.
func (p *PreparedQueryCache) Put(sessID uint32, name string, q plan.QueryNode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.data[sessID]; !ok {
		p.data[sessID] = make(map[string]plan.QueryNode)
	}
	p.data[sessID][name] = q
}

// Uncache removes name from sessID's cache.
func (p *PreparedQueryCache) Uncache(sessID uint32, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if sessData, ok := p.data[sessID]; ok {
		delete(sessData, name)
	}
}

// DeleteSession clears every prepared query belonging to sessID, called
// when a session ends.
func (p *PreparedQueryCache) DeleteSession(sessID uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.data, sessID)
}

// Runner ties prepared query plans to sessions and drives them through
// rowexec, the Engine-equivalent collaborator this core exposes.
type Runner struct {
	Config   *Config
	Prepared *PreparedQueryCache
	ReadOnly atomic.Bool
	logger   *logrus.Entry
}

// NewRunner builds a Runner over cfg (nil uses engine defaults).
func NewRunner(cfg *Config) *Runner {
	if cfg == nil {
		cfg, _ = LoadConfig(nil)
	}
	return &Runner{
		Config:   cfg,
		Prepared: NewPreparedQueryCache(),
		logger:   logrus.WithField("component", "queryengine"),
	}
}

// Prepare runs init/prepareExpressions/preparePlan on q and caches it
// under name for ctx's session, so a later Query call can reuse it
// without re-running planning (spec.md §4.1 idempotency, §4.5 reuse).
func (r *Runner) Prepare(ctx *sql.Context, name string, q plan.QueryNode, optimize func(sql.Expression) (sql.Expression, error)) error {
	if r.ReadOnly.Load() {
		if s, ok := q.(*plan.Select); ok && s.ForUpdate != nil {
			return queryerr.ErrReadOnly.New()
		}
	}

	type initializable interface {
		Init(ctx *sql.Context) error
	}
	if init, ok := q.(initializable); ok {
		if err := init.Init(ctx); err != nil {
			return errors.Wrap(err, "queryengine: init failed")
		}
	}

	type preparable interface {
		PrepareExpressions(ctx *sql.Context, optimize func(sql.Expression) (sql.Expression, error), preserveAliases bool) error
		PreparePlan(ctx *sql.Context) error
	}
	if p, ok := q.(preparable); ok {
		if err := p.PrepareExpressions(ctx, optimize, r.Config.PreserveExpressionAliases); err != nil {
			return errors.Wrap(err, "queryengine: prepareExpressions failed")
		}
		if err := p.PreparePlan(ctx); err != nil {
			return errors.Wrap(err, "queryengine: preparePlan failed")
		}
	}

	sessID := uint32(0)
	if ctx.Session != nil {
		sessID = ctx.Session.ID()
	}
	r.Prepared.Put(sessID, name, q)
	r.logger.WithField("query", name).Trace("prepared and cached query plan")
	return nil
}

// Query executes the query cached under name for ctx's session. limit
// and hasLimit are the caller's own query(limit, target) ceiling
// (spec.md §3), separate from the query's own FETCH.
func (r *Runner) Query(ctx *sql.Context, name string, limit int64, hasLimit bool, target plan.ResultTarget) (sql.RowIter, error) {
	sessID := uint32(0)
	if ctx.Session != nil {
		sessID = ctx.Session.ID()
	}
	q, ok := r.Prepared.Get(sessID, name)
	if !ok {
		return nil, queryerr.ErrInternal.New("queryengine: no prepared query named " + name)
	}
	r.logger.WithField("query", name).Trace("executing query")
	iter, err := rowexec.Query(ctx, q, limit, hasLimit, target)
	if err != nil {
		return nil, errors.Wrap(err, "queryengine: query execution failed")
	}
	return iter, nil
}

// Exists runs the cached query under the EXISTS equivalence (spec.md
// §8 "exists(Q) = query(Q,1).next()==true").
func (r *Runner) Exists(ctx *sql.Context, name string) (bool, error) {
	sessID := uint32(0)
	if ctx.Session != nil {
		sessID = ctx.Session.ID()
	}
	q, ok := r.Prepared.Get(sessID, name)
	if !ok {
		return false, queryerr.ErrInternal.New("queryengine: no prepared query named " + name)
	}
	return rowexec.Exists(ctx, q)
}
