package plan

import "github.com/relixdb/queryengine/sql"

// PlanResult is what the cost-based Optimizer returns for a set of
// TableFilters and a WHERE condition: the chosen top (outermost/driving)
// filter, the join order, and an opaque cost estimate used only for
// comparing plans (spec.md §2 "Optimizer (cost-based)").
type PlanResult struct {
	JoinOrder []sql.TableFilter
	Top       sql.TableFilter
	Cost      float64
}

// Optimizer picks an access path and join order. The rule-based picker
// (joinorder.go) is the default implementation; a real cost-based
// optimizer is a pluggable external collaborator, consistent with
// spec.md §4.2 ("the cost-based Optimizer may replace this").
type Optimizer interface {
	Optimize(ctx *sql.Context, filters []sql.TableFilter, where sql.Expression) (PlanResult, error)
}

// ruleBasedOptimizer wraps RuleBasedJoinOrder to satisfy Optimizer,
// estimating cost as the product of the row counts seen after pushdown
// (a coarse but monotone proxy — good enough to compare two plans for
// the same query, never compared across queries).
type ruleBasedOptimizer struct{}

// NewRuleBasedOptimizer returns the default, dependency-free Optimizer.
func NewRuleBasedOptimizer() Optimizer { return ruleBasedOptimizer{} }

func (ruleBasedOptimizer) Optimize(ctx *sql.Context, filters []sql.TableFilter, where sql.Expression) (PlanResult, error) {
	order, err := RuleBasedJoinOrder(ctx, filters, where)
	if err != nil {
		return PlanResult{}, err
	}
	cost := 1.0
	for _, f := range order {
		n, err := f.EstimatedRowCount(ctx)
		if err != nil {
			return PlanResult{}, err
		}
		if n < 1 {
			n = 1
		}
		cost *= float64(n)
	}
	var top sql.TableFilter
	if len(order) > 0 {
		top = order[0]
	}
	return PlanResult{JoinOrder: order, Top: top, Cost: cost}, nil
}
