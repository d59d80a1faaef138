package rowexec

import (
	"github.com/relixdb/queryengine/plan"
	"github.com/relixdb/queryengine/queryerr"
	"github.com/relixdb/queryengine/sql"
)

// lockForUpdate attempts to lock row on behalf of every non-outer filter
// whose backing table supports row locks, following the per-mode
// semantics of spec.md §5 "FOR UPDATE locking". It returns
// (met=false, nil) for SKIP_LOCKED contention (the row is silently
// skipped, not an error) and, for every other mode's contention, the
// table's LockRow error unchanged (queryerr.ErrLockTimeout for memtable).
func lockForUpdate(ctx *sql.Context, fu *plan.ForUpdate, filters []sql.TableFilter) (met bool, err error) {
	timeout := resolveTimeout(ctx, fu)
	for _, f := range filters {
		if f.IsJoinOuter() {
			continue
		}
		table := f.Table()
		if !table.IsRowLockable() {
			continue
		}
		row := f.CurrentRow()
		lockErr := table.LockRow(ctx, row, timeout)
		if lockErr != nil {
			if fu.Mode() == plan.LockSkipLocked {
				return false, nil
			}
			return false, lockErr
		}
	}
	return true, nil
}

func resolveTimeout(ctx *sql.Context, fu *plan.ForUpdate) int64 {
	switch fu.Mode() {
	case plan.LockDefault:
		if ctx.Session != nil {
			return ctx.Session.GetLockTimeoutMillis()
		}
		return fu.TimeoutMillis()
	default:
		return fu.TimeoutMillis()
	}
}

// isRetryableAfterLockFailure reports whether err is the kind of
// lock-timeout a retry could plausibly resolve; used by callers
// implementing spec.md §5 "Retryability" (a query may only be retried
// automatically when it carries no FOR UPDATE, or SKIP LOCKED).
func isRetryableAfterLockFailure(fu *plan.ForUpdate, err error) bool {
	if fu == nil {
		return true
	}
	if fu.Retryable() {
		return true
	}
	return !queryerr.ErrLockTimeout.Is(err)
}
