package plan

// LockMode enumerates the FOR UPDATE lock modes (spec.md §3 "ForUpdate").
type LockMode int

const (
	// LockDefault waits up to the session's configured lock timeout.
	LockDefault LockMode = iota
	// LockWait waits up to a caller-supplied number of milliseconds.
	LockWait
	// LockNoWait fails immediately on contention.
	LockNoWait
	// LockSkipLocked silently skips contended rows.
	LockSkipLocked
)

// timeoutDefault/timeoutSkipLocked are the sentinel millisecond values
// the storage-layer LockRow collaborator (sql.Table.LockRow) expects,
// per spec.md §3 "ForUpdate": DEFAULT(-1), SKIP_LOCKED exposes -2.
const (
	timeoutDefault     int64 = -1
	timeoutSkipLocked  int64 = -2
)

// ForUpdate is the lock-mode descriptor attached to a Select (spec.md
// §3). It is a value type: constructing one always canonicalizes WAIT 0
// to NOWAIT, matching the spec's stated invariant.
type ForUpdate struct {
	mode          LockMode
	timeoutMillis int64
}

// NewForUpdateDefault returns the bare `FOR UPDATE` descriptor.
func NewForUpdateDefault() ForUpdate {
	return ForUpdate{mode: LockDefault, timeoutMillis: timeoutDefault}
}

// NewForUpdateWait returns `FOR UPDATE WAIT n`; n==0 canonicalizes to
// NOWAIT per the spec's stated invariant.
func NewForUpdateWait(millis int64) ForUpdate {
	if millis <= 0 {
		return NewForUpdateNoWait()
	}
	return ForUpdate{mode: LockWait, timeoutMillis: millis}
}

// NewForUpdateNoWait returns `FOR UPDATE NOWAIT`.
func NewForUpdateNoWait() ForUpdate {
	return ForUpdate{mode: LockNoWait, timeoutMillis: 0}
}

// NewForUpdateSkipLocked returns `FOR UPDATE SKIP LOCKED`.
func NewForUpdateSkipLocked() ForUpdate {
	return ForUpdate{mode: LockSkipLocked, timeoutMillis: timeoutSkipLocked}
}

// Mode returns the lock mode.
func (f ForUpdate) Mode() LockMode { return f.mode }

// TimeoutMillis returns the millisecond timeout to pass to
// sql.Table.LockRow, following the sentinel contract.
func (f ForUpdate) TimeoutMillis() int64 { return f.timeoutMillis }

// Retryable reports whether a query carrying this ForUpdate can safely
// be retried after a transaction conflict (spec.md §5 "Retryability"):
// true only for SKIP LOCKED, since every other mode can surface a
// user-visible lock-timeout that a blind retry would just repeat.
func (f ForUpdate) Retryable() bool {
	return f.mode == LockSkipLocked
}

func (f ForUpdate) String() string {
	switch f.mode {
	case LockDefault:
		return "FOR UPDATE"
	case LockWait:
		return "FOR UPDATE WAIT"
	case LockNoWait:
		return "FOR UPDATE NOWAIT"
	case LockSkipLocked:
		return "FOR UPDATE SKIP LOCKED"
	}
	return "FOR UPDATE"
}
