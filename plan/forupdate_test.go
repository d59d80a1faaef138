package plan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestForUpdateWaitCanonicalizesToNoWait(t *testing.T) {
	fu := NewForUpdateWait(0)
	require.Equal(t, LockNoWait, fu.Mode())

	fu = NewForUpdateWait(-5)
	require.Equal(t, LockNoWait, fu.Mode())

	fu = NewForUpdateWait(200)
	require.Equal(t, LockWait, fu.Mode())
	require.Equal(t, int64(200), fu.TimeoutMillis())
}

func TestForUpdateRetryableOnlyForSkipLocked(t *testing.T) {
	require.True(t, NewForUpdateSkipLocked().Retryable())
	require.False(t, NewForUpdateDefault().Retryable())
	require.False(t, NewForUpdateNoWait().Retryable())
	require.False(t, NewForUpdateWait(100).Retryable())
}

func TestForUpdateStringForms(t *testing.T) {
	require.Equal(t, "FOR UPDATE", NewForUpdateDefault().String())
	require.Equal(t, "FOR UPDATE WAIT", NewForUpdateWait(100).String())
	require.Equal(t, "FOR UPDATE NOWAIT", NewForUpdateNoWait().String())
	require.Equal(t, "FOR UPDATE SKIP LOCKED", NewForUpdateSkipLocked().String())
}

func TestForUpdateTimeoutSentinels(t *testing.T) {
	require.Equal(t, int64(-1), NewForUpdateDefault().TimeoutMillis())
	require.Equal(t, int64(-2), NewForUpdateSkipLocked().TimeoutMillis())
	require.Equal(t, int64(0), NewForUpdateNoWait().TimeoutMillis())
}
