// internal/browser/manager_test.go
package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/easel-cli/internal/config"
)

func TestManagerSessionLifecycle(t *testing.T) {
	m := newTestManager(t)

	ctx, cancel := context.WithTimeout(t.Context(), 30*time.Second)
	defer cancel()

	s, err := m.NewSession(ctx)
	require.NoError(t, err, "Failed to create session")
	require.NotNil(t, s)
	assert.NotEmpty(t, s.ID(), "Session should carry a non-empty ID")

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer closeCancel()
	require.NoError(t, s.Close(closeCtx))

	// Closing twice is a no-op.
	require.NoError(t, s.Close(closeCtx))
}

func TestManagerSessionIDsAreUnique(t *testing.T) {
	m := newTestManager(t)

	ctx, cancel := context.WithTimeout(t.Context(), 45*time.Second)
	defer cancel()

	first, err := m.NewSession(ctx)
	require.NoError(t, err)
	second, err := m.NewSession(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID(), second.ID())

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer closeCancel()
	require.NoError(t, first.Close(closeCtx))
	require.NoError(t, second.Close(closeCtx))
}

func TestManagerEnforcesSessionCap(t *testing.T) {
	m := newTestManager(t, func(cfg *config.BrowserConfig) {
		cfg.MaxSessions = 1
	})

	ctx, cancel := context.WithTimeout(t.Context(), 45*time.Second)
	defer cancel()

	first, err := m.NewSession(ctx)
	require.NoError(t, err, "First session should be granted immediately")

	// The slot is taken, so a second request must block until its context
	// expires.
	blockedCtx, blockedCancel := context.WithTimeout(t.Context(), 500*time.Millisecond)
	defer blockedCancel()
	_, err = m.NewSession(blockedCtx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer closeCancel()
	require.NoError(t, first.Close(closeCtx))

	// Releasing the first session frees the slot for the next caller.
	second, err := m.NewSession(ctx)
	require.NoError(t, err, "Session slot should be reusable after Close")
	require.NoError(t, second.Close(closeCtx))
}

func TestManagerRejectsCancelledContext(t *testing.T) {
	m := newTestManager(t)

	cancelled, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := m.NewSession(cancelled)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
