// internal/browser/helpers_test.go
package browser

import (
	"context"
	"os/exec"
	"runtime"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/semaphore"

	"github.com/xkilldash9x/easel-cli/internal/config"
)

var (
	// globalProcessSemaphore limits the number of concurrent browser
	// processes across all tests in the package.
	globalProcessSemaphore     *semaphore.Weighted
	globalProcessSemaphoreOnce sync.Once
)

const (
	maxTestConcurrency      = 2
	semaphoreAcquireTimeout = 10 * time.Second
	shutdownTimeout         = 15 * time.Second
)

// browserCandidates mirrors the executables the allocator itself knows how
// to locate.
var browserCandidates = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"headless-shell",
}

// getGlobalProcessSemaphore initializes the semaphore only once across all
// tests in the package.
func getGlobalProcessSemaphore() *semaphore.Weighted {
	globalProcessSemaphoreOnce.Do(func() {
		concurrency := int64(runtime.GOMAXPROCS(0))
		if concurrency > maxTestConcurrency {
			concurrency = maxTestConcurrency
		}
		if concurrency < 1 {
			concurrency = 1
		}
		globalProcessSemaphore = semaphore.NewWeighted(concurrency)
	})
	return globalProcessSemaphore
}

// requireBrowser skips the test when no browser binary is installed.
func requireBrowser(t *testing.T) {
	t.Helper()
	for _, candidate := range browserCandidates {
		if _, err := exec.LookPath(candidate); err == nil {
			return
		}
	}
	t.Skip("No browser binary found in PATH, skipping integration test.")
}

func testBrowserConfig() config.BrowserConfig {
	return config.BrowserConfig{
		Headless:        true,
		DisableCache:    true,
		MaxSessions:     2,
		ProtocolTimeout: 30 * time.Second,
		// Shared memory in CI containers is tiny; render into /tmp instead.
		Args: []string{"--disable-dev-shm-usage"},
	}
}

// newTestManager spins up a real browser process, gated by the package
// semaphore so parallel packages do not fork-bomb the host. Cleanup shuts it
// down within shutdownTimeout.
func newTestManager(t *testing.T, mutate ...func(*config.BrowserConfig)) *Manager {
	t.Helper()
	requireBrowser(t)

	sem := getGlobalProcessSemaphore()
	acquireCtx, acquireCancel := context.WithTimeout(context.Background(), semaphoreAcquireTimeout)
	if err := sem.Acquire(acquireCtx, 1); err != nil {
		acquireCancel()
		t.Fatalf("Failed to acquire browser semaphore: %v", err)
	}
	acquireCancel()
	t.Cleanup(func() { sem.Release(1) })

	cfg := testBrowserConfig()
	for _, m := range mutate {
		m(&cfg)
	}

	logger := zaptest.NewLogger(t).With(zap.String("test", t.Name()))

	m, err := NewManager(t.Context(), logger, cfg)
	if err != nil {
		t.Fatalf("Failed to initialize browser manager: %v", err)
	}
	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := m.Shutdown(shutdownCtx); err != nil {
			t.Logf("Warning: error during browser manager shutdown: %v", err)
		}
	})
	return m
}
