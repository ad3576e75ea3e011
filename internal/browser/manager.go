// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/xkilldash9x/easel-cli/api/schemas"
	"github.com/xkilldash9x/easel-cli/internal/config"
)

// launchProbeTimeout bounds the liveness check performed right after the
// browser process starts.
const launchProbeTimeout = 30 * time.Second

// Manager handles the lifecycle of the browser process. Every session is an
// isolated tab derived from the manager's allocator context.
type Manager struct {
	logger *zap.Logger
	cfg    config.BrowserConfig

	// allocatorCtx manages the entire browser process. All session contexts
	// are derived from this.
	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc

	// slots caps the number of concurrently open sessions at cfg.MaxSessions.
	slots *semaphore.Weighted

	// wg tracks active sessions for a graceful shutdown.
	wg sync.WaitGroup
}

var _ schemas.BrowserManager = (*Manager)(nil)

// NewManager launches the browser process and verifies it is responsive.
func NewManager(ctx context.Context, logger *zap.Logger, cfg config.BrowserConfig) (*Manager, error) {
	m := &Manager{
		logger: logger.Named("browser_manager"),
		cfg:    cfg,
		slots:  semaphore.NewWeighted(cfg.MaxSessions),
	}

	if err := m.launchBrowser(ctx); err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	return m, nil
}

// launchBrowser prepares allocator options and starts the browser process.
func (m *Manager) launchBrowser(ctx context.Context) error {
	m.logger.Info("Initializing browser allocator...")

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, m.buildAllocatorOptions()...)
	m.allocatorCtx = allocCtx
	m.allocatorCancel = cancel

	// Open a throwaway tab with a timeout to verify the browser starts and
	// is responsive.
	probeCtx, cancelProbe := context.WithTimeout(allocCtx, launchProbeTimeout)
	probeCtx, cancelProbeTab := chromedp.NewContext(probeCtx)
	defer cancelProbeTab()
	defer cancelProbe()

	if err := chromedp.Run(probeCtx, chromedp.Navigate("about:blank")); err != nil {
		m.allocatorCancel() // Ensure cleanup if the probe fails.
		return fmt.Errorf("browser failed to start or respond: %w", err)
	}

	m.logger.Info("Browser launched successfully and is responsive.")
	return nil
}

// buildAllocatorOptions assembles the launch flags for the browser process.
// Flags appended after the defaults override them.
func (m *Manager) buildAllocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", m.cfg.Headless),
		chromedp.Flag("disable-gpu", m.cfg.Headless),
		chromedp.Flag("ignore-certificate-errors", m.cfg.IgnoreTLSErrors),
		// Drop the default flag that advertises automation and the Blink
		// feature behind navigator.webdriver.
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
	)

	// Add custom arguments from config.yaml.
	for _, arg := range m.cfg.Args {
		parts := strings.SplitN(arg, "=", 2)
		flagName := strings.TrimPrefix(parts[0], "--")

		if len(parts) == 2 {
			opts = append(opts, chromedp.Flag(flagName, parts[1]))
		} else {
			opts = append(opts, chromedp.Flag(flagName, true))
		}
	}

	// Flags required for running inside containers (e.g. Docker on Linux).
	if runtime.GOOS == "linux" {
		opts = append(opts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-setuid-sandbox", true),
		)
	}

	return opts
}

// NewSession opens a fresh tab. The call blocks until a session slot is
// available or ctx is canceled.
func (m *Manager) NewSession(ctx context.Context) (schemas.PageSession, error) {
	if err := m.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("failed to acquire session slot: %w", err)
	}

	s, err := newSession(ctx, m.allocatorCtx, m.logger, m.cfg)
	if err != nil {
		m.slots.Release(1)
		return nil, err
	}

	m.wg.Add(1)

	// Wrap the session so the slot and WaitGroup are released exactly once
	// when the session closes.
	return &sessionHandle{PageSession: s, manager: m}, nil
}

// Shutdown waits for active sessions to finish and then terminates the
// browser process. The wait respects the caller's deadline.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Browser manager shutdown initiated. Waiting for active sessions to complete...")

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("All sessions have completed.")
	case <-ctx.Done():
		m.logger.Warn("Shutdown deadline exceeded. Forcing browser termination.", zap.Error(ctx.Err()))
	}

	if m.allocatorCancel != nil {
		m.logger.Info("Shutting down browser process...")
		m.allocatorCancel()
		// Wait for the allocator context to confirm termination.
		<-m.allocatorCtx.Done()
	}
	return nil
}

// sessionHandle decorates a session so the manager's bookkeeping is released
// exactly once on Close.
type sessionHandle struct {
	schemas.PageSession
	manager *Manager
	closed  bool
	mu      sync.Mutex
}

// Close closes the underlying session and returns its slot to the manager.
func (h *sessionHandle) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	err := h.PageSession.Close(ctx)

	h.closed = true
	h.manager.wg.Done()
	h.manager.slots.Release(1)
	return err
}
