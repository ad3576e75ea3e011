// internal/browser/session.go
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/easel-cli/api/schemas"
	"github.com/xkilldash9x/easel-cli/internal/config"
)

// closeGraceTimeout bounds how long Close waits for the tab to confirm
// termination.
const closeGraceTimeout = 10 * time.Second

// Session is a single isolated browser tab driven over CDP.
type Session struct {
	id     string
	logger *zap.Logger
	cfg    config.BrowserConfig

	// ctx carries the CDP target for this tab.
	ctx    context.Context
	cancel context.CancelFunc

	capture *consoleCapture

	isClosed bool
	mu       sync.Mutex
}

var _ schemas.PageSession = (*Session)(nil)

// newSession creates the tab, enables the event domains, and attaches the
// console capture. ctx bounds the setup work only.
func newSession(ctx context.Context, allocCtx context.Context, logger *zap.Logger, cfg config.BrowserConfig) (*Session, error) {
	id := uuid.New().String()

	sessionCtx, cancel := chromedp.NewContext(allocCtx)
	s := &Session{
		id:     id,
		logger: logger.With(zap.String("session_id", id[:8])),
		cfg:    cfg,
		ctx:    sessionCtx,
		cancel: cancel,
	}
	s.capture = newConsoleCapture(s.logger, cfg.Debug)
	s.capture.attach(sessionCtx)

	if err := s.prepare(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to prepare session: %w", err)
	}

	s.logger.Debug("Browser session initialized.")
	return s, nil
}

// prepare creates the actual tab and enables the CDP domains the capture
// needs. Events only flow once runtime and log are enabled.
func (s *Session) prepare(ctx context.Context) error {
	return s.run(ctx,
		network.Enable(),
		cdpruntime.Enable(),
		s.capture.enableLogDomain(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if s.cfg.DisableCache {
				return network.SetCacheDisabled(true).Do(ctx)
			}
			return nil
		}),
	)
}

// run executes CDP actions on this tab. The session context carries the
// target; the caller's context and the configured protocol timeout bound the
// operation.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	opCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()

	opCtx, cancelTimeout := context.WithTimeout(opCtx, s.cfg.ProtocolTimeout)
	defer cancelTimeout()

	err := chromedp.Run(opCtx, actions...)
	if err != nil && opCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		return fmt.Errorf("protocol command timed out after %v: %w", s.cfg.ProtocolTimeout, opCtx.Err())
	}
	return err
}

// ID returns the unique identifier for this session.
func (s *Session) ID() string {
	return s.id
}

// SetContent replaces the document of the tab with the given HTML. The tab is
// parked on about:blank first so the document has a normal origin-less frame.
func (s *Session) SetContent(ctx context.Context, html string) error {
	s.logger.Debug("Installing document.", zap.Int("bytes", len(html)))
	return s.run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
	)
}

// Evaluate runs a JavaScript expression in the page and returns the raw JSON
// value. Exceptions thrown by the expression come back as errors.
func (s *Session) Evaluate(ctx context.Context, expression string) (json.RawMessage, error) {
	return s.evaluate(ctx, expression, false)
}

// EvaluateAsync runs an expression that yields a promise and resolves it
// before returning the raw JSON value. A rejected promise comes back as an
// error carrying the rejection message.
func (s *Session) EvaluateAsync(ctx context.Context, expression string) (json.RawMessage, error) {
	return s.evaluate(ctx, expression, true)
}

func (s *Session) evaluate(ctx context.Context, expression string, awaitPromise bool) (json.RawMessage, error) {
	var res json.RawMessage
	err := s.run(ctx,
		chromedp.Evaluate(expression, &res, func(p *cdpruntime.EvaluateParams) *cdpruntime.EvaluateParams {
			return p.WithReturnByValue(true).WithAwaitPromise(awaitPromise).WithSilent(true)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("evaluation failed: %w", err)
	}
	return res, nil
}

// WaitForExpression polls the given expression until it is truthy or the
// timeout elapses. The poll carries its own deadline, so the protocol timeout
// does not apply here.
func (s *Session) WaitForExpression(ctx context.Context, expression string, timeout time.Duration) error {
	opCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()

	var res json.RawMessage
	err := chromedp.Run(opCtx,
		chromedp.Poll(expression, &res, chromedp.WithPollingTimeout(timeout)),
	)
	if err != nil {
		return fmt.Errorf("waiting for expression: %w", err)
	}
	return nil
}

// ConsoleLogs returns a copy of everything the page wrote to the console so
// far, exceptions included.
func (s *Session) ConsoleLogs() []schemas.ConsoleLog {
	return s.capture.entries()
}

// Close terminates the tab. Safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return nil
	}
	s.isClosed = true
	sessionCtx := s.ctx
	sessionCancel := s.cancel
	s.mu.Unlock()

	if sessionCancel != nil {
		sessionCancel()
	}
	if sessionCtx == nil {
		return nil
	}

	// Wait for the tab to confirm termination, respecting the caller's
	// deadline and the hard grace period.
	waitCtx, cancelWait := context.WithTimeout(ctx, closeGraceTimeout)
	defer cancelWait()

	select {
	case <-sessionCtx.Done():
		s.logger.Debug("Browser session closed gracefully.")
	case <-waitCtx.Done():
		s.logger.Warn("Deadline exceeded waiting for browser session to close.", zap.Error(waitCtx.Err()))
	}

	return nil
}
