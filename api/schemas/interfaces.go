package schemas

import (
	"context"
	"encoding/json"
	"time"
)

// BrowserManager is responsible for the lifecycle of the browser process. It
// opens page sessions on demand and guarantees the process is terminated on
// Shutdown regardless of how the sessions ended.
type BrowserManager interface {
	// NewSession opens a fresh page (tab) owned by the managed browser.
	NewSession(ctx context.Context) (PageSession, error)
	// Shutdown closes all open sessions and terminates the browser process.
	Shutdown(ctx context.Context) error
}

// PageSession defines the narrow control surface for driving a single page.
// All communication with the page flows through evaluation calls; there is no
// push channel from the page back to the host, which is why callers observe
// page state by polling.
type PageSession interface {
	ID() string // Returns the unique ID of the session.
	// SetContent replaces the page's document with the given HTML.
	SetContent(ctx context.Context, html string) error
	// Evaluate runs a JavaScript expression in the page and returns its
	// JSON-encoded value.
	Evaluate(ctx context.Context, expression string) (json.RawMessage, error)
	// EvaluateAsync runs an expression that yields a promise and returns the
	// JSON-encoded resolved value.
	EvaluateAsync(ctx context.Context, expression string) (json.RawMessage, error)
	// WaitForExpression polls an expression inside the page until it becomes
	// truthy or the timeout elapses.
	WaitForExpression(ctx context.Context, expression string, timeout time.Duration) error
	// ConsoleLogs returns the console entries captured so far, oldest first.
	ConsoleLogs() []ConsoleLog
	// Close releases the page. It is safe to call more than once.
	Close(ctx context.Context) error
}
