// internal/browser/capture.go
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/log"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/easel-cli/api/schemas"
)

// consoleCapture listens to console, log, and exception events on a tab and
// keeps them for later inspection. The page under automation is the only
// place generation failures surface, so everything it says gets recorded.
type consoleCapture struct {
	logger *zap.Logger
	mirror bool

	mu      sync.RWMutex
	records []schemas.ConsoleLog
}

// newConsoleCapture builds a capture. When mirror is set every captured entry
// is also written to the easel log at debug level.
func newConsoleCapture(logger *zap.Logger, mirror bool) *consoleCapture {
	return &consoleCapture{
		logger:  logger.Named("console"),
		mirror:  mirror,
		records: make([]schemas.ConsoleLog, 0),
	}
}

// attach registers the event listener on the session context. The listener
// lives as long as the tab does.
func (c *consoleCapture) attach(sessionCtx context.Context) {
	chromedp.ListenTarget(sessionCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *cdpruntime.EventConsoleAPICalled:
			c.handleConsoleAPICalled(e)
		case *cdpruntime.EventExceptionThrown:
			c.handleExceptionThrown(e)
		case *log.EventEntryAdded:
			c.handleLogEntryAdded(e)
		}
	})
}

// enableLogDomain returns the action that turns on the browser's log domain.
// The runtime domain is enabled by the session itself.
func (c *consoleCapture) enableLogDomain() chromedp.Action {
	return log.Enable()
}

func (c *consoleCapture) handleConsoleAPICalled(e *cdpruntime.EventConsoleAPICalled) {
	c.append(schemas.ConsoleLog{
		Type:      string(e.Type),
		Timestamp: e.Timestamp.Time(),
		Text:      formatConsoleArgs(e.Args),
		Source:    "console-api",
	})
}

// formatConsoleArgs renders console arguments the way devtools would: the
// JSON value when one exists, the object description otherwise, and the bare
// type as a last resort.
func formatConsoleArgs(args []*cdpruntime.RemoteObject) string {
	var text strings.Builder
	for i, arg := range args {
		if i > 0 {
			text.WriteString(" ")
		}
		var val interface{}
		if arg.Value != nil && json.Unmarshal(arg.Value, &val) == nil {
			text.WriteString(fmt.Sprintf("%v", val))
		} else if arg.Description != "" {
			text.WriteString(arg.Description)
		} else {
			text.WriteString(fmt.Sprintf("[%s]", arg.Type))
		}
	}
	return text.String()
}

func (c *consoleCapture) handleExceptionThrown(e *cdpruntime.EventExceptionThrown) {
	if e.ExceptionDetails == nil {
		return
	}
	// The description usually has the most useful info, including the stack.
	text := e.ExceptionDetails.Text
	if e.ExceptionDetails.Exception != nil && e.ExceptionDetails.Exception.Description != "" {
		text = e.ExceptionDetails.Exception.Description
	}

	c.append(schemas.ConsoleLog{
		Type:      "exception",
		Timestamp: e.Timestamp.Time(),
		Text:      text,
		Source:    "runtime",
		URL:       e.ExceptionDetails.URL,
		Line:      e.ExceptionDetails.LineNumber,
	})
}

func (c *consoleCapture) handleLogEntryAdded(e *log.EventEntryAdded) {
	if e.Entry == nil {
		return
	}
	c.append(schemas.ConsoleLog{
		Type:      string(e.Entry.Level),
		Timestamp: e.Entry.Timestamp.Time(),
		Text:      e.Entry.Text,
		Source:    string(e.Entry.Source),
		URL:       e.Entry.URL,
		Line:      e.Entry.LineNumber,
	})
}

func (c *consoleCapture) append(entry schemas.ConsoleLog) {
	c.mu.Lock()
	c.records = append(c.records, entry)
	c.mu.Unlock()

	if c.mirror {
		c.logger.Debug("Page console output.",
			zap.String("type", entry.Type),
			zap.String("text", entry.Text),
		)
	}
}

// entries returns a copy of everything captured so far.
func (c *consoleCapture) entries() []schemas.ConsoleLog {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]schemas.ConsoleLog, len(c.records))
	copy(out, c.records)
	return out
}
