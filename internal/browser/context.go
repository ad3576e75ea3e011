// internal/browser/context.go
package browser

import "context"

// CombineContext creates a new context derived from primary that is canceled
// when *either* primary or secondary is canceled. It inherits values from
// primary. Chromedp session contexts carry the CDP target in their values, so
// the session context must stay the parent while the caller's context
// contributes only its deadline and cancellation.
func CombineContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(primary)

	// The goroutine stops when either context is done.
	go func() {
		select {
		case <-secondary.Done():
			cancel()
		case <-combined.Done():
		}
	}()

	return combined, cancel
}
