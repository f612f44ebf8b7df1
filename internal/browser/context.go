// File: internal/browser/context.go
package browser

import "context"

// CombineContext derives a context from primary (which carries the CDP
// target values) that is also canceled when secondary is done. chromedp
// needs the target values from the page context while the caller supplies
// the operational deadline.
func CombineContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(primary)

	go func() {
		select {
		case <-secondary.Done():
			cancel()
		case <-combined.Done():
		}
	}()

	return combined, cancel
}
