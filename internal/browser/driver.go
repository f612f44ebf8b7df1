// File: internal/browser/driver.go
// Description: Concrete chromedp-backed implementation of the abstract
// driver boundary. One CDPDriver owns one page (tab) context.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webeval-cli/api/schemas"
)

// opTimeout bounds individual protocol calls so a wedged renderer cannot
// hold a step forever. The session timeout remains the overall backstop.
const opTimeout = 10 * time.Second

// CDPDriver drives a single Chrome tab over the DevTools protocol.
type CDPDriver struct {
	pageCtx    context.Context
	cancelPage context.CancelFunc
	navTimeout time.Duration
	logger     *zap.Logger
}

var _ schemas.Driver = (*CDPDriver)(nil)

// NewCDPDriver wraps an existing chromedp page context. cancelPage is
// invoked on Close.
func NewCDPDriver(pageCtx context.Context, cancelPage context.CancelFunc, navTimeout time.Duration, logger *zap.Logger) *CDPDriver {
	if navTimeout <= 0 {
		navTimeout = 30 * time.Second
	}
	return &CDPDriver{
		pageCtx:    pageCtx,
		cancelPage: cancelPage,
		navTimeout: navTimeout,
		logger:     logger.Named("driver"),
	}
}

// run executes chromedp actions on the page context, bounded by the
// operational context and a per-call timeout.
func (d *CDPDriver) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	opCtx, cancelOp := context.WithTimeout(ctx, timeout)
	defer cancelOp()

	combined, cancel := CombineContext(d.pageCtx, opCtx)
	defer cancel()

	err := chromedp.Run(combined, actions...)
	if err != nil && opCtx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("browser operation timed out after %v: %w", timeout, opCtx.Err())
	}
	return err
}

// Navigate loads the URL and waits for the document body to be ready.
func (d *CDPDriver) Navigate(ctx context.Context, url string) error {
	d.logger.Debug("navigating", zap.String("url", url))
	return d.run(ctx, d.navTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// CaptureScreenshot takes a protocol-level screenshot from the surface.
// Nothing about the page (focus, scroll, dialogs) is touched.
func (d *CDPDriver) CaptureScreenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := d.run(ctx, opTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			WithFromSurface(true).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// PageInfo reports URL, title, CSS-pixel viewport dimensions and the
// device scale factor.
func (d *CDPDriver) PageInfo(ctx context.Context) (*schemas.PageInfo, error) {
	info := &schemas.PageInfo{}
	var scale float64

	err := d.run(ctx, opTimeout,
		chromedp.Location(&info.URL),
		chromedp.Title(&info.Title),
		chromedp.Evaluate("window.devicePixelRatio", &scale),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, _, _, _, cssVisual, _, err := page.GetLayoutMetrics().Do(ctx)
			if err != nil {
				return err
			}
			if cssVisual != nil {
				info.Viewport.Width = cssVisual.ClientWidth
				info.Viewport.Height = cssVisual.ClientHeight
			}
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	if scale <= 0 {
		scale = 1.0
	}
	info.Viewport.Scale = scale
	return info, nil
}

// DispatchMouseEvent sends one raw mouse event at physical coordinates.
func (d *CDPDriver) DispatchMouseEvent(ctx context.Context, data schemas.MouseEventData) error {
	p := input.DispatchMouseEvent(input.MouseType(data.Type), data.X, data.Y).
		WithClickCount(int64(data.ClickCount))
	if data.Button != "" {
		p = p.WithButton(input.MouseButton(data.Button))
	}
	if data.Type == schemas.MouseWheel {
		p = p.WithDeltaX(data.DeltaX).WithDeltaY(data.DeltaY)
	}
	return d.run(ctx, opTimeout, p)
}

// InsertText types into whatever element holds focus, without key events
// that could trigger focus-stealing handlers.
func (d *CDPDriver) InsertText(ctx context.Context, text string) error {
	return d.run(ctx, opTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.InsertText(text).Do(ctx)
	}))
}

// OuterHTML serializes the current document.
func (d *CDPDriver) OuterHTML(ctx context.Context) (string, error) {
	var html string
	err := d.run(ctx, opTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	if err != nil {
		return "", err
	}
	return html, nil
}

// EvaluateJSON evaluates a JavaScript expression and returns its
// JSON-serialized result. Promises are awaited; JS exceptions surface as
// errors.
func (d *CDPDriver) EvaluateJSON(ctx context.Context, expr string) (json.RawMessage, error) {
	var res json.RawMessage
	err := d.run(ctx, opTimeout,
		chromedp.Evaluate(expr, &res, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithReturnByValue(true).WithAwaitPromise(true).WithSilent(true)
		}),
	)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Close tears down the page context.
func (d *CDPDriver) Close() error {
	if d.cancelPage != nil {
		d.cancelPage()
	}
	return nil
}
