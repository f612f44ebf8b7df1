// File: internal/browser/pool.go
// Description: Owns the headless browser process. Sessions get isolated
// page contexts (tabs) derived from one shared allocator.
package browser

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webeval-cli/internal/config"
	"github.com/xkilldash9x/webeval-cli/internal/observability"
)

// Pool manages the browser process lifecycle. All page contexts derive
// from its allocator context.
type Pool struct {
	logger *zap.Logger
	cfg    config.BrowserConfig

	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc

	// wg tracks open pages for a graceful shutdown.
	wg sync.WaitGroup
}

// NewPool launches the browser process and verifies it responds.
func NewPool(ctx context.Context, cfg config.BrowserConfig) (*Pool, error) {
	p := &Pool{
		logger: observability.GetLogger().Named("browser_pool"),
		cfg:    cfg,
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, p.buildAllocatorOptions()...)
	p.allocatorCtx = allocCtx
	p.allocatorCancel = cancel

	// Probe with a throwaway tab so a broken Chrome install fails fast.
	testCtx, cancelTimeout := context.WithTimeout(allocCtx, 30*time.Second)
	testCtx, cancelTest := chromedp.NewContext(testCtx)
	defer cancelTest()
	defer cancelTimeout()

	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank")); err != nil {
		cancel()
		return nil, fmt.Errorf("browser failed to start or respond: %w", err)
	}

	p.logger.Info("Browser launched.",
		zap.Bool("headless", cfg.Headless),
		zap.Int("viewport_width", cfg.ViewportWidth),
		zap.Int("viewport_height", cfg.ViewportHeight),
		zap.Float64("device_scale_factor", cfg.DeviceScaleFactor))
	return p, nil
}

func (p *Pool) buildAllocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)

	opts = append(opts,
		chromedp.Flag("headless", p.cfg.Headless),
		chromedp.Flag("ignore-certificate-errors", p.cfg.IgnoreTLS),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-gpu", p.cfg.Headless),
	)
	if p.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(p.cfg.UserAgent))
	}

	// Container-friendly flags.
	if runtime.GOOS == "linux" {
		opts = append(opts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)
	}
	return opts
}

// NewDriver opens an isolated tab with the configured viewport emulation
// and returns a driver bound to it. The caller must Close the driver.
func (p *Pool) NewDriver(ctx context.Context) (*CDPDriver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pageCtx, cancelPage := chromedp.NewContext(p.allocatorCtx)

	err := chromedp.Run(pageCtx, chromedp.EmulateViewport(
		int64(p.cfg.ViewportWidth),
		int64(p.cfg.ViewportHeight),
		chromedp.EmulateScale(p.cfg.DeviceScaleFactor),
	))
	if err != nil {
		cancelPage()
		return nil, fmt.Errorf("failed to open page context: %w", err)
	}

	p.wg.Add(1)
	var once sync.Once
	cancelTracked := func() {
		once.Do(func() {
			cancelPage()
			p.wg.Done()
		})
	}
	return NewCDPDriver(pageCtx, cancelTracked, p.cfg.NavigationTimeout, p.logger), nil
}

// Shutdown waits for open pages (bounded by ctx) and terminates the
// browser process.
func (p *Pool) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		p.logger.Warn("Shutdown deadline exceeded; terminating browser with pages open.", zap.Error(ctx.Err()))
	}

	if p.allocatorCancel != nil {
		p.allocatorCancel()
		<-p.allocatorCtx.Done()
	}
	p.logger.Info("Browser terminated.")
	return nil
}
