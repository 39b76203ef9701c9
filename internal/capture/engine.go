// internal/capture/engine.go
package capture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// Result page selectors, outermost first. The primary container appears once
// the page has fully rendered the gauge; the data block renders earlier.
const (
	selResultContainer = ".result-container-speed-test"
	selResultData      = ".result-data"
)

// Options configures a capture Engine. Zero values fall back to the defaults
// below via New.
type Options struct {
	ChromePath        string
	UserAgent         string
	ViewportWidth     int64
	ViewportHeight    int64
	NavigationTimeout time.Duration
	PrimaryWait       time.Duration
	SecondaryWait     time.Duration
	FallbackDelay     time.Duration
	SettleDelay       time.Duration
}

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultViewportWidth     = 1920
	defaultViewportHeight    = 1080
	defaultNavigationTimeout = 60 * time.Second
	defaultPrimaryWait       = 15 * time.Second
	defaultSecondaryWait     = 10 * time.Second
	defaultFallbackDelay     = 5 * time.Second
	defaultSettleDelay       = 2 * time.Second
)

// Engine takes full-page screenshots of result pages. Every Capture call runs
// an isolated Chrome process that is torn down before the call returns, so a
// crashed or wedged renderer never leaks into the next URL.
type Engine struct {
	opts Options
}

// New creates an Engine, filling unset options with defaults and resolving the
// Chrome binary if no explicit path was given.
func New(opts Options) *Engine {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.ViewportWidth <= 0 {
		opts.ViewportWidth = defaultViewportWidth
	}
	if opts.ViewportHeight <= 0 {
		opts.ViewportHeight = defaultViewportHeight
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = defaultNavigationTimeout
	}
	if opts.PrimaryWait <= 0 {
		opts.PrimaryWait = defaultPrimaryWait
	}
	if opts.SecondaryWait <= 0 {
		opts.SecondaryWait = defaultSecondaryWait
	}
	if opts.FallbackDelay <= 0 {
		opts.FallbackDelay = defaultFallbackDelay
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = defaultSettleDelay
	}
	if opts.ChromePath == "" {
		opts.ChromePath = FindChrome()
	}
	return &Engine{opts: opts}
}

// Capture navigates to url in a fresh headless browser and returns a full-page
// PNG. The browser process is always torn down before returning, on every
// path. Errors are *CaptureError.
func (e *Engine) Capture(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-hang-monitor", true),
		chromedp.Flag("disable-prompt-on-repost", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("window-size", fmt.Sprintf("%d,%d", e.opts.ViewportWidth, e.opts.ViewportHeight)),
		chromedp.UserAgent(e.opts.UserAgent),
	}
	if e.opts.ChromePath != "" {
		allocOpts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(e.opts.ChromePath)}, allocOpts...)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	// Start the browser process before navigating so a startup failure is
	// distinguishable from a navigation failure.
	if err := chromedp.Run(browserCtx,
		chromedp.EmulateViewport(e.opts.ViewportWidth, e.opts.ViewportHeight),
	); err != nil {
		return nil, NewCaptureError(ErrCodeBrowserStart, "browser failed to start", err)
	}

	log.Debug().
		Str("url", url).
		Dur("startup", time.Since(start)).
		Msg("Browser started")

	if err := e.navigateDOMReady(browserCtx, url); err != nil {
		return nil, err
	}

	e.awaitResult(browserCtx, url)

	// Settle delay: the gauge animates briefly after the result elements land.
	_ = chromedp.Run(browserCtx, chromedp.Sleep(e.opts.SettleDelay))

	var buf []byte
	if err := chromedp.Run(browserCtx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, NewCaptureError(ErrCodeScreenshot, "screenshot failed", err)
	}

	log.Info().
		Str("url", url).
		Int("bytes", len(buf)).
		Dur("elapsed", time.Since(start)).
		Msg("Capture completed")

	return buf, nil
}

// navigateDOMReady starts navigation and returns once DOMContentLoaded fires,
// without waiting for the load event or network idle. Result pages keep
// long-polling connections open, so the load event may never come.
func (e *Engine) navigateDOMReady(browserCtx context.Context, url string) error {
	navCtx, navCancel := context.WithTimeout(browserCtx, e.opts.NavigationTimeout)
	defer navCancel()

	domReady := make(chan struct{}, 1)
	listenCtx, stopListening := context.WithCancel(navCtx)
	defer stopListening()
	chromedp.ListenTarget(listenCtx, func(ev interface{}) {
		if _, ok := ev.(*page.EventDomContentEventFired); ok {
			select {
			case domReady <- struct{}{}:
			default:
			}
		}
	})

	err := chromedp.Run(navCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, _, errText, err := page.Navigate(url).Do(ctx)
		if err != nil {
			return err
		}
		if errText != "" {
			return errors.New(errText)
		}
		return nil
	}))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return NewCaptureError(ErrCodeNavTimeout, "navigation timeout", err)
		}
		return NewCaptureError(ErrCodeNavigation, "navigation failed", err)
	}

	select {
	case <-domReady:
		return nil
	case <-navCtx.Done():
		if errors.Is(navCtx.Err(), context.DeadlineExceeded) {
			return NewCaptureError(ErrCodeNavTimeout, "navigation timeout", navCtx.Err())
		}
		return NewCaptureError(ErrCodeNavigation, "navigation aborted", navCtx.Err())
	}
}

// awaitResult waits for the result content using a tiered strategy: the full
// result container first, the bare data block second, and a fixed delay as the
// last resort. A missed tier is not an error; the screenshot is taken with
// whatever has rendered.
func (e *Engine) awaitResult(browserCtx context.Context, url string) {
	if err := e.waitVisible(browserCtx, selResultContainer, e.opts.PrimaryWait); err == nil {
		return
	}
	log.Debug().Str("url", url).Str("selector", selResultContainer).Msg("Primary selector not found, trying fallback")

	if err := e.waitVisible(browserCtx, selResultData, e.opts.SecondaryWait); err == nil {
		return
	}
	log.Debug().Str("url", url).Str("selector", selResultData).Msg("Fallback selector not found, using fixed delay")

	_ = chromedp.Run(browserCtx, chromedp.Sleep(e.opts.FallbackDelay))
}

// waitVisible runs a bounded WaitVisible. The timeout applies to this action
// only; the browser context survives it.
func (e *Engine) waitVisible(browserCtx context.Context, sel string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(browserCtx, timeout)
	defer cancel()
	return chromedp.Run(waitCtx, chromedp.WaitVisible(sel, chromedp.ByQuery))
}

// UserAgent reports the effective user agent, mainly for logging at startup.
func (e *Engine) UserAgent() string {
	return e.opts.UserAgent
}
