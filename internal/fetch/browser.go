// Package fetch - browser.go renders script-heavy pages in headless Chrome.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

// DefaultPopupDelay is how long to wait for the promotional popup before
// dismissing it.
const DefaultPopupDelay = 2 * time.Second

// maxLoadMoreClicks bounds the pagination loop on listing pages.
const maxLoadMoreClicks = 200

// DefaultLoadMoreTimeout bounds the whole "LOAD MORE" loop of one listing,
// separately from the per-page timeout.
const DefaultLoadMoreTimeout = 10 * time.Minute

// loadMoreMargin is the time kept back from the load-more budget so the loop
// stops before its deadline instead of failing on it.
const loadMoreMargin = 3 * time.Second

const (
	loadMoreButtonsJS = `Array.from(document.querySelectorAll('button'))
		.filter(b => b.innerText.trim().toUpperCase() === 'LOAD MORE').length`
	loadMoreClickJS = `(() => {
		const b = Array.from(document.querySelectorAll('button'))
			.find(b => b.innerText.trim().toUpperCase() === 'LOAD MORE');
		if (b) { b.click(); return true; }
		return false;
	})()`
	scrollToBottomJS = `window.scrollTo(0, document.body.scrollHeight); true`
)

// BrowserOptions configures the headless browser.
type BrowserOptions struct {
	BaseURL    string
	Headless   bool
	Timeout    time.Duration
	PopupDelay time.Duration
	// LoadMoreTimeout bounds pagination on listing pages.
	LoadMoreTimeout time.Duration
	Logger          *slog.Logger
}

// Browser renders pages in one shared Chrome process, one tab per page.
// Requires Chrome/Chromium to be installed on the system.
type Browser struct {
	opts        BrowserOptions
	ctx         context.Context
	cancelAlloc context.CancelFunc
	cancelCtx   context.CancelFunc
}

// NewBrowser starts the browser process. The returned error wraps
// ErrBackendUnavailable when Chrome cannot be started.
func NewBrowser(ctx context.Context, opts BrowserOptions) (*Browser, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.PopupDelay <= 0 {
		opts.PopupDelay = DefaultPopupDelay
	}
	if opts.LoadMoreTimeout <= 0 {
		opts.LoadMoreTimeout = DefaultLoadMoreTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(DefaultUserAgent),
		)...,
	)
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx)

	// first Run launches the process
	if err := chromedp.Run(browserCtx); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	return &Browser{
		opts:        opts,
		ctx:         browserCtx,
		cancelAlloc: cancelAlloc,
		cancelCtx:   cancelCtx,
	}, nil
}

// Close shuts the browser down.
func (b *Browser) Close() {
	b.cancelCtx()
	b.cancelAlloc()
}

// Render implements Renderer.
func (b *Browser) Render(ctx context.Context, path string, actions ...Action) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b.ctx.Err() != nil {
		return nil, ErrBackendUnavailable
	}

	target, err := ResolveURL(b.opts.BaseURL, path)
	if err != nil {
		return nil, &Error{URL: path, Message: "invalid URL", Cause: err}
	}

	tabCtx, cancel := chromedp.NewContext(b.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	b.opts.Logger.DebugContext(ctx, "rendering page", "url", target, "actions", actions)

	// the tab is opened without a deadline; each phase below gets its own
	if err := chromedp.Run(tabCtx); err != nil {
		return nil, b.renderError(ctx, target, err)
	}

	tasks := chromedp.Tasks{
		chromedp.Navigate(target),
		chromedp.WaitReady("body"),
	}
	for _, action := range actions {
		if action == ActionLoadMore {
			continue
		}
		tasks = append(tasks, b.task(action))
	}
	if err := runPhase(tabCtx, b.opts.Timeout, tasks); err != nil {
		return nil, b.renderError(ctx, target, err)
	}

	if slices.Contains(actions, ActionLoadMore) {
		if err := runPhase(tabCtx, b.opts.LoadMoreTimeout, chromedp.ActionFunc(loadMore)); err != nil {
			return nil, b.renderError(ctx, target, err)
		}
	}

	var html string
	if err := runPhase(tabCtx, b.opts.Timeout, chromedp.OuterHTML("html", &html)); err != nil {
		return nil, b.renderError(ctx, target, err)
	}

	b.opts.Logger.DebugContext(ctx, "rendered page", "url", target, "bytes", len(html))

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &Error{URL: target, Message: "failed to parse HTML", Cause: err}
	}
	return doc, nil
}

func runPhase(tabCtx context.Context, timeout time.Duration, action chromedp.Action) error {
	phaseCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()
	return chromedp.Run(phaseCtx, action)
}

func (b *Browser) renderError(ctx context.Context, target string, err error) error {
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case b.ctx.Err() != nil:
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return &Error{
		URL:       target,
		Message:   "browser rendering failed",
		Cause:     err,
		Retryable: errors.Is(err, context.DeadlineExceeded),
	}
}

func (b *Browser) task(action Action) chromedp.Action {
	switch action {
	case ActionDismissPopup:
		return chromedp.Tasks{
			chromedp.Sleep(b.opts.PopupDelay),
			chromedp.KeyEvent(kb.Escape),
		}
	case ActionScrollToBottom:
		var ok bool
		return chromedp.Evaluate(scrollToBottomJS, &ok)
	default:
		return chromedp.ActionFunc(func(context.Context) error {
			return fmt.Errorf("unknown action %v", action)
		})
	}
}

// loadMore clicks the listing's "LOAD MORE" button until it is gone. Running
// out of budget ends the loop with whatever has been loaded so far.
func loadMore(ctx context.Context) error {
	for clicks := 0; !stopLoading(ctx, clicks); clicks++ {
		var buttons int
		if err := chromedp.Evaluate(loadMoreButtonsJS, &buttons).Do(ctx); err != nil {
			return loadMoreErr(err)
		}
		if buttons == 0 {
			return nil
		}

		var clicked bool
		if err := chromedp.Evaluate(loadMoreClickJS, &clicked).Do(ctx); err != nil {
			return loadMoreErr(err)
		}
		if !clicked {
			return nil
		}
		if err := chromedp.Sleep(time.Second).Do(ctx); err != nil {
			return loadMoreErr(err)
		}
	}
	return nil
}

// stopLoading reports whether the load-more loop should end before the next
// click.
func stopLoading(ctx context.Context, clicks int) bool {
	if clicks >= maxLoadMoreClicks || ctx.Err() != nil {
		return true
	}
	deadline, ok := ctx.Deadline()
	return ok && time.Until(deadline) < loadMoreMargin
}

// loadMoreErr drops the loop's own deadline; cancellation still fails.
func loadMoreErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
