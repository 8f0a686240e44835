// Package fetch renders recipe-site pages into parsed HTML documents.
// Pages are rendered either by a headless browser (for the script-heavy
// listing and recipe pages) or by a plain HTTP client.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// DefaultTimeout is the default render timeout for a single page.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; RecipeScraper/1.0)"

// ErrBackendUnavailable is returned when the rendering backend itself cannot
// be reached. Unlike a per-page Error it means no further page can succeed.
var ErrBackendUnavailable = errors.New("render backend unavailable")

// Action is a page interaction run after navigation and before the HTML is read.
type Action int

const (
	// ActionDismissPopup closes the promotional popup shown on first load
	ActionDismissPopup Action = iota
	// ActionScrollToBottom scrolls to the end of the page
	ActionScrollToBottom
	// ActionLoadMore clicks the "LOAD MORE" button until it disappears
	ActionLoadMore
)

func (a Action) String() string {
	switch a {
	case ActionDismissPopup:
		return "dismiss-popup"
	case ActionScrollToBottom:
		return "scroll-to-bottom"
	case ActionLoadMore:
		return "load-more"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Renderer turns a site path into a parsed document.
type Renderer interface {
	Render(ctx context.Context, path string, actions ...Action) (*goquery.Document, error)
}

// Error represents an error while rendering one page.
type Error struct {
	URL       string
	Message   string
	Cause     error
	Retryable bool
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// ResolveURL joins a site path onto baseURL. Absolute URLs are returned as is.
func ResolveURL(baseURL, path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}

	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("invalid base URL %q", baseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	return base.ResolveReference(&url.URL{
		Path:     strings.TrimPrefix(ref.Path, "/"),
		RawQuery: ref.RawQuery,
	}).String(), nil
}

// HTTPRenderer fetches pages without running their scripts. Actions are
// ignored since a static response has nothing to interact with.
type HTTPRenderer struct {
	client  *resty.Client
	baseURL string
}

// NewHTTPRenderer creates a renderer that resolves paths against baseURL.
func NewHTTPRenderer(baseURL string, opts *Options) *HTTPRenderer {
	if opts == nil {
		opts = DefaultOptions()
	}

	client := resty.New()
	client.SetHeader("user-agent", opts.UserAgent)
	client.SetHeaders(opts.Headers)
	client.SetTimeout(opts.Timeout)

	return &HTTPRenderer{client: client, baseURL: baseURL}
}

// Render implements Renderer.
func (r *HTTPRenderer) Render(ctx context.Context, path string, _ ...Action) (*goquery.Document, error) {
	target, err := ResolveURL(r.baseURL, path)
	if err != nil {
		return nil, &Error{URL: path, Message: "invalid URL", Cause: err}
	}

	res, err := r.client.R().SetContext(ctx).Get(target)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &Error{URL: target, Message: "HTTP request failed", Cause: err, Retryable: true}
	}

	if res.StatusCode() != http.StatusOK {
		return nil, &Error{
			URL:       target,
			Message:   fmt.Sprintf("HTTP status %d", res.StatusCode()),
			Retryable: res.StatusCode() >= http.StatusInternalServerError,
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, &Error{URL: target, Message: "failed to parse HTML", Cause: err}
	}
	return doc, nil
}
