package fetch

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize is the number of rendered documents kept per batch.
const DefaultCacheSize = 256

// CachedRenderer wraps a Renderer with a bounded in-memory cache. It is
// meant to live for one scrape batch; concurrent renders of the same page
// share one underlying call.
type CachedRenderer struct {
	next  Renderer
	cache *lru.Cache[string, *goquery.Document]
	group singleflight.Group
}

// CachedRendererConfig holds configuration for the cached renderer.
type CachedRendererConfig struct {
	Size int
}

// DefaultCachedRendererConfig returns sensible defaults.
func DefaultCachedRendererConfig() *CachedRendererConfig {
	return &CachedRendererConfig{Size: DefaultCacheSize}
}

// NewCachedRenderer creates a new cached renderer around next.
func NewCachedRenderer(next Renderer, config *CachedRendererConfig) (*CachedRenderer, error) {
	if config == nil {
		config = DefaultCachedRendererConfig()
	}
	if config.Size <= 0 {
		config.Size = DefaultCacheSize
	}

	cache, err := lru.New[string, *goquery.Document](config.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to create render cache: %w", err)
	}
	return &CachedRenderer{next: next, cache: cache}, nil
}

// Render implements Renderer. Failed renders are not cached.
func (c *CachedRenderer) Render(ctx context.Context, path string, actions ...Action) (*goquery.Document, error) {
	key := cacheKey(path, actions)
	if doc, ok := c.cache.Get(key); ok {
		return doc, nil
	}

	// the shared render must not fail because whichever caller started it
	// went away; each caller waits on its own context instead
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		doc, err := c.next.Render(flightCtx, path, actions...)
		if err != nil {
			return nil, err
		}
		c.cache.Add(key, doc)
		return doc, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*goquery.Document), nil
	}
}

// Len returns the number of cached documents.
func (c *CachedRenderer) Len() int {
	return c.cache.Len()
}

// Purge drops every cached document.
func (c *CachedRenderer) Purge() {
	c.cache.Purge()
}

func cacheKey(path string, actions []Action) string {
	if len(actions) == 0 {
		return path
	}
	parts := make([]string, 0, len(actions)+1)
	parts = append(parts, path)
	for _, a := range actions {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, "|")
}
