// Package crawling discovers cuisine and recipe pages on the recipe site's
// listing pages.
package crawling

import "fmt"

// CrawlError represents a failure to discover pages, either on the recipe
// archive or across the cuisine listings. Path is empty when no single page
// is to blame.
type CrawlError struct {
	Path    string
	Message string
	Cause   error
}

func (e *CrawlError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s %s", e.Message, e.Path)
	}
	if e.Cause != nil {
		return fmt.Sprintf("crawl error: %s: %v", msg, e.Cause)
	}
	return "crawl error: " + msg
}

func (e *CrawlError) Unwrap() error {
	return e.Cause
}

// LinkExtractionError represents a listing page or link that does not have
// the expected shape
type LinkExtractionError struct {
	Value   string
	Message string
}

func (e *LinkExtractionError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("link extraction error: %s: %q", e.Message, e.Value)
	}
	return "link extraction error: " + e.Message
}
