package scrape

import (
	"context"
)

// Page holds a fetched page's raw HTML and its plaintext rendering.
type Page struct {
	URL        string
	StatusCode int
	HTML       string
	Text       string
}

// Fetcher retrieves a single URL and returns its content.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
	Name() string
}
