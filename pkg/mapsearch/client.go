// Package mapsearch provides a client for the ScrapingDog Google Maps
// search API, the upstream source of business listings.
package mapsearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.scrapingdog.com/google_maps"

// resultsPerPage is what the provider returns per page; maxPages caps
// pagination at the provider-recommended offset.
const (
	resultsPerPage = 20
	maxPages       = 6
)

// Listing is one business returned by the provider.
type Listing struct {
	PlaceID     string   `json:"place_id"`
	Title       string   `json:"title"`
	Address     string   `json:"address"`
	Phone       string   `json:"phone"`
	Website     string   `json:"website"`
	Rating      float64  `json:"rating"`
	Reviews     int      `json:"reviews"`
	Types       []string `json:"types"`
	Coordinates GPS      `json:"gps_coordinates"`
}

// GPS holds a listing's coordinates.
type GPS struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SearchRequest describes one paginated search.
type SearchRequest struct {
	// Query is the business search text, e.g. "law offices San Francisco".
	Query string
	// Coordinates optionally anchors the search, formatted "@lat,lng,15z".
	Coordinates string
	// MaxResults caps the total listings fetched across pages.
	MaxResults int
}

// SearchResult is the merged outcome of a paginated search. Requests counts
// the billable API calls made, for cost logging.
type SearchResult struct {
	Listings []Listing
	Requests int
}

// Client performs map-search operations.
type Client interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResult, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets the request pacing in requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithRetryBackoff overrides the base backoff used after a 429. Tests set
// this to something tiny.
func WithRetryBackoff(d time.Duration) Option {
	return func(c *httpClient) {
		c.backoff = d
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	backoff time.Duration
}

// NewClient creates a map-search client. Requests are paced at 10/s by
// default.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(10), 1),
		backoff: 2 * time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type searchResponse struct {
	SearchResults []Listing `json:"search_results"`
}

// Search fetches pages until MaxResults listings are collected, a page comes
// back short, or the provider page cap is hit.
func (c *httpClient) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	if req.Query == "" {
		return nil, eris.New("mapsearch: query is required")
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = resultsPerPage
	}
	pages := (maxResults + resultsPerPage - 1) / resultsPerPage
	if pages > maxPages {
		pages = maxPages
	}

	result := &SearchResult{}
	for page := 0; page < pages; page++ {
		listings, err := c.fetchPage(ctx, req, page, result)
		if err != nil {
			if len(result.Listings) > 0 {
				// Partial results beat none; later pages are best-effort.
				zap.L().Warn("mapsearch: page fetch failed, returning partial results",
					zap.Int("page", page),
					zap.Error(err),
				)
				break
			}
			return nil, err
		}

		result.Listings = append(result.Listings, listings...)
		if len(listings) < resultsPerPage || len(result.Listings) >= maxResults {
			break
		}
	}

	if len(result.Listings) > maxResults {
		result.Listings = result.Listings[:maxResults]
	}
	return result, nil
}

func (c *httpClient) fetchPage(ctx context.Context, req SearchRequest, page int, result *SearchResult) ([]Listing, error) {
	const attempts = 3

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, eris.Wrap(err, "mapsearch: rate limit wait")
			}
		}

		listings, retryable, err := c.doPage(ctx, req, page, result)
		if err == nil {
			return listings, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}

		backoff := c.backoff * time.Duration(1<<attempt)
		zap.L().Debug("mapsearch: retrying after backoff",
			zap.Int("page", page),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
		)
		select {
		case <-ctx.Done():
			return nil, eris.Wrap(ctx.Err(), "mapsearch: cancelled")
		case <-time.After(backoff):
		}
	}
	return nil, lastErr
}

// doPage performs one billable request. The bool return reports whether the
// failure is retryable (rate limited or transient).
func (c *httpClient) doPage(ctx context.Context, req SearchRequest, page int, result *SearchResult) ([]Listing, bool, error) {
	params := url.Values{
		"api_key": {c.apiKey},
		"query":   {req.Query},
		"page":    {strconv.Itoa(page)},
	}
	if req.Coordinates != "" {
		params.Set("ll", req.Coordinates)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, false, eris.Wrap(err, "mapsearch: create request")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, true, eris.Wrap(err, "mapsearch: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	result.Requests++

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, eris.Wrap(err, "mapsearch: read response")
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, eris.Errorf("mapsearch: rate limited (status 429)")
	default:
		return nil, false, eris.Errorf("mapsearch: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, false, eris.Wrap(err, "mapsearch: unmarshal response")
	}
	return decoded.SearchResults, false, nil
}
