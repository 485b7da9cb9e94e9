// Package geocode resolves freeform locations to coordinates using the free
// Census geocoding service, so map searches can be anchored to a point.
package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadgen-cli/internal/resilience"
)

const defaultBaseURL = "https://geocoding.geo.census.gov/geocoder/locations/onelineaddress"

const benchmark = "Public_AR_Current"

// Point is a geocoded coordinate pair.
type Point struct {
	Latitude  float64
	Longitude float64
}

// Client resolves locations to coordinates.
type Client interface {
	Geocode(ctx context.Context, location string) (*Point, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the geocoder endpoint.
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

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Census geocoder client. The public service asks for
// modest request rates, so calls are paced at 2/s.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(2), 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type oneLineResponse struct {
	Result struct {
		AddressMatches []struct {
			Coordinates struct {
				X float64 `json:"x"` // longitude
				Y float64 `json:"y"` // latitude
			} `json:"coordinates"`
			MatchedAddress string `json:"matchedAddress"`
		} `json:"addressMatches"`
	} `json:"result"`
}

func (c *httpClient) Geocode(ctx context.Context, location string) (*Point, error) {
	if location == "" {
		return nil, eris.New("geocode: location is required")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit wait")
	}

	params := url.Values{
		"address":   {location},
		"benchmark": {benchmark},
		"format":    {"json"},
	}

	body, err := resilience.Do(ctx, resilience.RetryConfig{}, "geocode",
		func(ctx context.Context) ([]byte, error) {
			return c.fetch(ctx, params)
		})
	if err != nil {
		return nil, err
	}

	var decoded oneLineResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, eris.Wrap(err, "geocode: unmarshal response")
	}

	if len(decoded.Result.AddressMatches) == 0 {
		return nil, eris.Errorf("geocode: no match for %q", location)
	}

	m := decoded.Result.AddressMatches[0]
	return &Point{
		Latitude:  m.Coordinates.Y,
		Longitude: m.Coordinates.X,
	}, nil
}

func (c *httpClient) fetch(ctx context.Context, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read response")
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, resilience.NewTransientError(
			eris.Errorf("geocode: status %d", resp.StatusCode), resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: unexpected status %d", resp.StatusCode)
	}
	return body, nil
}
