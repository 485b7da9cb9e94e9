// Package hunter provides a client for the Hunter.io domain-search API.
package hunter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/resilience"
)

const defaultBaseURL = "https://api.hunter.io/v2"

// Email is one provider-confirmed address with optional person metadata.
type Email struct {
	Value      string `json:"value"`
	Type       string `json:"type"`
	Confidence int    `json:"confidence"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Position   string `json:"position"`
}

// Client performs Hunter.io API operations.
type Client interface {
	// DomainSearch returns addresses known for a registrable domain,
	// capped at limit.
	DomainSearch(ctx context.Context, domain string, limit int) ([]Email, error)
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

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Hunter.io client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type domainSearchResponse struct {
	Data struct {
		Domain string  `json:"domain"`
		Emails []Email `json:"emails"`
	} `json:"data"`
	Errors []struct {
		Details string `json:"details"`
	} `json:"errors"`
}

func (c *httpClient) DomainSearch(ctx context.Context, domain string, limit int) ([]Email, error) {
	if domain == "" {
		return nil, eris.New("hunter: domain is required")
	}

	params := url.Values{
		"domain":  {domain},
		"api_key": {c.apiKey},
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	return resilience.Do(ctx, resilience.RetryConfig{}, "hunter",
		func(ctx context.Context) ([]Email, error) {
			return c.doSearch(ctx, params)
		})
}

func (c *httpClient) doSearch(ctx context.Context, params url.Values) ([]Email, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/domain-search?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "hunter: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "hunter: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "hunter: read response")
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, resilience.NewTransientError(
			eris.Errorf("hunter: status %d", resp.StatusCode), resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("hunter: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result domainSearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "hunter: unmarshal response")
	}

	return result.Data.Emails, nil
}
