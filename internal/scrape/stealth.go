package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// fingerprint is one browser header profile used for impersonation.
type fingerprint struct {
	name      string
	userAgent string
	headers   map[string]string
}

var fingerprints = []fingerprint{
	{
		name:      "chrome110",
		userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/110.0.0.0 Safari/537.36",
		headers: map[string]string{
			"Sec-Ch-Ua":          `"Chromium";v="110", "Google Chrome";v="110", "Not A(Brand";v="24"`,
			"Sec-Ch-Ua-Platform": `"Windows"`,
		},
	},
	{
		name:      "chrome116",
		userAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/116.0.0.0 Safari/537.36",
		headers: map[string]string{
			"Sec-Ch-Ua":          `"Chromium";v="116", "Google Chrome";v="116", "Not A(Brand";v="24"`,
			"Sec-Ch-Ua-Platform": `"macOS"`,
		},
	},
	{
		name:      "chrome120",
		userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		headers: map[string]string{
			"Sec-Ch-Ua":          `"Chromium";v="120", "Google Chrome";v="120", "Not A(Brand";v="24"`,
			"Sec-Ch-Ua-Platform": `"Windows"`,
		},
	},
	{
		name:      "safari15_5",
		userAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.5 Safari/605.1.15",
		headers:   map[string]string{},
	},
}

// maxSessionUses rotates the session (new cookie jar, new fingerprint) after
// this many requests, so one identity never handles a long crawl.
const maxSessionUses = 10

// StealthFetcher fetches pages while impersonating a real browser's header
// fingerprint. It rotates sessions and retries once with a fresh session on
// 403/429 before giving up.
type StealthFetcher struct {
	timeout      time.Duration
	retryBackoff time.Duration

	mu          sync.Mutex
	client      *http.Client
	fp          fingerprint
	sessionUses int
}

// NewStealthFetcher creates a StealthFetcher with the given request timeout.
func NewStealthFetcher(timeout time.Duration) *StealthFetcher {
	return &StealthFetcher{
		timeout:      timeout,
		retryBackoff: 2 * time.Second,
	}
}

// WithRetryBackoff overrides the wait before the fresh-session retry.
func (s *StealthFetcher) WithRetryBackoff(d time.Duration) *StealthFetcher {
	if d > 0 {
		s.retryBackoff = d
	}
	return s
}

func (s *StealthFetcher) Name() string { return "stealth_http" }

// rotateSession discards the current cookie jar and picks a new fingerprint.
func (s *StealthFetcher) rotateSession() {
	jar, _ := cookiejar.New(nil)
	s.fp = fingerprints[rand.IntN(len(fingerprints))]
	s.client = &http.Client{
		Timeout: s.timeout,
		Jar:     jar,
	}
	s.sessionUses = 0
	zap.L().Debug("stealth: rotated session", zap.String("fingerprint", s.fp.name))
}

func (s *StealthFetcher) session() (*http.Client, fingerprint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil || s.sessionUses >= maxSessionUses {
		s.rotateSession()
	}
	s.sessionUses++
	return s.client, s.fp
}

// Fetch retrieves a URL with browser impersonation. A 403 or 429 triggers
// exactly one retry with a fresh session after a short backoff.
func (s *StealthFetcher) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	page, err := s.fetchOnce(ctx, targetURL)
	if err == nil {
		return page, nil
	}

	if !isSessionBlock(err) {
		return nil, err
	}

	zap.L().Debug("stealth: session blocked, retrying with fresh session",
		zap.String("url", targetURL),
	)

	s.mu.Lock()
	s.rotateSession()
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, eris.Wrap(ctx.Err(), "stealth: retry cancelled")
	case <-time.After(s.retryBackoff):
	}

	return s.fetchOnce(ctx, targetURL)
}

func (s *StealthFetcher) fetchOnce(ctx context.Context, targetURL string) (*Page, error) {
	client, fp := s.session()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "stealth: create request")
	}

	req.Header.Set("User-Agent", fp.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	for k, v := range fp.headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "stealth: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "stealth: read body")
	}

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		return nil, &sessionBlockError{status: resp.StatusCode}
	}

	if blocked, blockType := DetectBlock(resp.StatusCode, resp.Header, body); blocked {
		return nil, eris.Errorf("stealth: blocked (%s)", blockType)
	}
	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("stealth: status %d", resp.StatusCode)
	}

	return &Page{
		URL:        targetURL,
		StatusCode: resp.StatusCode,
		HTML:       string(body),
		Text:       StripHTML(string(body)),
	}, nil
}

type sessionBlockError struct {
	status int
}

func (e *sessionBlockError) Error() string {
	return fmt.Sprintf("stealth: status %d", e.status)
}

func isSessionBlock(err error) bool {
	var sb *sessionBlockError
	return errors.As(err, &sb)
}
