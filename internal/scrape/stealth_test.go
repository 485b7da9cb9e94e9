package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Fetcher = (*StealthFetcher)(nil)

func TestStealthFetcher_RetriesOnceAfterBlock(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte("<html><body>Acme Plumbing serves the greater metro area with licensed residential and commercial work backed by a decade of experience.</body></html>"))
	}))
	defer srv.Close()

	f := NewStealthFetcher(5 * time.Second).WithRetryBackoff(time.Millisecond)
	page, err := f.Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Contains(t, page.Text, "Acme Plumbing")
}

func TestStealthFetcher_PermanentBlockFails(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewStealthFetcher(5 * time.Second).WithRetryBackoff(time.Millisecond)
	_, err := f.Fetch(context.Background(), srv.URL)

	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Contains(t, err.Error(), "429")
}

func TestStealthFetcher_NonBlockErrorNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewStealthFetcher(5 * time.Second).WithRetryBackoff(time.Millisecond)
	_, err := f.Fetch(context.Background(), srv.URL)

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestStealthFetcher_SendsFingerprintHeaders(t *testing.T) {
	t.Parallel()

	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		assert.Equal(t, "document", r.Header.Get("Sec-Fetch-Dest"))
		w.Write([]byte("<html><body>A local service business page with a reasonable amount of descriptive copy so nothing here looks like an empty script shell to the detector.</body></html>"))
	}))
	defer srv.Close()

	f := NewStealthFetcher(5 * time.Second)
	_, err := f.Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Contains(t, gotUA, "Mozilla/5.0")
}

func TestStealthFetcher_SessionRotatesAfterMaxUses(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "1"})
		w.Write([]byte("<html><body>A healthy amount of body text keeps the block detector from classifying this tiny test page as a JavaScript-only shell during rotation checks.</body></html>"))
	}))
	defer srv.Close()

	f := NewStealthFetcher(5 * time.Second)
	for i := 0; i < maxSessionUses; i++ {
		_, err := f.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
	}
	first := f.client

	_, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.NotSame(t, first, f.client)
}
