package enrich

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"

	"github.com/sells-group/leadgen-cli/internal/scrape"
)

// stubFetcher serves canned pages by URL and fails everything else.
type stubFetcher struct {
	pages   map[string]*scrape.Page
	fetched []string
}

func (f *stubFetcher) Name() string { return "stub" }

func (f *stubFetcher) Fetch(_ context.Context, url string) (*scrape.Page, error) {
	f.fetched = append(f.fetched, url)
	if p, ok := f.pages[url]; ok {
		return p, nil
	}
	return nil, eris.Errorf("stub: no page for %s", url)
}

func TestPageWalker_VisitsMainAndContactPages(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{pages: map[string]*scrape.Page{
		"https://acme.com": {
			URL: "https://acme.com", StatusCode: 200,
			Text: "Welcome to Acme.",
		},
		"https://acme.com/contact": {
			URL: "https://acme.com/contact", StatusCode: 200,
			Text: "Email info@acme.com. Owner: Jane Smith",
		},
	}}

	w := pageWalker{fetcher: f}
	emails, names := w.walk(context.Background(), "https://acme.com")

	assert.Equal(t, []string{
		"https://acme.com",
		"https://acme.com/contact",
		"https://acme.com/contact-us",
		"https://acme.com/contact.html",
	}, f.fetched)
	assert.Equal(t, []string{"info@acme.com"}, emails)
	assert.Equal(t, []string{"Jane Smith"}, names)
}

func TestPageWalker_DedupesAcrossPages(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{pages: map[string]*scrape.Page{
		"https://acme.com": {
			URL: "https://acme.com", StatusCode: 200,
			Text: "info@acme.com",
		},
		"https://acme.com/contact": {
			URL: "https://acme.com/contact", StatusCode: 200,
			Text: "info@acme.com and sales@acme.com",
		},
	}}

	w := pageWalker{fetcher: f}
	emails, _ := w.walk(context.Background(), "https://acme.com")

	assert.Equal(t, []string{"info@acme.com", "sales@acme.com"}, emails)
}

func TestPageWalker_SchemePrepended(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{pages: map[string]*scrape.Page{
		"https://acme.com": {URL: "https://acme.com", StatusCode: 200, Text: "hi"},
	}}

	w := pageWalker{fetcher: f}
	w.walk(context.Background(), "acme.com")

	assert.Equal(t, "https://acme.com", f.fetched[0])
}

func TestPageWalker_AllFetchesFail(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{}
	w := pageWalker{fetcher: f}
	emails, names := w.walk(context.Background(), "https://down.example.net")

	assert.Empty(t, emails)
	assert.Empty(t, names)
	assert.Len(t, f.fetched, 1+maxExtraPages)
}

func TestPageWalker_UsesMailtoFromDOM(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{pages: map[string]*scrape.Page{
		"https://acme.com": {
			URL: "https://acme.com", StatusCode: 200,
			HTML: `<html><body><a href="mailto:Office@Acme.com">mail</a></body></html>`,
		},
	}}

	w := pageWalker{fetcher: f}
	emails, _ := w.walk(context.Background(), "https://acme.com")

	assert.Equal(t, []string{"office@acme.com"}, emails)
}

func TestPageWalker_EmptyWebsite(t *testing.T) {
	t.Parallel()

	w := pageWalker{fetcher: &stubFetcher{}}
	emails, names := w.walk(context.Background(), "")

	assert.Empty(t, emails)
	assert.Empty(t, names)
}
