package enrich

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/extract"
	"github.com/sells-group/leadgen-cli/internal/scrape"
)

// contactPaths are likely contact-page locations tried after the main page.
// Only the first maxExtraPages entries are fetched per business.
var contactPaths = []string{
	"/contact", "/contact-us", "/contact.html", "/contact.php",
	"/about", "/about-us", "/team", "/staff",
	"/get-in-touch", "/reach-out", "/connect",
}

const maxExtraPages = 3

// pageWalker fetches a business website's main page plus a small fixed set
// of likely contact pages and runs extraction on each. Shared by the passive
// and stealth scraping methods; only the Fetcher differs.
type pageWalker struct {
	fetcher scrape.Fetcher
	// delay between page fetches, to avoid hammering one host. Zero in tests.
	delay time.Duration
}

// walk unions extraction results across the page set. Per-page failures are
// logged at debug level and skipped.
func (w pageWalker) walk(ctx context.Context, website string) (emails, names []string) {
	base := normalizeWebsite(website)
	if base == "" {
		return nil, nil
	}

	urls := make([]string, 0, 1+maxExtraPages)
	urls = append(urls, base)
	for _, p := range contactPaths[:maxExtraPages] {
		urls = append(urls, strings.TrimRight(base, "/")+p)
	}

	seenEmails := make(map[string]bool)
	seenNames := make(map[string]bool)

	for i, u := range urls {
		if ctx.Err() != nil {
			break
		}
		if i > 0 && w.delay > 0 {
			select {
			case <-ctx.Done():
				return emails, names
			case <-time.After(w.delay):
			}
		}

		page, err := w.fetcher.Fetch(ctx, u)
		if err != nil {
			zap.L().Debug("enrich: page fetch failed",
				zap.String("fetcher", w.fetcher.Name()),
				zap.String("url", u),
				zap.Error(err),
			)
			continue
		}

		pageEmails, pageNames := extract.Extract(page.Text, parseDOM(page.HTML))
		for _, e := range pageEmails {
			if !seenEmails[e] {
				seenEmails[e] = true
				emails = append(emails, e)
			}
		}
		for _, n := range pageNames {
			if !seenNames[n] {
				seenNames[n] = true
				names = append(names, n)
			}
		}
	}

	return emails, names
}

// parseDOM builds a goquery document from raw HTML, or nil when parsing
// fails. Extraction degrades to text-only in that case.
func parseDOM(html string) *goquery.Document {
	if html == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	return doc
}
