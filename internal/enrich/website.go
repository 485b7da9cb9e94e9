package enrich

import (
	"context"
	"time"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/scrape"
)

// WebsiteScraping is the first-priority method: passive HTTP scraping of the
// business website and its likely contact pages.
type WebsiteScraping struct {
	walker pageWalker
}

// NewWebsiteScraping creates the passive scraping method on top of a fetcher.
func NewWebsiteScraping(f scrape.Fetcher) *WebsiteScraping {
	return &WebsiteScraping{
		walker: pageWalker{fetcher: f, delay: time.Second},
	}
}

// WithDelay overrides the inter-page delay. Used by tests.
func (m *WebsiteScraping) WithDelay(d time.Duration) *WebsiteScraping {
	m.walker.delay = d
	return m
}

func (m *WebsiteScraping) Name() MethodName { return MethodWebsiteScraping }

func (m *WebsiteScraping) Available(biz model.Business) bool {
	return biz.Website != ""
}

func (m *WebsiteScraping) Discover(ctx context.Context, biz model.Business) ([]string, []string) {
	return m.walker.walk(ctx, biz.Website)
}

// EnhancedScraping is the second-priority method: the same page set fetched
// through the stealth capability, which survives basic anti-bot challenges.
// Only reached when passive scraping under-delivered.
type EnhancedScraping struct {
	walker pageWalker
}

// NewEnhancedScraping creates the stealth scraping method on top of a fetcher.
func NewEnhancedScraping(f scrape.Fetcher) *EnhancedScraping {
	return &EnhancedScraping{
		walker: pageWalker{fetcher: f, delay: time.Second},
	}
}

// WithDelay overrides the inter-page delay. Used by tests.
func (m *EnhancedScraping) WithDelay(d time.Duration) *EnhancedScraping {
	m.walker.delay = d
	return m
}

func (m *EnhancedScraping) Name() MethodName { return MethodEnhancedScraping }

func (m *EnhancedScraping) Available(biz model.Business) bool {
	return biz.Website != ""
}

func (m *EnhancedScraping) Discover(ctx context.Context, biz model.Business) ([]string, []string) {
	return m.walker.walk(ctx, biz.Website)
}
