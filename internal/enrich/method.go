// Package enrich implements the email-discovery waterfall: an ordered chain
// of independent methods tried per business, followed by confidence scoring
// and assembly of the winning candidates.
package enrich

import (
	"context"
	"net/url"
	"strings"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// MethodName identifies one discovery strategy. The declaration order of the
// constants is the waterfall priority: cheaper and more trustworthy methods
// run first.
type MethodName string

const (
	MethodWebsiteScraping   MethodName = "website_scraping"
	MethodEnhancedScraping  MethodName = "enhanced_scraping"
	MethodDomainSearch      MethodName = "domain_search_api"
	MethodPatternGeneration MethodName = "pattern_generation"
)

// Method is one link in the waterfall chain. Implementations swallow their
// own failures: Discover returns empty slices on any error, and the error
// never crosses the method boundary.
type Method interface {
	Name() MethodName

	// Available reports whether the method's prerequisites are met for this
	// business (website present, credential configured, and so on).
	// Unavailable methods are skipped, not attempted.
	Available(biz model.Business) bool

	// Discover returns raw candidate emails and contact names. Candidates
	// are cleaned and validated but not yet scored.
	Discover(ctx context.Context, biz model.Business) (emails, names []string)
}

// registrableDomain extracts the bare domain from a website string,
// tolerating missing schemes and stripping a leading www.
func registrableDomain(website string) string {
	s := strings.TrimSpace(website)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// normalizeWebsite ensures the website has an http(s) scheme.
func normalizeWebsite(website string) string {
	s := strings.TrimSpace(website)
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return "https://" + s
	}
	return s
}
