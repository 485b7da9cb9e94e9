package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Caps keep a pathological page from flooding downstream stages.
const (
	maxEmailsPerPage = 10
	maxNamesPerPage  = 5
)

var emailPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
	regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+\s*@\s*[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
	regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+\sat\s[A-Za-z0-9.-]+\sdot\s[A-Za-z]{2,}\b`),
}

var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:Contact|Manager|Director|Owner|CEO|President):\s*([A-Z][a-z]+\s+[A-Z][a-z]+)`),
	regexp.MustCompile(`([A-Z][a-z]+\s+[A-Z][a-z]+)\s*,\s*(?:Contact|Manager|Director|Owner|CEO|President)`),
}

// contactSectionSel matches elements whose class or id hints at a contact,
// team, staff, or about section.
const contactSectionSel = `[class*="contact"], [id*="contact"], [class*="team"], [id*="team"], [class*="staff"], [id*="staff"], [class*="about"], [id*="about"]`

// Extract scans page text for candidate emails and contact names. When a
// parsed DOM is available it additionally collects mailto: links and scans
// contact-like sections for name patterns. Candidates that fail validation
// are silently dropped; Extract never fails.
func Extract(text string, doc *goquery.Document) (emails, names []string) {
	seen := make(map[string]bool)

	add := func(raw string) {
		if len(emails) >= maxEmailsPerPage {
			return
		}
		addr := Clean(raw)
		if addr == "" || seen[addr] || !IsValid(addr) {
			return
		}
		seen[addr] = true
		emails = append(emails, addr)
	}

	for _, re := range emailPatterns {
		for _, m := range re.FindAllString(text, -1) {
			add(m)
		}
	}
	names = appendNames(names, text)

	if doc != nil {
		doc.Find(`a[href^="mailto:"]`).Each(func(_ int, s *goquery.Selection) {
			href, ok := s.Attr("href")
			if !ok {
				return
			}
			addr := strings.TrimPrefix(href, "mailto:")
			if i := strings.Index(addr, "?"); i >= 0 {
				addr = addr[:i]
			}
			add(addr)
		})

		doc.Find(contactSectionSel).EachWithBreak(func(i int, s *goquery.Selection) bool {
			if i >= 3 {
				return false
			}
			names = appendNames(names, s.Text())
			return true
		})
	}

	if len(names) > maxNamesPerPage {
		names = names[:maxNamesPerPage]
	}
	return emails, names
}

func appendNames(names []string, text string) []string {
	for _, re := range namePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			name := strings.TrimSpace(m[1])
			if name == "" || containsName(names, name) {
				continue
			}
			names = append(names, name)
		}
	}
	return names
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}
