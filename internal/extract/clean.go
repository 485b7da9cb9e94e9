// Package extract turns raw page content into candidate emails and contact
// names. All candidates pass through Clean and IsValid before they are
// returned; callers never see malformed or blacklisted addresses.
package extract

import (
	"regexp"
	"strings"
)

// addressRe is the RFC-lite shape every candidate must match.
var addressRe = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

var (
	trailingPunctRe = regexp.MustCompile(`[.,;!?]+$`)
	spacedAtRe      = regexp.MustCompile(`\s*@\s*`)
)

// excludedFragments are substrings that mark an address as a placeholder or
// asset filename rather than a real mailbox. Static configuration.
var excludedFragments = []string{
	"@example.",
	"@test.",
	"@placeholder.",
	"@domain.",
	"@company.",
	"@yoursite.",
	"image@",
	"photo@",
	"picture@",
}

// Clean normalizes common obfuscations (" at " and " dot " spelled out),
// lowercases, trims whitespace, and strips trailing punctuation. It does not
// validate; run IsValid afterwards.
func Clean(raw string) string {
	s := strings.ReplaceAll(raw, " at ", "@")
	s = strings.ReplaceAll(s, " dot ", ".")
	s = spacedAtRe.ReplaceAllString(s, "@")
	s = strings.ToLower(strings.TrimSpace(s))
	return trailingPunctRe.ReplaceAllString(s, "")
}

// IsValid reports whether addr looks like a deliverable business address.
// Pure function: checks length, RFC-lite shape, and the false-positive
// exclusion list.
func IsValid(addr string) bool {
	if addr == "" || len(addr) > 254 {
		return false
	}
	if !addressRe.MatchString(addr) {
		return false
	}
	lower := strings.ToLower(addr)
	for _, frag := range excludedFragments {
		if strings.Contains(lower, frag) {
			return false
		}
	}
	return true
}
