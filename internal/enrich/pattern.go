package enrich

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/leadgen-cli/internal/extract"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// rolePrefixes are the synthetic role-based local parts tried at the domain,
// in emission order. The first one doubles as the most likely primary.
var rolePrefixes = []string{
	"info", "contact", "hello", "admin", "support", "sales", "office",
}

const maxNameTokenLen = 10

// PatternGeneration is the last-resort method: no network calls, just a
// fixed candidate set of role addresses plus up to two addresses derived
// from the business name's first token.
type PatternGeneration struct{}

func (PatternGeneration) Name() MethodName { return MethodPatternGeneration }

func (PatternGeneration) Available(biz model.Business) bool {
	return biz.Website != ""
}

func (PatternGeneration) Discover(_ context.Context, biz model.Business) ([]string, []string) {
	domain := registrableDomain(biz.Website)
	if domain == "" {
		return nil, nil
	}

	candidates := make([]string, 0, len(rolePrefixes)+2)
	for _, p := range rolePrefixes {
		candidates = append(candidates, p+"@"+domain)
	}

	if tok := nameToken(biz.Name); tok != "" {
		candidates = append(candidates, tok+"@"+domain, tok+".info@"+domain)
	}

	var emails []string
	for _, c := range candidates {
		if extract.IsValid(c) {
			emails = append(emails, c)
		}
	}
	return emails, nil
}

var stripMarks = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// nameToken derives an address-safe token from the business name's first
// word: diacritics folded, non-alphanumerics dropped, length capped.
func nameToken(name string) string {
	folded, _, err := transform.String(stripMarks, strings.ToLower(name))
	if err != nil {
		folded = strings.ToLower(name)
	}

	fields := strings.Fields(folded)
	if len(fields) == 0 {
		return ""
	}

	var b strings.Builder
	for _, r := range fields[0] {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	tok := b.String()
	if len(tok) > maxNameTokenLen {
		tok = tok[:maxNameTokenLen]
	}
	return tok
}
