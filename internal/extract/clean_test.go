package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already clean", "info@acme.com", "info@acme.com"},
		{"uppercase", "Info@Acme.COM", "info@acme.com"},
		{"whitespace", "  info@acme.com  ", "info@acme.com"},
		{"trailing period", "info@acme.com.", "info@acme.com"},
		{"trailing punctuation run", "info@acme.com.,;", "info@acme.com"},
		{"spelled out at", "info at acme.com", "info@acme.com"},
		{"spelled out at and dot", "info at acme dot com", "info@acme.com"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestClean_Idempotent(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		"Info at Acme dot Com.",
		"  SALES@WIDGETS.IO;",
		"contact@bureau.fr",
	} {
		once := Clean(raw)
		assert.Equal(t, once, Clean(once), "cleaning twice must not change %q", raw)
	}
}

func TestIsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		addr string
		want bool
	}{
		{"info@acme.com", true},
		{"first.last+tag@sub.acme.co.uk", true},
		{"", false},
		{"not-an-email", false},
		{"missing@tld", false},
		{"@acme.com", false},
		{"info@acme.c", false},
		{"user@example.com", false},
		{"someone@test.org", false},
		{"hello@placeholder.net", false},
		{"a@domain.com", false},
		{"x@company.com", false},
		{"me@yoursite.com", false},
		{"image@2x.png.com", false},
		{"photo@large.jpg.com", false},
		{strings.Repeat("a", 250) + "@b.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValid(tt.addr))
		})
	}
}
