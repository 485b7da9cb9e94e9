package enrich

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/leadgen-cli/internal/model"
)

func TestPatternGeneration_RoleAndNameCandidates(t *testing.T) {
	t.Parallel()

	emails, names := PatternGeneration{}.Discover(context.Background(), model.Business{
		Name:    "Acme Plumbing",
		Website: "https://www.acme.com",
	})

	assert.Equal(t, []string{
		"info@acme.com", "contact@acme.com", "hello@acme.com",
		"admin@acme.com", "support@acme.com", "sales@acme.com",
		"office@acme.com", "acme@acme.com", "acme.info@acme.com",
	}, emails)
	assert.Empty(t, names, "pattern generation never produces contact names")
}

func TestPatternGeneration_NameTokenFolding(t *testing.T) {
	t.Parallel()

	emails, _ := PatternGeneration{}.Discover(context.Background(), model.Business{
		Name:    "Café Río Grill",
		Website: "cafe.example.org.uk",
	})

	assert.Contains(t, emails, "cafe@cafe.example.org.uk")
}

func TestPatternGeneration_NameTokenCapped(t *testing.T) {
	t.Parallel()

	emails, _ := PatternGeneration{}.Discover(context.Background(), model.Business{
		Name:    "Extraordinarily Long Business",
		Website: "https://long.biz",
	})

	assert.Contains(t, emails, "extraordin@long.biz")
	assert.Contains(t, emails, "extraordin.info@long.biz")
}

func TestPatternGeneration_PunctuationStripped(t *testing.T) {
	t.Parallel()

	emails, _ := PatternGeneration{}.Discover(context.Background(), model.Business{
		Name:    "O'Brien's Pub",
		Website: "https://obrienspub.ie",
	})

	assert.Contains(t, emails, "obriens@obrienspub.ie")
}

func TestPatternGeneration_NoWebsite(t *testing.T) {
	t.Parallel()

	m := PatternGeneration{}
	assert.False(t, m.Available(model.Business{Name: "No Site LLC"}))

	emails, _ := m.Discover(context.Background(), model.Business{Name: "No Site LLC"})
	assert.Empty(t, emails)
}

func TestRegistrableDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"https://www.acme.com", "acme.com"},
		{"http://acme.com/contact", "acme.com"},
		{"acme.com", "acme.com"},
		{"WWW.ACME.COM", "acme.com"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, registrableDomain(tt.in), tt.in)
	}
}
