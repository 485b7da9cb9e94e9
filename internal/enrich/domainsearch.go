package enrich

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/extract"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/hunter"
)

// CostLogger records billable API usage. Logging is fire-and-forget: a sink
// failure never affects enrichment.
type CostLogger interface {
	Log(ctx context.Context, provider, endpoint string, cost float64, success bool, errMsg string)
}

// DomainSearch is the third-priority method: a paid domain-search API keyed
// by the website's registrable domain. Every call, successful or not, is
// cost-logged.
type DomainSearch struct {
	client   hunter.Client
	costs    CostLogger
	limit    int
	perEmail float64
}

// NewDomainSearch creates the paid domain-search method. limit caps how many
// addresses are requested per business; perEmail is the provider's unit
// price per returned address.
func NewDomainSearch(client hunter.Client, costs CostLogger, limit int, perEmail float64) *DomainSearch {
	return &DomainSearch{client: client, costs: costs, limit: limit, perEmail: perEmail}
}

func (m *DomainSearch) Name() MethodName { return MethodDomainSearch }

// Available requires a configured client and a website to derive the domain
// from. A missing credential skips the method at orchestration time.
func (m *DomainSearch) Available(biz model.Business) bool {
	return m.client != nil && biz.Website != ""
}

func (m *DomainSearch) Discover(ctx context.Context, biz model.Business) ([]string, []string) {
	domain := registrableDomain(biz.Website)
	if domain == "" {
		return nil, nil
	}

	results, err := m.client.DomainSearch(ctx, domain, m.limit)
	if err != nil {
		m.costs.Log(ctx, "hunter_io", "domain-search", 0, false, err.Error())
		zap.L().Warn("enrich: domain search failed",
			zap.String("domain", domain),
			zap.Error(err),
		)
		return nil, nil
	}

	var emails, names []string
	for _, r := range results {
		addr := extract.Clean(r.Value)
		if !extract.IsValid(addr) {
			continue
		}
		emails = append(emails, addr)
		if name := strings.TrimSpace(r.FirstName + " " + r.LastName); name != "" {
			names = append(names, name)
		}
	}

	m.costs.Log(ctx, "hunter_io", "domain-search", m.perEmail*float64(len(emails)), true, "")

	zap.L().Debug("enrich: domain search complete",
		zap.String("domain", domain),
		zap.Int("emails", len(emails)),
	)
	return emails, names
}
