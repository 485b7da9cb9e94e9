// Package cost records per-provider API spend and summarizes it for
// budget reporting.
package cost

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/store"
)

// Rates holds the per-unit pricing for each paid provider. Values are in
// USD. Consumers read their unit price through Tracker.Rates rather than
// hard-coding it.
type Rates struct {
	// MapSearchRequest prices one search request: 5 credits at $0.00033.
	MapSearchRequest float64 `yaml:"map_search_request"`
	// HunterEmail is the effective price per address a domain search returns.
	HunterEmail float64 `yaml:"hunter_email"`
}

// DefaultRates returns current vendor pricing.
func DefaultRates() Rates {
	return Rates{
		MapSearchRequest: 0.00165,
		HunterEmail:      0.049,
	}
}

// Tracker persists API call records through a Store. Logging never fails
// the calling operation: persistence errors are logged and swallowed.
type Tracker struct {
	store store.Store
	rates Rates
}

func NewTracker(s store.Store, rates Rates) *Tracker {
	return &Tracker{store: s, rates: rates}
}

// Log records one API call. Implements the cost logger used by the
// enrichment methods and scrape clients.
func (t *Tracker) Log(ctx context.Context, provider, endpoint string, cost float64, success bool, errMsg string) {
	call := model.APICall{
		Provider:  provider,
		Endpoint:  endpoint,
		Cost:      cost,
		Success:   success,
		Error:     errMsg,
		Timestamp: time.Now().UTC(),
	}
	if err := t.store.LogAPICall(ctx, call); err != nil {
		zap.L().Debug("cost record dropped",
			zap.String("provider", provider),
			zap.Error(err))
	}
}

// Rates exposes the configured pricing table.
func (t *Tracker) Rates() Rates {
	return t.rates
}

// Summary aggregates spend per provider since the given time.
func (t *Tracker) Summary(ctx context.Context, since time.Time) ([]store.ProviderCost, error) {
	return t.store.CostSummary(ctx, since)
}

// Total sums the per-provider totals.
func Total(costs []store.ProviderCost) float64 {
	var total float64
	for _, c := range costs {
		total += c.TotalCost
	}
	return total
}
