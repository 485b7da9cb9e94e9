package enrich

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Config tunes the waterfall. Zero values fall back to defaults.
type Config struct {
	// ConfidenceThreshold is the minimum score an address needs to qualify.
	ConfidenceThreshold float64
	// MaxEmailsPerBusiness caps the qualified addresses kept per business;
	// once the raw accumulator reaches it, later methods are skipped.
	MaxEmailsPerBusiness int
	// Weights overrides the scoring model. Zero means DefaultWeights.
	Weights Weights
}

func (c Config) withDefaults() Config {
	if c.Weights == (Weights{}) {
		c.Weights = DefaultWeights()
	}
	if c.ConfidenceThreshold == 0 {
		if c.Weights.Threshold != 0 {
			c.ConfidenceThreshold = c.Weights.Threshold
		} else {
			c.ConfidenceThreshold = 0.7
		}
	}
	if c.MaxEmailsPerBusiness == 0 {
		c.MaxEmailsPerBusiness = 3
	}
	return c
}

// Enricher runs the discovery waterfall for one business at a time. It holds
// no per-business state; enriching different businesses concurrently from a
// bounded worker pool is safe.
type Enricher struct {
	cfg     Config
	methods []Method
	now     func() time.Time
}

// New creates an Enricher. Methods are tried in the order given; callers
// pass them in priority order.
func New(cfg Config, methods ...Method) *Enricher {
	return &Enricher{
		cfg:     cfg.withDefaults(),
		methods: methods,
		now:     time.Now,
	}
}

// WithNow fixes the clock. Used by tests.
func (e *Enricher) WithNow(now func() time.Time) *Enricher {
	e.now = now
	return e
}

// attempt accumulates state for a single enrichment call. Discarded after
// the analytics log line is emitted.
type attempt struct {
	methodsTried     []MethodName
	methodResults    map[MethodName]int
	emailsFound      []string
	contactNames     []string
	successfulMethod MethodName
	success          bool
}

// Enrich runs the waterfall for one business and returns an updated copy.
// The input record is never mutated. Method failures degrade to empty
// results; the only returned error is a malformed input record.
func (e *Enricher) Enrich(ctx context.Context, biz model.Business) (model.Business, error) {
	if biz.Name == "" && biz.Website == "" {
		return biz, eris.New("enrich: business record has neither name nor website")
	}

	att := &attempt{methodResults: make(map[MethodName]int)}
	seen := make(map[string]bool)

	for _, m := range e.methods {
		if ctx.Err() != nil {
			// Cancelled: stop invoking methods, score what we have.
			break
		}
		if len(att.emailsFound) >= e.cfg.MaxEmailsPerBusiness {
			break
		}
		if !m.Available(biz) {
			continue
		}

		att.methodsTried = append(att.methodsTried, m.Name())
		emails, names := m.Discover(ctx, biz)
		att.methodResults[m.Name()] = len(emails)

		if len(emails) > 0 && att.successfulMethod == "" {
			att.successfulMethod = m.Name()
		}
		for _, addr := range emails {
			if !seen[addr] {
				seen[addr] = true
				att.emailsFound = append(att.emailsFound, addr)
			}
		}
		att.contactNames = append(att.contactNames, names...)
	}

	enriched := e.assemble(biz, att)
	e.logAttempt(biz, att)
	return enriched, nil
}

// assemble scores the accumulated candidates and writes the winners into a
// copy of the business record. With no qualifying candidate the record
// passes through unmodified.
func (e *Enricher) assemble(biz model.Business, att *attempt) model.Business {
	if len(att.emailsFound) == 0 {
		return biz
	}

	contributed := make(map[MethodName]bool, len(att.methodResults))
	for name, count := range att.methodResults {
		if count > 0 {
			contributed[name] = true
		}
	}

	var qualified []ScoredEmail
	for _, addr := range att.emailsFound {
		conf := e.cfg.Weights.score(addr, biz.Website, contributed)
		if conf >= e.cfg.ConfidenceThreshold {
			qualified = append(qualified, ScoredEmail{Address: addr, Confidence: conf})
		}
	}
	if len(qualified) == 0 {
		return biz
	}

	// Stable: first-discovered wins among equal scores.
	sort.SliceStable(qualified, func(i, j int) bool {
		return qualified[i].Confidence > qualified[j].Confidence
	})
	if len(qualified) > e.cfg.MaxEmailsPerBusiness {
		qualified = qualified[:e.cfg.MaxEmailsPerBusiness]
	}

	enriched := biz
	enriched.Email = qualified[0].Address
	enriched.ConfidenceScore = qualified[0].Confidence
	enriched.EnrichmentMethod = string(att.successfulMethod)
	now := e.now().UTC()
	enriched.EnrichedAt = &now

	if len(qualified) > 1 {
		extra := make([]string, 0, len(qualified)-1)
		for _, se := range qualified[1:] {
			extra = append(extra, se.Address)
		}
		enriched.AdditionalEmails = extra
	}
	if len(att.contactNames) > 0 {
		enriched.ContactName = att.contactNames[0]
	}

	att.success = true
	return enriched
}

// logAttempt emits the structured analytics line. Fire-and-forget.
func (e *Enricher) logAttempt(biz model.Business, att *attempt) {
	tried := make([]string, len(att.methodsTried))
	counts := make(map[string]int, len(att.methodResults))
	for i, m := range att.methodsTried {
		tried[i] = string(m)
		counts[string(m)] = att.methodResults[m]
	}

	zap.L().Info("enrichment attempt",
		zap.String("business", biz.Name),
		zap.String("website", biz.Website),
		zap.Strings("methods_tried", tried),
		zap.Any("method_results", counts),
		zap.String("successful_method", string(att.successfulMethod)),
		zap.Int("emails_found", len(att.emailsFound)),
		zap.Bool("success", att.success),
		zap.Time("timestamp", e.now().UTC()),
	)
}
