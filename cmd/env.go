package main

import (
	"context"
	"os"
	"time"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/cost"
	"github.com/sells-group/leadgen-cli/internal/enrich"
	"github.com/sells-group/leadgen-cli/internal/pipeline"
	"github.com/sells-group/leadgen-cli/internal/scrape"
	"github.com/sells-group/leadgen-cli/internal/store"
	"github.com/sells-group/leadgen-cli/pkg/geocode"
	"github.com/sells-group/leadgen-cli/pkg/hunter"
	"github.com/sells-group/leadgen-cli/pkg/mapsearch"
	sfpkg "github.com/sells-group/leadgen-cli/pkg/salesforce"
)

// appEnv holds the initialized store, clients, and pipeline shared by the
// run/serve commands.
type appEnv struct {
	Store    store.Store
	Costs    *cost.Tracker
	Enricher *enrich.Enricher
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// buildEnv sets up the store, API clients, enrichment waterfall, and
// pipeline. Callers should defer env.Close().
func buildEnv(ctx context.Context) (*appEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	costs := cost.NewTracker(st, cost.DefaultRates())
	enricher, err := buildEnricher(costs)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	if cfg.MapSearch.Key == "" {
		_ = st.Close()
		return nil, eris.New("map search API key is required (LEADGEN_MAPSEARCH_KEY)")
	}
	searchOpts := []mapsearch.Option{mapsearch.WithRateLimit(cfg.MapSearch.RateLimit)}
	if cfg.MapSearch.BaseURL != "" {
		searchOpts = append(searchOpts, mapsearch.WithBaseURL(cfg.MapSearch.BaseURL))
	}
	searchClient := mapsearch.NewClient(cfg.MapSearch.Key, searchOpts...)

	geocoder := geocode.NewClient(geocode.WithBaseURL(cfg.Geocode.BaseURL))

	p := pipeline.New(st, searchClient, geocoder, enricher, costs, pipeline.Options{
		MaxResults:  cfg.Search.MaxResults,
		Concurrency: cfg.Search.Concurrency,
		RadiusKm:    cfg.Search.RadiusKm,
		GridStepKm:  cfg.Search.GridStepKm,
		Zoom:        cfg.Search.Zoom,
	})

	return &appEnv{
		Store:    st,
		Costs:    costs,
		Enricher: enricher,
		Pipeline: p,
	}, nil
}

// buildEnricher assembles the discovery waterfall in priority order.
// Domain search is skipped when no Hunter key is configured.
func buildEnricher(costs *cost.Tracker) (*enrich.Enricher, error) {
	timeout := time.Duration(cfg.Scrape.TimeoutSecs) * time.Second
	delay := time.Duration(cfg.Scrape.PageDelaySecs * float64(time.Second))
	backoff := time.Duration(cfg.Scrape.RetryBackoffSecs * float64(time.Second))

	methods := []enrich.Method{
		enrich.NewWebsiteScraping(scrape.NewLocalFetcher(timeout)).WithDelay(delay),
		enrich.NewEnhancedScraping(scrape.NewStealthFetcher(timeout).WithRetryBackoff(backoff)).WithDelay(delay),
	}

	if cfg.Hunter.Key != "" {
		hunterOpts := []hunter.Option{}
		if cfg.Hunter.BaseURL != "" {
			hunterOpts = append(hunterOpts, hunter.WithBaseURL(cfg.Hunter.BaseURL))
		}
		client := hunter.NewClient(cfg.Hunter.Key, hunterOpts...)
		methods = append(methods, enrich.NewDomainSearch(client, costs,
			cfg.Enrich.MaxEmailsPerBusiness, costs.Rates().HunterEmail))
	} else {
		zap.L().Debug("LEADGEN_HUNTER_KEY not set, domain search disabled")
	}

	methods = append(methods, enrich.PatternGeneration{})

	weights := enrich.DefaultWeights()
	threshold := cfg.Enrich.ConfidenceThreshold
	if cfg.Enrich.ScoringFile != "" {
		w, err := enrich.LoadWeights(cfg.Enrich.ScoringFile)
		if err != nil {
			return nil, eris.Wrap(err, "load scoring weights")
		}
		// The scoring file's threshold wins over the config key.
		weights = w
		threshold = w.Threshold
	}

	return enrich.New(enrich.Config{
		ConfidenceThreshold:  threshold,
		MaxEmailsPerBusiness: cfg.Enrich.MaxEmailsPerBusiness,
		Weights:              weights,
	}, methods...), nil
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.Path
		if dsn == "" {
			dsn = "leadgen.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initSalesforce() (sfpkg.Client, error) {
	if cfg.Salesforce.ClientID == "" {
		return nil, eris.New("salesforce client ID is required (LEADGEN_SALESFORCE_CLIENT_ID)")
	}

	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         cfg.Salesforce.LoginURL,
		Username:       cfg.Salesforce.Username,
		ConsumerKey:    cfg.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	return sfpkg.NewClient(sf), nil
}
