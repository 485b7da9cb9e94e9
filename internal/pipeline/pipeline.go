// Package pipeline orchestrates a search job from map search through
// enrichment to persistence.
package pipeline

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadgen-cli/internal/cost"
	"github.com/sells-group/leadgen-cli/internal/enrich"
	"github.com/sells-group/leadgen-cli/internal/geo"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/store"
	"github.com/sells-group/leadgen-cli/pkg/geocode"
	"github.com/sells-group/leadgen-cli/pkg/mapsearch"
)

// Options tunes a pipeline run.
type Options struct {
	// MaxResults caps listings fetched per grid cell.
	MaxResults int
	// Concurrency is the number of parallel enrichment workers.
	Concurrency int
	// RadiusKm widens the search around the geocoded location. Zero
	// searches a single anchor point.
	RadiusKm float64
	// GridStepKm is the spacing between grid cells when RadiusKm is set.
	GridStepKm float64
	// Zoom is the map zoom level for cell anchors.
	Zoom int
}

func (o Options) withDefaults() Options {
	if o.MaxResults <= 0 {
		o.MaxResults = 60
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 3
	}
	if o.GridStepKm <= 0 {
		o.GridStepKm = 5
	}
	return o
}

// Pipeline wires the search, geocode, enrichment and storage stages.
type Pipeline struct {
	store    store.Store
	search   mapsearch.Client
	geocoder geocode.Client
	enricher *enrich.Enricher
	costs    *cost.Tracker
	opts     Options
}

// New creates a pipeline. The geocoder may be nil when runs never pass a
// location.
func New(st store.Store, search mapsearch.Client, geocoder geocode.Client, enricher *enrich.Enricher, costs *cost.Tracker, opts Options) *Pipeline {
	return &Pipeline{
		store:    st,
		search:   search,
		geocoder: geocoder,
		enricher: enricher,
		costs:    costs,
		opts:     opts.withDefaults(),
	}
}

// Run creates a job record and executes it.
func (p *Pipeline) Run(ctx context.Context, query, location string) (*model.SearchJob, error) {
	job, err := p.store.CreateJob(ctx, query, location)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create job")
	}
	return p.RunJob(ctx, job)
}

// RunJob executes an already-created search job and returns the finished
// record. The job row is updated as stages progress so API callers can
// poll it.
func (p *Pipeline) RunJob(ctx context.Context, job *model.SearchJob) (*model.SearchJob, error) {
	query, location := job.Query, job.Location
	log := zap.L().With(
		zap.String("job_id", job.ID),
		zap.String("query", query),
		zap.String("location", location))

	fail := func(stage string, cause error) (*model.SearchJob, error) {
		wrapped := eris.Wrap(cause, "pipeline: "+stage)
		if uerr := p.store.UpdateJobStatus(ctx, job.ID, model.JobStatusFailed, wrapped.Error()); uerr != nil {
			log.Warn("job status update failed", zap.Error(uerr))
		}
		return nil, wrapped
	}

	if err := p.store.UpdateJobStatus(ctx, job.ID, model.JobStatusSearching, ""); err != nil {
		log.Warn("job status update failed", zap.Error(err))
	}

	businesses, err := p.searchStage(ctx, query, location)
	if err != nil {
		return fail("search", err)
	}
	log.Info("search complete", zap.Int("listings", len(businesses)))

	if err := p.store.UpdateJobProgress(ctx, job.ID, len(businesses), 0, 0); err != nil {
		log.Warn("job progress update failed", zap.Error(err))
	}
	if err := p.store.UpdateJobStatus(ctx, job.ID, model.JobStatusEnriching, ""); err != nil {
		log.Warn("job status update failed", zap.Error(err))
	}

	processed, emailsFound, err := p.enrichStage(ctx, job.ID, len(businesses), businesses)
	if err != nil {
		return fail("enrich", err)
	}

	if err := p.store.UpdateJobProgress(ctx, job.ID, len(businesses), processed, emailsFound); err != nil {
		log.Warn("job progress update failed", zap.Error(err))
	}
	if err := p.store.UpdateJobStatus(ctx, job.ID, model.JobStatusComplete, ""); err != nil {
		log.Warn("job status update failed", zap.Error(err))
	}

	log.Info("job complete",
		zap.Int("processed", processed),
		zap.Int("emails_found", emailsFound))

	return p.store.GetJob(ctx, job.ID)
}

// searchStage geocodes the location, tiles the area, and merges listings
// from every grid cell, deduplicating by place ID.
func (p *Pipeline) searchStage(ctx context.Context, query, location string) ([]model.Business, error) {
	cells, err := p.resolveCells(ctx, location)
	if err != nil {
		return nil, err
	}

	source := query
	if location != "" {
		source = query + " | " + location
	}

	seen := make(map[string]bool)
	var businesses []model.Business
	for _, cell := range cells {
		req := mapsearch.SearchRequest{
			Query:      query,
			MaxResults: p.opts.MaxResults,
		}
		if cell != (geo.Cell{}) {
			req.Coordinates = cell.LL(p.opts.Zoom)
		}

		result, err := p.search.Search(ctx, req)
		if result != nil && result.Requests > 0 && p.costs != nil {
			p.costs.Log(ctx, "mapsearch", "search",
				p.costs.Rates().MapSearchRequest*float64(result.Requests), err == nil, errString(err))
		}
		if err != nil {
			return nil, err
		}

		for _, l := range result.Listings {
			if l.PlaceID != "" && seen[l.PlaceID] {
				continue
			}
			if l.PlaceID != "" {
				seen[l.PlaceID] = true
			}
			businesses = append(businesses, listingToBusiness(l, source))
		}
	}
	return businesses, nil
}

func (p *Pipeline) resolveCells(ctx context.Context, location string) ([]geo.Cell, error) {
	if location == "" || p.geocoder == nil {
		return []geo.Cell{{}}, nil
	}

	point, err := p.geocoder.Geocode(ctx, location)
	if err != nil {
		return nil, eris.Wrap(err, "geocode location")
	}

	anchor := geo.Cell{Lat: point.Latitude, Lng: point.Longitude}
	if p.opts.RadiusKm <= 0 {
		return []geo.Cell{anchor}, nil
	}

	bounds := geo.BoundsAround(point.Latitude, point.Longitude, p.opts.RadiusKm)
	cells, err := geo.Grid(bounds, p.opts.GridStepKm)
	if err != nil {
		return nil, eris.Wrap(err, "tile search area")
	}
	return cells, nil
}

// enrichStage runs enrichment workers over the businesses and upserts each
// result. Individual failures are logged and skipped so one bad website
// never aborts the batch.
func (p *Pipeline) enrichStage(ctx context.Context, jobID string, total int, businesses []model.Business) (processed, emailsFound int, err error) {
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for _, biz := range businesses {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			enriched, enrichErr := p.enricher.Enrich(gctx, biz)
			if enrichErr != nil {
				zap.L().Warn("enrichment skipped",
					zap.String("business", biz.Name),
					zap.Error(enrichErr))
				enriched = biz
			}

			if upsertErr := p.store.UpsertBusiness(gctx, enriched); upsertErr != nil {
				zap.L().Warn("upsert failed",
					zap.String("business", enriched.Name),
					zap.Error(upsertErr))
			}

			mu.Lock()
			processed++
			if enriched.HasEmail() {
				emailsFound++
			}
			done, found := processed, emailsFound
			mu.Unlock()

			if done%10 == 0 {
				if progErr := p.store.UpdateJobProgress(gctx, jobID, total, done, found); progErr != nil {
					zap.L().Debug("job progress update failed", zap.Error(progErr))
				}
			}
			return nil
		})
	}

	if waitErr := g.Wait(); waitErr != nil {
		return processed, emailsFound, waitErr
	}
	return processed, emailsFound, nil
}

func listingToBusiness(l mapsearch.Listing, source string) model.Business {
	return model.Business{
		PlaceID:      l.PlaceID,
		Name:         l.Title,
		Address:      l.Address,
		Phone:        l.Phone,
		Website:      l.Website,
		Rating:       l.Rating,
		ReviewsCount: l.Reviews,
		Categories:   l.Types,
		Latitude:     l.Coordinates.Latitude,
		Longitude:    l.Coordinates.Longitude,
		SourceSearch: source,
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
