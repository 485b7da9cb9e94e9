// Package store persists businesses, search jobs, and API cost events
// behind a backend-neutral interface. SQLite is the default backend;
// Postgres is available for shared deployments.
package store

import (
	"context"
	"time"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// BusinessFilter specifies criteria for listing businesses.
type BusinessFilter struct {
	SourceSearch string `json:"source_search,omitempty"`
	// WithEmail restricts results to enriched records.
	WithEmail bool `json:"with_email,omitempty"`
	Limit     int  `json:"limit,omitempty"`
	Offset    int  `json:"offset,omitempty"`
}

// ProviderCost aggregates spend per provider over a period.
type ProviderCost struct {
	Provider  string  `json:"provider"`
	Calls     int     `json:"calls"`
	Failures  int     `json:"failures"`
	TotalCost float64 `json:"total_cost"`
}

// Store defines the persistence interface for the lead pipeline.
type Store interface {
	// Businesses
	UpsertBusiness(ctx context.Context, biz model.Business) error
	GetBusiness(ctx context.Context, id string) (*model.Business, error)
	ListBusinesses(ctx context.Context, filter BusinessFilter) ([]model.Business, error)

	// Search jobs
	CreateJob(ctx context.Context, query, location string) (*model.SearchJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus, errMsg string) error
	UpdateJobProgress(ctx context.Context, jobID string, total, processed, emailsFound int) error
	GetJob(ctx context.Context, jobID string) (*model.SearchJob, error)
	ListJobs(ctx context.Context, limit int) ([]model.SearchJob, error)

	// Cost analytics
	LogAPICall(ctx context.Context, call model.APICall) error
	CostSummary(ctx context.Context, since time.Time) ([]ProviderCost, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
