package model

import "time"

// JobStatus represents the current state of a search job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusSearching JobStatus = "searching"
	JobStatusEnriching JobStatus = "enriching"
	JobStatusComplete  JobStatus = "complete"
	JobStatusFailed    JobStatus = "failed"
)

// SearchJob tracks one search-and-enrich run from query to export.
type SearchJob struct {
	ID               string    `json:"id"`
	Query            string    `json:"query"`
	Location         string    `json:"location,omitempty"`
	Status           JobStatus `json:"status"`
	TotalResults     int       `json:"total_results"`
	ProcessedResults int       `json:"processed_results"`
	EmailsFound      int       `json:"emails_found"`
	Error            string    `json:"error,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// APICall is one billable request to an external provider, recorded for
// cost analytics. Failed calls are recorded with a zero cost.
type APICall struct {
	Provider  string    `json:"provider"`
	Endpoint  string    `json:"endpoint"`
	Cost      float64   `json:"cost"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
