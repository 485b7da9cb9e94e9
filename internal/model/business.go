// Package model defines the domain types shared across the pipeline.
package model

import "time"

// Business is a single listing pulled from the map-search provider,
// optionally enriched with contact information.
type Business struct {
	ID           string   `json:"id"`
	PlaceID      string   `json:"place_id,omitempty"`
	Name         string   `json:"name"`
	Address      string   `json:"address,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	Website      string   `json:"website,omitempty"`
	Rating       float64  `json:"rating,omitempty"`
	ReviewsCount int      `json:"reviews_count,omitempty"`
	Categories   []string `json:"categories,omitempty"`
	Latitude     float64  `json:"latitude,omitempty"`
	Longitude    float64  `json:"longitude,omitempty"`
	SourceSearch string   `json:"source_search,omitempty"`

	// Enrichment output. Empty until the enrichment waterfall has run
	// and found at least one qualifying email.
	Email            string     `json:"email,omitempty"`
	ContactName      string     `json:"contact_name,omitempty"`
	ConfidenceScore  float64    `json:"confidence_score,omitempty"`
	EnrichmentMethod string     `json:"enrichment_method,omitempty"`
	AdditionalEmails []string   `json:"additional_emails,omitempty"`
	EnrichedAt       *time.Time `json:"enriched_at,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
}

// HasEmail reports whether enrichment produced a primary email.
func (b Business) HasEmail() bool {
	return b.Email != ""
}
