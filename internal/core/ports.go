package core

import (
	"context"
)

// EmailParser turns a raw message into a ParsedEmail
type EmailParser interface {
	// Parse decodes the raw message bytes
	Parse(raw []byte) (*ParsedEmail, error)
}

// RegistrationLookup defines the interface for the registration-lookup service
type RegistrationLookup interface {
	// Lookup retrieves the registration record of a domain
	Lookup(ctx context.Context, domain string) (*RegistrationRecord, error)
}

// CredibilityAssessor scores a domain from its registration record
type CredibilityAssessor interface {
	// Assess computes the credibility score, record may be nil
	Assess(domain string, record *RegistrationRecord) *CredibilityScore
}

// Embedder defines the interface for the embedding service
type Embedder interface {
	// Embed returns one vector per input text, in input order
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex defines the interface for the nearest-neighbor index
type VectorIndex interface {
	// Query returns up to k neighbors of the vector
	Query(ctx context.Context, vector []float32, k int) ([]SimilarityMatch, error)
}

// SimilaritySearcher finds labeled samples similar to a query text
type SimilaritySearcher interface {
	// Search returns up to k matches ordered by ascending distance
	Search(ctx context.Context, query string, k int) ([]SimilarityMatch, error)
}

// PageFetcher retrieves the visible text of a linked page
type PageFetcher interface {
	// FetchText returns the page text of the URL
	FetchText(ctx context.Context, url string) (string, error)
}

// CacheRepository defines the interface for caching registration lookups
type CacheRepository interface {
	// Get retrieves a cached entry for a domain
	Get(ctx context.Context, domain string) (*CacheEntry, error)

	// Set stores a cache entry
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, domain string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}
