package db

import "github.com/kailas-cloud/sitekit/internal/domain/search/filter"

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}

// FilterQuery is the input for a predicate-filtered listing over an FT index.
type FilterQuery struct {
	IndexName    string
	Filter       filter.Predicate
	Offset       int
	Limit        int
	ReturnFields []string
}
