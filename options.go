package grapnel

import "github.com/grapnel-db/grapnel/internal/cypher"

// queryConfig collects per-call behavior shared by the read operations.
type queryConfig struct {
	autoFetch bool
	include   []string
	options   cypher.Options
}

// QueryOption adjusts a single client operation.
type QueryOption func(*queryConfig)

// WithAutoFetch resolves the declared relationships of the queried model in
// the same statement and attaches the related entities to each result. With
// no arguments every declared relationship is fetched; passing model names
// restricts fetching to relationships whose relationship or target model is
// listed.
func WithAutoFetch(models ...string) QueryOption {
	return func(c *queryConfig) {
		c.autoFetch = true
		c.include = models
	}
}

// WithSort orders results by the given property, ascending.
func WithSort(property string) QueryOption {
	return func(c *queryConfig) {
		c.options.Sort = append(c.options.Sort, cypher.SortKey{Property: property})
	}
}

// WithSortDesc orders results by the given property, descending.
func WithSortDesc(property string) QueryOption {
	return func(c *queryConfig) {
		c.options.Sort = append(c.options.Sort, cypher.SortKey{Property: property, Descending: true})
	}
}

// WithLimit caps the number of results.
func WithLimit(n int) QueryOption {
	return func(c *queryConfig) { c.options.Limit = n }
}

// WithSkip skips the first n results.
func WithSkip(n int) QueryOption {
	return func(c *queryConfig) { c.options.Skip = n }
}

func applyOptions(opts []QueryOption) queryConfig {
	var cfg queryConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
