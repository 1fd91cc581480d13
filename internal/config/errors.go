package config

import "errors"

// Configuration validation errors, returned by Config.Validate and the
// site file loader.
var (
	// ErrNoTarget is returned when no site name is given.
	ErrNoTarget = errors.New("no site specified: name one or more sites, see 'tablecrawl sites'")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the per-site concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidMaxPages is returned when the page cap is negative.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrNoDBDir is returned when storage is enabled without a directory.
	ErrNoDBDir = errors.New("database directory is empty")

	// ErrUnknownSite is returned for a site name with no definition.
	ErrUnknownSite = errors.New("unknown site")

	// ErrInvalidSite is returned when a site definition is incomplete or malformed.
	ErrInvalidSite = errors.New("invalid site definition")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
