package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "tablecrawl"

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultConcurrency is the number of detail pages fetched at once per site.
	DefaultConcurrency = 4

	// DefaultBatchSize is the number of sites crawled at once.
	DefaultBatchSize = 2

	// DefaultMaxPages caps detail fetches per site. 0 means no cap.
	DefaultMaxPages = 0

	// DefaultCrawlDelay is the minimum interval between request starts.
	// The statistics sites are small; half a second keeps a full crawl of a
	// few hundred countries within minutes without hammering the host.
	DefaultCrawlDelay = 500 * time.Millisecond

	// DefaultUserAgent identifies tablecrawl in HTTP requests.
	DefaultUserAgent = "tablecrawl/1.0 (+https://github.com/nao1215/tablecrawl)"

	// DefaultMaxBodySize limits the response body size to read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultFormat is the report format used when none is given.
	DefaultFormat = "table"
)

// Config holds the options of one tablecrawl invocation.
// It is populated from CLI flags and passed down explicitly.
type Config struct {
	// Timeout is the per-request timeout.
	Timeout time.Duration

	// Concurrency is the number of detail pages fetched at once per site.
	Concurrency int

	// BatchSize is the number of sites crawled at once.
	BatchSize int

	// MaxPages caps detail fetches per site. 0 means no cap.
	MaxPages int

	// CrawlDelay is the minimum interval between request starts, shared by
	// all workers of a site. A site's own delay takes precedence.
	CrawlDelay time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes.
	MaxBodySize int64

	// ProxyAddress is an optional SOCKS5 proxy in host:port form.
	ProxyAddress string

	// ConfigFilePath is the site file given with --config. When empty the
	// file is searched for in the current and home directories.
	ConfigFilePath string

	// Sites holds the site definitions: built-ins plus the config file.
	Sites *File

	// Format is the report format name, e.g. "csv".
	Format string

	// ReportFile is the output path. Empty means stdout.
	ReportFile string

	// DBDir is the directory of the SQLite database.
	DBDir string

	// SaveToDB stores runs and records in the database.
	SaveToDB bool

	// KeepGoing logs a failing store or write and moves on to the next
	// record instead of ending the site.
	KeepGoing bool

	// Targets are the names of the sites to crawl.
	Targets []string

	// Verbose enables debug logging.
	Verbose bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:     DefaultTimeout,
		Concurrency: DefaultConcurrency,
		BatchSize:   DefaultBatchSize,
		MaxPages:    DefaultMaxPages,
		CrawlDelay:  DefaultCrawlDelay,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		Format:      DefaultFormat,
		DBDir:       XDGDataDir(),
		SaveToDB:    true,
	}
}

// XDGDataDir returns the XDG data directory for tablecrawl.
// On Linux: ~/.local/share/tablecrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for tablecrawl.
// On Linux: ~/.config/tablecrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the run options. It returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.SaveToDB && c.DBDir == "" {
		return ErrNoDBDir
	}
	if c.Sites != nil {
		for _, name := range c.Targets {
			if _, err := c.Sites.Site(name); err != nil {
				return err
			}
		}
	}
	return nil
}
