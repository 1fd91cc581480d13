package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/tablecrawl/internal/dispatch"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	if cfg.Timeout != 30*time.Second {
		t.Errorf("expected Timeout to be 30s, got %v", cfg.Timeout)
	}
	if cfg.Concurrency != 4 {
		t.Errorf("expected Concurrency to be 4, got %d", cfg.Concurrency)
	}
	if cfg.BatchSize != 2 {
		t.Errorf("expected BatchSize to be 2, got %d", cfg.BatchSize)
	}
	if cfg.MaxPages != 0 {
		t.Errorf("expected MaxPages to be 0, got %d", cfg.MaxPages)
	}
	if cfg.CrawlDelay != 500*time.Millisecond {
		t.Errorf("expected CrawlDelay to be 500ms, got %v", cfg.CrawlDelay)
	}
	if cfg.Format != "table" {
		t.Errorf("expected Format to be table, got %q", cfg.Format)
	}
	if !cfg.SaveToDB {
		t.Error("expected SaveToDB to be true")
	}
	if cfg.DBDir != XDGDataDir() {
		t.Errorf("expected DBDir to be %q, got %q", XDGDataDir(), cfg.DBDir)
	}
}

// TestConfigValidate tests the Validate method with various configurations.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Targets = []string{"worldometers"}
		cfg.DBDir = "/tmp/tablecrawl"
		return cfg
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{name: "valid config", modify: func(*Config) {}},
		{name: "no targets", modify: func(c *Config) { c.Targets = nil }, wantErr: ErrNoTarget},
		{name: "zero timeout", modify: func(c *Config) { c.Timeout = 0 }, wantErr: ErrInvalidTimeout},
		{name: "zero concurrency", modify: func(c *Config) { c.Concurrency = 0 }, wantErr: ErrInvalidConcurrency},
		{name: "zero batch size", modify: func(c *Config) { c.BatchSize = 0 }, wantErr: ErrInvalidBatchSize},
		{name: "negative max pages", modify: func(c *Config) { c.MaxPages = -1 }, wantErr: ErrInvalidMaxPages},
		{name: "negative delay", modify: func(c *Config) { c.CrawlDelay = -time.Second }, wantErr: ErrInvalidCrawlDelay},
		{name: "zero delay is allowed", modify: func(c *Config) { c.CrawlDelay = 0 }},
		{name: "negative body size", modify: func(c *Config) { c.MaxBodySize = -1 }, wantErr: ErrInvalidMaxBodySize},
		{name: "db without dir", modify: func(c *Config) { c.DBDir = "" }, wantErr: ErrNoDBDir},
		{name: "no db without dir", modify: func(c *Config) { c.DBDir = ""; c.SaveToDB = false }},
		{
			name: "unknown site",
			modify: func(c *Config) {
				sites, _ := BuiltinSites()
				c.Sites = sites
				c.Targets = []string{"worldometers", "nope"}
			},
			wantErr: ErrUnknownSite,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected nil, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestBuiltinSites tests the shipped site definitions.
func TestBuiltinSites(t *testing.T) {
	t.Parallel()

	sites, err := BuiltinSites()
	if err != nil {
		t.Fatalf("failed to load built-in sites: %v", err)
	}
	if diff := cmp.Diff([]string{"national_debt", "worldometers"}, sites.Names()); diff != "" {
		t.Errorf("site names mismatch (-want +got):\n%s", diff)
	}
	if err := sites.Validate(); err != nil {
		t.Errorf("built-in sites are invalid: %v", err)
	}

	t.Run("worldometers follows links", func(t *testing.T) {
		t.Parallel()

		site, err := sites.Site("worldometers")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !site.Rules.Follows() {
			t.Error("expected index rules")
		}
		if site.Rules.Index.Rows.XPath != "//td/a" {
			t.Errorf("unexpected index rows %q", site.Rules.Index.Rows.XPath)
		}
		want := []string{"country_name", "year", "population"}
		if diff := cmp.Diff(want, site.Rules.Columns()); diff != "" {
			t.Errorf("columns mismatch (-want +got):\n%s", diff)
		}
		if site.Rules.Detail.Fields[0].Type != dispatch.FieldNumber || !site.Rules.Detail.Fields[0].Required {
			t.Errorf("unexpected year field %+v", site.Rules.Detail.Fields[0])
		}
	})

	t.Run("national_debt is flat", func(t *testing.T) {
		t.Parallel()

		site, err := sites.Site("national_debt")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if site.Rules.Follows() {
			t.Error("expected no index rules")
		}
		want := []string{"country_name", "ratio"}
		if diff := cmp.Diff(want, site.Rules.Columns()); diff != "" {
			t.Errorf("columns mismatch (-want +got):\n%s", diff)
		}
	})
}

// TestFileSite tests merging defaults into a site.
func TestFileSite(t *testing.T) {
	t.Parallel()

	f := &File{
		Defaults: Defaults{
			Cookie:  "default=1",
			Headers: map[string]string{"Accept-Language": "en", "X-Default": "yes"},
			Delay:   time.Second,
		},
		Sites: map[string]SiteConfig{
			"plain": {StartURL: "https://example.com/"},
			"custom": {
				StartURL: "https://example.com/",
				Cookie:   "site=1",
				Headers:  map[string]string{"Accept-Language": "de"},
				Delay:    2 * time.Second,
			},
		},
	}

	t.Run("defaults apply", func(t *testing.T) {
		t.Parallel()

		site, err := f.Site("plain")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if site.Cookie != "default=1" || site.Delay != time.Second {
			t.Errorf("expected defaults, got %+v", site)
		}
		if diff := cmp.Diff(f.Defaults.Headers, site.Headers); diff != "" {
			t.Errorf("headers mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("site overrides", func(t *testing.T) {
		t.Parallel()

		site, err := f.Site("custom")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if site.Cookie != "site=1" || site.Delay != 2*time.Second {
			t.Errorf("expected site values, got %+v", site)
		}
		want := map[string]string{"Accept-Language": "de", "X-Default": "yes"}
		if diff := cmp.Diff(want, site.Headers); diff != "" {
			t.Errorf("headers mismatch (-want +got):\n%s", diff)
		}
		if f.Defaults.Headers["Accept-Language"] != "en" {
			t.Error("expected defaults to be left unchanged")
		}
	})

	t.Run("unknown site", func(t *testing.T) {
		t.Parallel()

		if _, err := f.Site("missing"); !errors.Is(err, ErrUnknownSite) {
			t.Errorf("expected ErrUnknownSite, got %v", err)
		}
	})
}

// TestSiteConfigValidate tests site validation.
func TestSiteConfigValidate(t *testing.T) {
	t.Parallel()

	sites, err := BuiltinSites()
	if err != nil {
		t.Fatalf("failed to load built-in sites: %v", err)
	}
	valid := sites.Sites["national_debt"]

	tests := []struct {
		name   string
		modify func(*SiteConfig)
	}{
		{name: "empty start url", modify: func(s *SiteConfig) { s.StartURL = "" }},
		{name: "relative start url", modify: func(s *SiteConfig) { s.StartURL = "/debt" }},
		{name: "no fields", modify: func(s *SiteConfig) { s.Rules.Detail.Fields = nil }},
		{name: "negative delay", modify: func(s *SiteConfig) { s.Delay = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			site := valid
			site.Rules.Detail.Fields = append([]dispatch.Field(nil), valid.Rules.Detail.Fields...)
			tt.modify(&site)
			if err := site.Validate(); !errors.Is(err, ErrInvalidSite) {
				t.Errorf("expected ErrInvalidSite, got %v", err)
			}
		})
	}
}

const customYAML = `
defaults:
  delay: 2s
  headers:
    Accept-Language: en
sites:
  national_debt:
    startURL: https://example.com/debt/
    detail:
      rows:
        css: tbody tr
      fields:
        - name: country
          css: td a
        - name: flag
          css: td img
          attr: src
  gdp:
    description: GDP per country
    startURL: https://example.com/gdp/
    index:
      rows:
        css: td a
    detail:
      contextKey: country
      rows:
        xpath: //tbody/tr
      fields:
        - name: gdp
          xpath: ./td[2]/text()
          type: number
`

// TestLoadConfigFile tests loading site definitions from YAML.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("parses sites", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".tablecrawl")
		if err := os.WriteFile(path, []byte(customYAML), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		f, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.Defaults.Delay != 2*time.Second {
			t.Errorf("expected 2s delay, got %v", f.Defaults.Delay)
		}

		debt := f.Sites["national_debt"]
		if debt.Rules.Detail.Rows.CSS != "tbody tr" {
			t.Errorf("unexpected rows %+v", debt.Rules.Detail.Rows)
		}
		if got := debt.Rules.Detail.Fields[1]; got.Selector.CSS != "td img" || got.Selector.Attr != "src" {
			t.Errorf("unexpected flag field %+v", got)
		}

		gdp := f.Sites["gdp"]
		if !gdp.Rules.Follows() || gdp.Rules.ContextKey() != "country" {
			t.Errorf("unexpected gdp rules %+v", gdp.Rules)
		}
		if gdp.Rules.Detail.Fields[0].Type != dispatch.FieldNumber {
			t.Errorf("expected number type, got %q", gdp.Rules.Detail.Fields[0].Type)
		}
		if err := f.Validate(); err != nil {
			t.Errorf("expected valid file, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "bad")
		if err := os.WriteFile(path, []byte("sites: [unclosed"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected parse error")
		}
	})
}

// TestLoadSites tests combining built-in sites with a config file.
func TestLoadSites(t *testing.T) {
	t.Parallel()

	t.Run("explicit file overrides built-ins", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "sites.yaml")
		if err := os.WriteFile(path, []byte(customYAML), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		sites, used, err := LoadSites(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if used != path {
			t.Errorf("expected %q to be used, got %q", path, used)
		}
		want := []string{"gdp", "national_debt", "worldometers"}
		if diff := cmp.Diff(want, sites.Names()); diff != "" {
			t.Errorf("site names mismatch (-want +got):\n%s", diff)
		}
		if sites.Sites["national_debt"].StartURL != "https://example.com/debt/" {
			t.Error("expected file definition to replace the built-in one")
		}
	})

	t.Run("explicit missing file is an error", func(t *testing.T) {
		t.Parallel()

		_, _, err := LoadSites(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid site in file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "sites.yaml")
		bad := "sites:\n  broken:\n    startURL: https://example.com/\n    detail:\n      rows:\n        xpath: '//tr['\n      fields:\n        - name: a\n          xpath: ./td\n"
		if err := os.WriteFile(path, []byte(bad), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		_, _, err := LoadSites(path)
		if !errors.Is(err, ErrInvalidSite) {
			t.Errorf("expected ErrInvalidSite, got %v", err)
		}
		if err != nil && !strings.Contains(err.Error(), "broken") {
			t.Errorf("expected site name in error, got %v", err)
		}
	})
}

// TestFindConfigFile tests config file discovery with an explicit path.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("sites: {}"), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if got := FindConfigFile(path); got != path {
		t.Errorf("expected %q, got %q", path, got)
	}
	if got := FindConfigFile(filepath.Join(t.TempDir(), "missing")); got != "" {
		t.Errorf("expected empty path for missing file, got %q", got)
	}
}

// TestXDGDirs tests XDG directory helpers.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for _, dir := range []string{XDGDataDir(), XDGConfigDir()} {
		if filepath.Base(dir) != AppName {
			t.Errorf("expected %q to end with %q", dir, AppName)
		}
	}
}
