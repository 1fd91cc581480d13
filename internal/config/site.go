package config

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/nao1215/tablecrawl/internal/dispatch"
	"github.com/nao1215/tablecrawl/internal/extract"
)

// SiteConfig is one crawl definition.
type SiteConfig struct {
	// Description is shown by 'tablecrawl sites'.
	Description string `yaml:"description,omitempty"`

	// StartURL is the index page, or the table page for sites without an
	// index.
	StartURL string `yaml:"startURL"`

	// Rules describe how pages of the site are read.
	Rules dispatch.Rules `yaml:",inline"`

	// Cookie is an HTTP cookie to send with every request.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Delay overrides the global crawl delay for this site when non-zero.
	Delay time.Duration `yaml:"delay,omitempty"`
}

// Validate checks the start URL and compiles every selector.
func (s SiteConfig) Validate() error {
	if s.StartURL == "" {
		return fmt.Errorf("%w: startURL is empty", ErrInvalidSite)
	}
	if _, err := extract.ParseBase(s.StartURL); err != nil {
		return fmt.Errorf("%w: startURL: %w", ErrInvalidSite, err)
	}
	if err := s.Rules.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSite, err)
	}
	if s.Delay < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSite, ErrInvalidCrawlDelay)
	}
	return nil
}

// Defaults holds request settings applied to every site.
type Defaults struct {
	Cookie  string            `yaml:"cookie,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Delay   time.Duration     `yaml:"delay,omitempty"`
}

// File is the structure of a .tablecrawl configuration file.
type File struct {
	// Defaults are merged underneath every site's own settings.
	Defaults Defaults `yaml:"defaults,omitempty"`

	// Sites maps site names to their definitions.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`
}

// Names returns the site names in sorted order.
func (f *File) Names() []string {
	return slices.Sorted(maps.Keys(f.Sites))
}

// Site returns the named site with the file defaults merged in.
// Site settings override defaults; headers are merged key by key.
func (f *File) Site(name string) (SiteConfig, error) {
	site, ok := f.Sites[name]
	if !ok {
		return SiteConfig{}, fmt.Errorf("%w: %q (known: %v)", ErrUnknownSite, name, f.Names())
	}

	if site.Cookie == "" {
		site.Cookie = f.Defaults.Cookie
	}
	if site.Delay == 0 {
		site.Delay = f.Defaults.Delay
	}
	if len(f.Defaults.Headers) > 0 {
		headers := maps.Clone(f.Defaults.Headers)
		maps.Copy(headers, site.Headers)
		site.Headers = headers
	}
	return site, nil
}

// Merge returns a File holding the sites of base overlaid by the sites of
// over. A site defined in both is taken whole from over. Non-empty
// defaults in over replace those of base.
func Merge(base, over *File) *File {
	out := &File{Sites: make(map[string]SiteConfig)}
	for _, f := range []*File{base, over} {
		if f == nil {
			continue
		}
		maps.Copy(out.Sites, f.Sites)
		if f.Defaults.Cookie != "" {
			out.Defaults.Cookie = f.Defaults.Cookie
		}
		if f.Defaults.Delay != 0 {
			out.Defaults.Delay = f.Defaults.Delay
		}
		if len(f.Defaults.Headers) > 0 {
			out.Defaults.Headers = maps.Clone(f.Defaults.Headers)
		}
	}
	return out
}

// Validate checks every site definition.
func (f *File) Validate() error {
	for _, name := range f.Names() {
		if err := f.Sites[name].Validate(); err != nil {
			return fmt.Errorf("site %s: %w", name, err)
		}
	}
	return nil
}
