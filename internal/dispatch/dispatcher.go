package dispatch

import (
	"fmt"
	"log/slog"
	"net/url"

	"golang.org/x/net/html"

	"github.com/nao1215/tablecrawl/internal/extract"
	"github.com/nao1215/tablecrawl/internal/model"
)

// Dispatcher turns index entries into fetches and detail pages into records.
// It is immutable after New and safe for concurrent use.
//
// Design decision: We bind the entry name into each PendingFetch instead of
// remembering the entry being processed. Responses may then arrive in any
// order, and the dispatcher never needs a lock.
type Dispatcher struct {
	// site names the records this dispatcher produces.
	site string

	// base resolves relative links found on the index page.
	base *url.URL

	rules  Rules
	logger *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used to report skipped rows and empty pages.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// New creates a Dispatcher for site. baseURL is the index page URL (or the
// table page for sites without an index) and must be absolute http(s).
func New(site, baseURL string, rules Rules, opts ...Option) (*Dispatcher, error) {
	base, err := extract.ParseBase(baseURL)
	if err != nil {
		return nil, err
	}
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("site %s: %w", site, err)
	}

	d := &Dispatcher{
		site:  site,
		base:  base,
		rules: rules,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d, nil
}

// Site returns the site name stamped on records.
func (d *Dispatcher) Site() string {
	return d.site
}

// BaseURL returns the URL links are resolved against.
func (d *Dispatcher) BaseURL() string {
	return d.base.String()
}

// Rebase returns a copy of d that resolves links against baseURL. d itself
// is unchanged. The crawler uses it when the start page was served from
// another URL than the one requested, e.g. after a redirect.
func (d *Dispatcher) Rebase(baseURL string) (*Dispatcher, error) {
	base, err := extract.ParseBase(baseURL)
	if err != nil {
		return nil, err
	}
	rebased := *d
	rebased.base = base
	return &rebased, nil
}

// Rules returns the rules the dispatcher was built with.
func (d *Dispatcher) Rules() Rules {
	return d.rules
}

// Start returns the fetch for the start page. Its context is empty.
func (d *Dispatcher) Start() model.PendingFetch {
	return model.PendingFetch{
		URL:     d.base.String(),
		Context: model.Context{},
	}
}

// EnumerateLinks extracts (name, link) pairs from a parsed index page.
// A document without matching rows yields an empty slice.
func (d *Dispatcher) EnumerateLinks(doc *html.Node) ([]model.IndexEntry, error) {
	idx := d.rules.Index
	if idx == nil {
		return nil, ErrNoIndexRules
	}

	rows, err := idx.Rows.All(doc)
	if err != nil {
		return nil, fmt.Errorf("index rows: %w", err)
	}

	entries := make([]model.IndexEntry, 0, len(rows))
	for _, row := range rows {
		name, err := valueOr(idx.Name, row, extract.Text)
		if err != nil {
			return nil, fmt.Errorf("index name: %w", err)
		}
		link, err := valueOr(idx.Link, row, func(n *html.Node) string {
			return extract.Attr(n, "href")
		})
		if err != nil {
			return nil, fmt.Errorf("index link: %w", err)
		}
		entries = append(entries, model.IndexEntry{Name: name, Link: link})
	}
	return entries, nil
}

// Dispatch resolves entry.Link against the base URL and binds entry.Name
// into a new context. It performs no I/O. A link that cannot be resolved
// returns an error wrapping extract.ErrInvalidLink; the caller should skip
// the entry and carry on.
func (d *Dispatcher) Dispatch(entry model.IndexEntry) (model.PendingFetch, error) {
	target, err := extract.Resolve(d.base, entry.Link)
	if err != nil {
		return model.PendingFetch{}, fmt.Errorf("entry %q: %w", entry.Name, err)
	}
	return model.PendingFetch{
		URL:     target,
		Context: model.Context{d.rules.ContextKey(): entry.Name},
	}, nil
}

// OnResponse reads every data row of a parsed detail page and merges it with
// fetch.Context. It returns one record per row. A page without the expected
// rows yields nil and is logged as a warning rather than treated as an error.
func (d *Dispatcher) OnResponse(fetch model.PendingFetch, doc *html.Node) []model.DetailRecord {
	detail := d.rules.Detail

	rows, err := detail.Rows.All(doc)
	if err != nil {
		d.logger.Warn("detail rows selector failed",
			"site", d.site,
			"url", fetch.URL,
			"error", err,
		)
		return nil
	}
	if len(rows) == 0 {
		d.logger.Warn("no rows found on detail page",
			"site", d.site,
			"url", fetch.URL,
			"selector", detail.Rows.String(),
		)
		return nil
	}

	records := make([]model.DetailRecord, 0, len(rows))
	for i, row := range rows {
		values, ok := d.readRow(row)
		if !ok {
			d.logger.Debug("skipping row",
				"site", d.site,
				"url", fetch.URL,
				"row", i,
			)
			continue
		}
		records = append(records, model.NewDetailRecord(d.site, fetch.URL, fetch.Context, values))
	}
	return records
}

// readRow evaluates every field against row. It reports false when a field
// selector fails or when every field is empty, which is how header and
// spacer rows look.
func (d *Dispatcher) readRow(row *html.Node) (map[string]string, bool) {
	values := make(map[string]string, len(d.rules.Detail.Fields))
	empty := true
	for _, f := range d.rules.Detail.Fields {
		v, err := f.Selector.Value(row)
		if err != nil {
			d.logger.Warn("field selector failed",
				"site", d.site,
				"field", f.Name,
				"error", err,
			)
			return nil, false
		}
		if v != "" {
			empty = false
		}
		values[f.Name] = v
	}
	return values, !empty
}

// valueOr evaluates sel against n, or applies fallback when sel is unset.
func valueOr(sel extract.Selector, n *html.Node, fallback func(*html.Node) string) (string, error) {
	if sel.IsZero() {
		return fallback(n), nil
	}
	return sel.Value(n)
}
