package crawler

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/tablecrawl/internal/dispatch"
	"github.com/nao1215/tablecrawl/internal/extract"
	"github.com/nao1215/tablecrawl/internal/fetch"
	"github.com/nao1215/tablecrawl/internal/model"
)

// DefaultConcurrency is the number of detail pages fetched at once.
const DefaultConcurrency = 4

// Job is one site to crawl.
type Job struct {
	// Site names the site definition.
	Site string

	// StartURL is the index page, or the table page for flat sites.
	// Empty means the dispatcher's base URL.
	StartURL string

	// Dispatcher interprets the pages of this site.
	Dispatcher *dispatch.Dispatcher
}

// Stats summarizes a run.
type Stats struct {
	// Entries is the number of index entries found on the start page.
	Entries int

	// Dispatched is the number of detail fetches started.
	Dispatched int

	// Skipped is the number of entries whose link could not be resolved.
	Skipped int

	// FetchFailed is the number of detail pages that could not be fetched
	// or parsed. They contribute no records.
	FetchFailed int

	// Records is the number of records handed to emit.
	Records int
}

// Crawler fetches pages and feeds them to a dispatcher.
// A Crawler is safe for concurrent use; each Run keeps its own state.
//
// Design decision: We fetch detail pages concurrently but call emit from
// one goroutine only. Pipeline steps and report writers can then be plain
// sequential code.
type Crawler struct {
	fetcher        fetch.Fetcher
	concurrency    int
	maxDetailPages int
	logger         *slog.Logger
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithConcurrency sets how many detail pages are fetched at once.
// Values below 1 keep the default.
func WithConcurrency(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithMaxDetailPages caps the number of detail fetches per run.
// 0 means no limit.
func WithMaxDetailPages(n int) Option {
	return func(c *Crawler) {
		if n >= 0 {
			c.maxDetailPages = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// New creates a Crawler that retrieves pages through fetcher.
func New(fetcher fetch.Fetcher, opts ...Option) *Crawler {
	c := &Crawler{
		fetcher:     fetcher,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Run crawls job and calls emit once per record. emit is never called
// concurrently. An error from emit stops the run and is returned.
//
// A start page that cannot be loaded fails the run with ErrStartPage.
// Entries with bad links and detail pages that fail to load are logged,
// counted in Stats, and otherwise ignored.
func (c *Crawler) Run(ctx context.Context, job Job, emit func(model.DetailRecord) error) (Stats, error) {
	var stats Stats

	d := job.Dispatcher
	if d == nil {
		return stats, ErrNoDispatcher
	}

	start := d.Start()
	if job.StartURL != "" {
		start.URL = job.StartURL
	}

	doc, servedURL, err := c.load(ctx, start.URL)
	if err != nil {
		return stats, fmt.Errorf("%w: %s: %w", ErrStartPage, job.Site, err)
	}
	if servedURL != d.BaseURL() {
		// Links on the page are relative to where it was served from.
		rebased, err := d.Rebase(servedURL)
		if err != nil {
			return stats, fmt.Errorf("%w: %s: %w", ErrStartPage, job.Site, err)
		}
		c.logger.Debug("start page moved", "site", job.Site, "requested", start.URL, "served", servedURL)
		d = rebased
		start.URL = servedURL
	}

	var mu sync.Mutex
	emitAll := func(records []model.DetailRecord) error {
		mu.Lock()
		defer mu.Unlock()
		for _, rec := range records {
			if err := emit(rec); err != nil {
				return err
			}
			stats.Records++
		}
		return nil
	}

	if !d.Rules().Follows() {
		if err := emitAll(d.OnResponse(start, doc)); err != nil {
			return stats, err
		}
		c.logger.Info("crawl finished", "site", job.Site, "records", stats.Records)
		return stats, nil
	}

	entries, err := d.EnumerateLinks(doc)
	if err != nil {
		return stats, fmt.Errorf("%w: %s: %w", ErrStartPage, job.Site, err)
	}
	if len(entries) == 0 {
		c.logger.Warn("no index entries found", "site", job.Site, "url", start.URL)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	var dispatched, skipped, failed int
	for _, entry := range entries {
		if gctx.Err() != nil {
			break
		}
		if c.maxDetailPages > 0 && dispatched >= c.maxDetailPages {
			c.logger.Debug("detail page limit reached", "site", job.Site, "limit", c.maxDetailPages)
			break
		}

		pf, err := d.Dispatch(entry)
		if err != nil {
			c.logger.Warn("skipping index entry",
				"site", job.Site,
				"name", entry.Name,
				"link", entry.Link,
				"error", err,
			)
			skipped++
			continue
		}
		dispatched++

		g.Go(func() error {
			page, _, err := c.load(gctx, pf.URL)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.logger.Warn("detail fetch failed",
					"site", job.Site,
					"url", pf.URL,
					"context", pf.Context,
					"error", err,
				)
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			return emitAll(d.OnResponse(pf, page))
		})
	}

	err = g.Wait()

	mu.Lock()
	stats.Entries = len(entries)
	stats.Dispatched = dispatched
	stats.Skipped = skipped
	stats.FetchFailed = failed
	mu.Unlock()

	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return stats, err
	}

	c.logger.Info("crawl finished",
		"site", job.Site,
		"entries", stats.Entries,
		"dispatched", stats.Dispatched,
		"skipped", stats.Skipped,
		"fetch_failed", stats.FetchFailed,
		"records", stats.Records,
	)
	return stats, nil
}

// Records returns the records of job as a lazy sequence. Fetching starts
// when iteration starts. Breaking out of the loop cancels the remaining
// fetches. A run error is yielded once, as the last element.
func (c *Crawler) Records(ctx context.Context, job Job) iter.Seq2[model.DetailRecord, error] {
	return func(yield func(model.DetailRecord, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		out := make(chan model.DetailRecord)
		done := make(chan error, 1)
		go func() {
			_, err := c.Run(ctx, job, func(rec model.DetailRecord) error {
				select {
				case out <- rec:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			})
			done <- err
			close(out)
		}()

		for rec := range out {
			if !yield(rec, nil) {
				cancel()
				for range out {
				}
				<-done
				return
			}
		}
		if err := <-done; err != nil {
			yield(model.DetailRecord{}, err)
		}
	}
}

// load fetches pageURL and parses it into a DOM. It also returns the URL
// the page was served from.
func (c *Crawler) load(ctx context.Context, pageURL string) (*html.Node, string, error) {
	page, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, "", err
	}
	if !page.IsHTML() {
		return nil, "", fmt.Errorf("%w: %s (%s)", ErrNotHTML, pageURL, page.ContentType)
	}
	doc, err := extract.ParseDocument(page.Body, page.ContentType)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}
	servedURL := page.URL
	if servedURL == "" {
		servedURL = pageURL
	}
	return doc, servedURL, nil
}
