package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/tablecrawl/internal/crawler"
	"github.com/nao1215/tablecrawl/internal/model"
)

// DefaultBatchConcurrency is the number of sites crawled at once.
const DefaultBatchConcurrency = 2

// SiteJob pairs a crawl job with the pipeline its records go through.
// Crawler, when set, replaces the processor's crawler for this job so
// that sites can use their own fetch settings.
type SiteJob struct {
	Job      crawler.Job
	Pipeline *Pipeline
	Crawler  *crawler.Crawler
}

// Result is the outcome of one site.
type Result struct {
	// Site is the site name.
	Site string

	// Stats are the crawler's counters.
	Stats crawler.Stats

	// Kept is the number of records that passed every step.
	Kept int

	// Dropped is the number of records a step discarded.
	Dropped int

	// Elapsed is the wall time of the site.
	Elapsed time.Duration

	// Err is the error that ended the site, if any.
	Err error
}

// BatchProcessor crawls several sites concurrently.
type BatchProcessor struct {
	crawler     *crawler.Crawler
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of sites crawled at once.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor that crawls with c.
// c may be nil when every job carries its own crawler.
func NewBatchProcessor(c *crawler.Crawler, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		crawler:     c,
		concurrency: DefaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch crawls every job and returns the results in job order.
// A failing site does not stop the others; its error is in its Result.
// The returned error is non-nil only when ctx ends the batch.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, jobs []SiteJob) ([]Result, error) {
	results := make([]Result, len(jobs))
	var mu sync.Mutex
	err := bp.ProcessBatchWithCallback(ctx, jobs, func(r Result, i int) {
		mu.Lock()
		results[i] = r
		mu.Unlock()
	})
	return results, err
}

// ProcessBatchWithCallback crawls every job and calls callback as each
// site finishes. The callback is called from the goroutine that ran the
// site, so it must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	jobs []SiteJob,
	callback func(result Result, index int),
) error {
	bp.logger.Info("starting batch",
		"sites", len(jobs),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			result := bp.runSite(gctx, job)
			callback(result, i)

			if result.Err != nil {
				bp.logger.Warn("site failed",
					"site", result.Site,
					"error", result.Err,
				)
			}
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Info("batch complete",
		"sites", len(jobs),
		"elapsed", time.Since(startTime).Round(time.Millisecond),
	)
	if err != nil {
		return err
	}
	return ctx.Err()
}

// runSite crawls one job and feeds its records through the job's pipeline.
func (bp *BatchProcessor) runSite(ctx context.Context, job SiteJob) Result {
	result := Result{Site: job.Job.Site}
	start := time.Now()

	p := job.Pipeline
	if p == nil {
		p = New(WithLogger(bp.logger))
	}

	c := job.Crawler
	if c == nil {
		c = bp.crawler
	}
	if c == nil {
		result.Err = ErrNoCrawler
		return result
	}

	stats, err := c.Run(ctx, job.Job, func(rec model.DetailRecord) error {
		_, keep, err := p.Process(ctx, rec)
		if err != nil {
			return err
		}
		if keep {
			result.Kept++
		} else {
			result.Dropped++
		}
		return nil
	})

	result.Stats = stats
	result.Err = err
	result.Elapsed = time.Since(start)
	return result
}
