package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/tablecrawl/internal/config"
	"github.com/nao1215/tablecrawl/internal/crawler"
	"github.com/nao1215/tablecrawl/internal/database"
	"github.com/nao1215/tablecrawl/internal/dispatch"
	"github.com/nao1215/tablecrawl/internal/fetch"
	"github.com/nao1215/tablecrawl/internal/pipeline"
	"github.com/nao1215/tablecrawl/internal/report"
)

// errSitesFailed is returned when at least one site ended with an error.
var errSitesFailed = errors.New("some sites failed")

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <site> [site...]",
		Short: "Crawl one or more sites and print their records",
		Long: `Crawl fetches each named site and writes its records.

For a site with an index, the start page is read for entries, each entry's
link is fetched, and every row of the detail table becomes a record carrying
the entry name. For a site without an index, the rows of the start page
become records directly.

Records are written to stdout (or --output) in the chosen format; a summary
goes to stderr. Runs and records are also stored in a SQLite database in the
XDG data directory unless --no-db is given.

Examples:
  # Population by year for every country
  tablecrawl crawl worldometers

  # Debt ratios as CSV
  tablecrawl crawl national_debt -f csv -o debt.csv

  # Only the first 10 countries, two requests per second
  tablecrawl crawl worldometers -p 10 -d 500ms

  # Sites from a custom config, crawled together
  tablecrawl crawl -c sites.yaml gdp_by_country capitals`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCrawlCmd,
	}

	cmd.Flags().StringP("format", "f", config.DefaultFormat, "Output format: jsonl, csv, markdown, table")
	cmd.Flags().StringP("output", "o", "", "Write records to this file instead of stdout")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency, "Detail pages fetched at once per site")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize, "Sites crawled at once")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages, "Maximum detail pages per site (0 = no limit)")
	cmd.Flags().DurationP("delay", "d", config.DefaultCrawlDelay, "Minimum interval between requests to a site")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "Timeout for each request")
	cmd.Flags().String("user-agent", config.DefaultUserAgent, "User-Agent header")
	cmd.Flags().String("proxy", "", "SOCKS5 proxy address (host:port)")
	cmd.Flags().StringP("config", "c", "", "Path to site configuration file (default: .tablecrawl)")
	cmd.Flags().Bool("no-db", false, "Do not store the run in the database")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory of the database")
	cmd.Flags().Bool("keep-going", false, "Log a failing store or write and continue with the next record")

	return cmd
}

func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runCrawl(ctx, cfg, format, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.Format, err = flags.GetString("format"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
		return nil, err
	}
	if cfg.CrawlDelay, err = flags.GetDuration("delay"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	noDB, err := flags.GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB
	if cfg.KeepGoing, err = flags.GetBool("keep-going"); err != nil {
		return nil, err
	}
	cfg.Verbose = getBoolFlag(cmd, "verbose")

	cfg.Sites, _, err = config.LoadSites(cfg.ConfigFilePath)
	if err != nil {
		return nil, err
	}

	cfg.Targets = args
	return cfg, nil
}

// siteRun is the per-site state of one crawl invocation.
type siteRun struct {
	name   string
	site   config.SiteConfig
	runID  int64
	out    bytes.Buffer
	writer report.Writer

	// store is nil when the run is not saved.
	store *pipeline.StoreStep
}

// runCrawl crawls every target and writes their records in target order.
func runCrawl(
	ctx context.Context,
	cfg *config.Config,
	format report.Format,
	stdout, stderr io.Writer,
	logger *slog.Logger,
) error {
	logger.Info("starting crawl",
		"sites", cfg.Targets,
		"batchSize", cfg.BatchSize,
		"concurrency", cfg.Concurrency,
		"saveToDB", cfg.SaveToDB,
		"keepGoing", cfg.KeepGoing,
	)

	var db *database.RecordDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
	}

	runs := make([]*siteRun, 0, len(cfg.Targets))
	jobs := make([]pipeline.SiteJob, 0, len(cfg.Targets))
	for _, name := range cfg.Targets {
		site, err := cfg.Sites.Site(name)
		if err != nil {
			return err
		}
		run := &siteRun{name: name, site: site}
		job, err := newSiteJob(ctx, cfg, format, run, db, logger)
		if err != nil {
			return fmt.Errorf("site %s: %w", name, err)
		}
		runs = append(runs, run)
		jobs = append(jobs, job)
	}

	startTime := time.Now()
	bp := pipeline.NewBatchProcessor(nil,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)
	results, batchErr := bp.ProcessBatch(ctx, jobs)

	summaries := make([]report.SiteSummary, 0, len(results))
	var failed int
	for i, r := range results {
		run := runs[i]
		if err := run.writer.Close(); err != nil && r.Err == nil {
			r.Err = err
		}
		if db != nil {
			// The run is closed even when ctx was cancelled.
			err := db.FinishRun(context.WithoutCancel(ctx), run.runID, database.RunStats{
				Entries:     r.Stats.Entries,
				Skipped:     r.Stats.Skipped,
				FetchFailed: r.Stats.FetchFailed,
				Records:     run.store.Stored(),
			})
			if err != nil {
				logger.Error("failed to finish run", "site", run.name, "error", err)
			}
		}
		if r.Err != nil {
			failed++
		}
		summaries = append(summaries, report.SiteSummary{
			Site:        run.name,
			Entries:     r.Stats.Entries,
			Dispatched:  r.Stats.Dispatched,
			Skipped:     r.Stats.Skipped,
			FetchFailed: r.Stats.FetchFailed,
			Records:     r.Stats.Records,
			Kept:        r.Kept,
			Elapsed:     r.Elapsed,
			Err:         r.Err,
		})
	}

	if err := writeOutput(cfg.ReportFile, stdout, runs); err != nil {
		return err
	}
	report.WriteSummary(stderr, summaries)
	logger.Info("crawl complete", "elapsed", time.Since(startTime).Round(time.Millisecond))

	if batchErr != nil {
		return batchErr
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errSitesFailed, failed, len(runs))
	}
	return nil
}

// newSiteJob builds the fetcher, dispatcher, crawler and pipeline of one
// site. Records are written to run.out; with a database they are also
// stored under a new run.
func newSiteJob(
	ctx context.Context,
	cfg *config.Config,
	format report.Format,
	run *siteRun,
	db *database.RecordDB,
	logger *slog.Logger,
) (pipeline.SiteJob, error) {
	site := run.site
	siteLogger := logger.With("site", run.name)

	delay := cfg.CrawlDelay
	if site.Delay > 0 {
		delay = site.Delay
	}
	fetcher, err := fetch.NewHTTPFetcher(
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithHeaders(site.Headers),
		fetch.WithCookie(site.Cookie),
		fetch.WithDelay(delay),
		fetch.WithProxy(cfg.ProxyAddress),
		fetch.WithLogger(siteLogger),
	)
	if err != nil {
		return pipeline.SiteJob{}, err
	}

	d, err := dispatch.New(run.name, site.StartURL, site.Rules, dispatch.WithLogger(siteLogger))
	if err != nil {
		return pipeline.SiteJob{}, err
	}

	c := crawler.New(fetcher,
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithMaxDetailPages(cfg.MaxPages),
		crawler.WithLogger(siteLogger),
	)

	run.writer, err = report.New(format, &run.out, site.Rules.Columns(), report.WithTitle(run.name))
	if err != nil {
		return pipeline.SiteJob{}, err
	}

	if db != nil {
		run.runID, err = db.BeginRun(ctx, run.name, site.StartURL)
		if err != nil {
			return pipeline.SiteJob{}, fmt.Errorf("failed to begin run: %w", err)
		}
		run.store = pipeline.NewStoreStep(db, run.runID)
	}
	p := newSitePipeline(site, run.store, run.writer, cfg.KeepGoing, siteLogger)

	return pipeline.SiteJob{
		Job:      crawler.Job{Site: run.name, StartURL: site.StartURL, Dispatcher: d},
		Pipeline: p,
		Crawler:  c,
	}, nil
}

// newSitePipeline chains the steps every record of site goes through.
// store may be nil. A failing store or writer ends the site unless
// keepGoing is set.
func newSitePipeline(
	site config.SiteConfig,
	store *pipeline.StoreStep,
	w pipeline.RecordWriter,
	keepGoing bool,
	logger *slog.Logger,
) *pipeline.Pipeline {
	p := pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(keepGoing),
	)
	fields := site.Rules.Detail.Fields
	p.AddStep(pipeline.NewNormalizeStep(fields))
	if site.Rules.Follows() {
		p.AddStep(pipeline.NewRequireStep(fields, site.Rules.ContextKey()))
	} else {
		p.AddStep(pipeline.NewRequireStep(fields))
	}
	if store != nil {
		p.AddStep(store)
	}
	p.AddStep(pipeline.NewWriteStep(w))
	return p
}

// writeOutput copies each site's records to the report file, or to stdout
// when path is empty.
func writeOutput(path string, stdout io.Writer, runs []*siteRun) error {
	out := stdout
	if path != "" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	for _, run := range runs {
		if _, err := run.out.WriteTo(out); err != nil {
			return fmt.Errorf("failed to write records of %s: %w", run.name, err)
		}
	}
	return nil
}
