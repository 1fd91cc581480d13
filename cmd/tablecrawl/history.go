package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/tablecrawl/internal/config"
	"github.com/nao1215/tablecrawl/internal/database"
	"github.com/nao1215/tablecrawl/internal/report"
)

// errNoDatabase is returned when history is asked for before any crawl
// created the database.
var errNoDatabase = errors.New("no crawl history")

// errNoRuns is returned by --latest when the site was never crawled with
// the database enabled.
var errNoRuns = errors.New("no stored runs")

// errLatestNeedsSite is returned when --latest is given without a site.
var errLatestNeedsSite = errors.New("--latest needs a site name")

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [site]",
		Short: "Show stored crawl runs",
		Long: `History lists the crawl runs stored in the database, newest first.
Give a site name to list only its runs, --run to print the records of
one run, or a site name with --latest to print its newest run.

Examples:
  # All runs
  tablecrawl history

  # Runs of one site
  tablecrawl history worldometers

  # Records of run 12 as CSV
  tablecrawl history --run 12 -f csv

  # Newest run of one site as a table
  tablecrawl history worldometers --latest -f table`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().Int64("run", 0, "Print the records of this run")
	cmd.Flags().Bool("latest", false, "Print the records of the site's newest run")
	cmd.Flags().StringP("format", "f", config.DefaultFormat, "Output format for --run: jsonl, csv, markdown, table")
	cmd.Flags().StringP("config", "c", "", "Path to site configuration file (default: .tablecrawl)")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory of the database")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	runID, err := flags.GetInt64("run")
	if err != nil {
		return err
	}
	latest, err := flags.GetBool("latest")
	if err != nil {
		return err
	}
	formatName, err := flags.GetString("format")
	if err != nil {
		return err
	}
	configPath, err := flags.GetString("config")
	if err != nil {
		return err
	}
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}

	setupLogger(cmd)

	var site string
	if len(args) > 0 {
		site = args[0]
	}
	if latest && site == "" {
		return errLatestNeedsSite
	}

	if _, err := os.Stat(filepath.Join(dbDir, database.FileName)); err != nil {
		return fmt.Errorf("%w in %s", errNoDatabase, dbDir)
	}
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(dbDir, opts)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if runID == 0 && !latest {
		runs, err := db.ListRuns(ctx, site)
		if err != nil {
			return err
		}
		report.WriteRuns(out, runs)
		return nil
	}

	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}
	var run *database.Run
	if latest {
		run, err = db.LatestRun(ctx, site)
		if err == nil && run == nil {
			err = fmt.Errorf("%w for %s", errNoRuns, site)
		}
	} else {
		run, err = db.GetRun(ctx, runID)
	}
	if err != nil {
		return err
	}
	records, err := db.GetRunRecords(ctx, run.ID)
	if err != nil {
		return err
	}

	// Column order comes from the site definition when it is still known;
	// otherwise the writer falls back to the record keys.
	var columns []string
	if sites, _, err := config.LoadSites(configPath); err == nil {
		if def, err := sites.Site(run.Site); err == nil {
			columns = def.Rules.Columns()
		}
	}

	w, err := report.New(format, out, columns, report.WithTitle(fmt.Sprintf("%s (run %d)", run.Site, run.ID)))
	if err != nil {
		return err
	}
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return w.Close()
}
