package report

import (
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/nao1215/tablecrawl/internal/database"
)

// SiteInfo describes one configured site.
type SiteInfo struct {
	Name        string
	Follows     bool
	StartURL    string
	Description string
}

// WriteSites renders the known sites.
func WriteSites(w io.Writer, sites []SiteInfo) {
	t := newTable(w)
	t.SetTitle("Sites")
	t.AppendHeader(table.Row{"Name", "Shape", "Start URL", "Description"})
	for _, s := range sites {
		shape := "flat"
		if s.Follows {
			shape = "follow"
		}
		t.AppendRow(table.Row{s.Name, shape, s.StartURL, s.Description})
	}
	t.Render()
}

// WriteRuns renders stored crawl runs, newest first as given.
func WriteRuns(w io.Writer, runs []database.Run) {
	t := newTable(w)
	t.SetTitle("Crawl runs")
	t.AppendHeader(table.Row{"ID", "Site", "Started", "Duration", "Entries", "Skipped", "Failed", "Records"})
	for _, r := range runs {
		duration := "unfinished"
		if r.Finished() {
			duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		t.AppendRow(table.Row{
			strconv.FormatInt(r.ID, 10),
			r.Site,
			r.StartedAt.Local().Format(time.DateTime),
			duration,
			r.Entries,
			r.Skipped,
			r.FetchFailed,
			r.Records,
		})
	}
	t.AppendFooter(table.Row{"Total", len(runs)})
	t.Render()
}
