package report

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// SiteSummary is the outcome of crawling one site.
type SiteSummary struct {
	Site        string
	Entries     int
	Dispatched  int
	Skipped     int
	FetchFailed int
	Records     int
	Kept        int
	Elapsed     time.Duration
	Err         error
}

// WriteSummary renders one line per site with its counters and status.
func WriteSummary(w io.Writer, sites []SiteSummary) {
	t := newTable(w)
	t.SetTitle("Crawl summary")
	t.AppendHeader(table.Row{"Site", "Entries", "Fetched", "Skipped", "Failed", "Records", "Kept", "Elapsed", "Status"})

	var kept int
	for _, s := range sites {
		status := "ok"
		if s.Err != nil {
			status = "error: " + s.Err.Error()
		}
		t.AppendRow(table.Row{
			s.Site,
			s.Entries,
			s.Dispatched - s.FetchFailed,
			s.Skipped,
			s.FetchFailed,
			s.Records,
			s.Kept,
			s.Elapsed.Round(time.Millisecond),
			status,
		})
		kept += s.Kept
	}
	t.AppendFooter(table.Row{"Total", "", "", "", "", "", kept, "", ""})
	t.Render()
}
