// Package crawler runs one site definition end to end.
//
// A run fetches the start page, asks the dispatcher for index entries,
// turns each entry into a PendingFetch, and fetches the detail pages
// concurrently. Every goroutine owns the PendingFetch it was started with
// and hands that same value back to the dispatcher, so a record is always
// attributed to the entry that produced its request, whatever order the
// responses arrive in.
//
// Sites without an index read their table straight from the start page.
//
// # Usage
//
//	c := crawler.New(fetcher, crawler.WithConcurrency(8))
//	for rec, err := range c.Records(ctx, job) {
//		if err != nil {
//			return err
//		}
//		fmt.Println(rec)
//	}
package crawler
