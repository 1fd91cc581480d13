// Package dispatch turns index pages into fetches and detail pages into records.
//
// A Dispatcher has three operations:
//
//   - EnumerateLinks reads (name, link) pairs from a parsed index page.
//   - Dispatch resolves one entry's link and binds the entry's name into the
//     returned PendingFetch. It performs no I/O.
//   - OnResponse reads the rows of a parsed detail page and merges each row
//     with the context of the fetch that produced the page.
//
// The entry name reaches OnResponse only through the PendingFetch value.
// The Dispatcher has no "current entry" field, so fetches may complete in
// any order and on any goroutine without records being attributed to the
// wrong entry. All fields are set by New and never written again, which
// makes a Dispatcher safe for concurrent use without locking.
//
// Fetching and HTML parsing belong to the caller; see packages fetch,
// extract and crawler.
package dispatch
