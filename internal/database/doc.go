// Package database stores crawl runs and their records in SQLite.
//
// Each crawl of a site is a run. A run row records when the crawl started
// and finished and how many entries, skips, failures and records it saw.
// Records belong to a run and are unique within it by fingerprint, so a
// row that appears twice on a site is stored once.
//
// The driver is modernc.org/sqlite, a CGO-free SQLite port. The database
// is a single file, tablecrawl.db, in the configured directory.
//
// Design decision: We let a UNIQUE constraint drop repeated records rather
// than checking for them first. The insert stays one statement, and the
// check cannot race with another writer of the same run.
package database
