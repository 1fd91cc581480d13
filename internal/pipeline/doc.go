// Package pipeline post-processes crawled records.
//
// A Pipeline runs each record through an ordered list of steps. A step may
// rewrite the record, drop it, or fail. The usual chain normalizes field
// values, drops records that miss required fields, stores the record, and
// writes it to a report.
//
// BatchProcessor crawls several sites at once. Each site gets its own
// pipeline, and errgroup bounds how many sites run concurrently.
package pipeline
