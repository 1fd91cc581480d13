// Package report writes crawled records in several output formats.
//
// Streaming formats (JSON lines, CSV) write each record as it arrives.
// Tabular formats (Markdown, terminal table) collect the rows and render
// them on Close. All writers share the Writer interface, so callers pick
// a format by name with New.
//
// The package also renders the end-of-crawl summary shown on stderr.
package report
