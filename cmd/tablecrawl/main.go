// Package main provides the entry point for the tablecrawl CLI.
//
// tablecrawl scrapes tabular statistics from web pages. A site either
// lists entries that each link to a detail table, or holds the table
// itself. Every record of a detail table carries the name of the entry
// it was reached from.
//
// Usage:
//
//	tablecrawl crawl worldometers
//	tablecrawl crawl national_debt -f csv -o debt.csv
//	tablecrawl history worldometers
//
// See --help for all available options.
package main

func main() {
	Execute()
}
