// Package model defines the data types that flow through a crawl.
//
// A crawl starts from an index page. Each link found there becomes an
// IndexEntry, each IndexEntry becomes a PendingFetch, and each row of the
// fetched detail page becomes a DetailRecord.
//
// The Context carried by a PendingFetch is bound when the fetch is created
// and travels with it until its response is handled. Nothing in this package
// keeps "current entry" state; every value stands on its own.
//
// Design decision: We keep these types in their own package so that the
// dispatcher, the crawler, the pipeline and the database can share them
// without importing each other.
package model
