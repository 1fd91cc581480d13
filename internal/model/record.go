package model

import (
	"encoding/hex"
	"maps"
	"slices"
	"strings"

	"golang.org/x/crypto/sha3"
)

// IndexEntry is a link found on an index page together with its display name.
type IndexEntry struct {
	// Name is the human readable label of the link, e.g. a country name.
	Name string `json:"name"`

	// Link is the href as it appears on the page. It may be relative.
	Link string `json:"link"`
}

// Context is the data needed to interpret a detail page, fixed at the
// moment its fetch is created.
type Context map[string]string

// PendingFetch describes a fetch that has been decided but not yet performed.
// It is a value: the crawler hands the same value back to the dispatcher when
// the response arrives.
type PendingFetch struct {
	// URL is the absolute URL to fetch.
	URL string `json:"url"`

	// Context is carried opaquely by the fetch layer.
	Context Context `json:"context"`
}

// DetailRecord is one row of a detail page merged with its fetch context.
// Records are not modified after they are emitted; pipeline steps return
// new values instead.
//
// Design decision: We flatten context and row values into one map rather
// than keeping them apart. Report writers and the database then see a
// record as plain columns, and the context key is just another column.
type DetailRecord struct {
	// Site is the name of the site definition that produced the record.
	Site string `json:"site"`

	// URL is the page the row was read from.
	URL string `json:"url"`

	// Fields holds context values and row values keyed by field name.
	Fields map[string]string `json:"fields"`
}

// NewDetailRecord merges row fields with ctx. Context values win over row
// values with the same key, since the context identifies the entry the row
// belongs to.
func NewDetailRecord(site, pageURL string, ctx Context, row map[string]string) DetailRecord {
	fields := make(map[string]string, len(ctx)+len(row))
	maps.Copy(fields, row)
	maps.Copy(fields, ctx)
	return DetailRecord{
		Site:   site,
		URL:    pageURL,
		Fields: fields,
	}
}

// Get returns the value of a field, or "" when absent.
func (r DetailRecord) Get(key string) string {
	return r.Fields[key]
}

// Keys returns the field names in sorted order.
func (r DetailRecord) Keys() []string {
	return slices.Sorted(maps.Keys(r.Fields))
}

// Fingerprint identifies a record by its site and field values.
// Two records with the same site and fields share a fingerprint regardless
// of map iteration order or source URL.
func (r DetailRecord) Fingerprint() string {
	h := sha3.New256()
	h.Write([]byte(r.Site))
	for _, k := range r.Keys() {
		h.Write([]byte{0})
		h.Write([]byte(k))
		h.Write([]byte{'='})
		h.Write([]byte(r.Fields[k]))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// String renders the record as "key=value" pairs for logs.
func (r DetailRecord) String() string {
	var b strings.Builder
	b.WriteString(r.Site)
	for _, k := range r.Keys() {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(r.Fields[k])
	}
	return b.String()
}
