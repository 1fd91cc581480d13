package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Page is a fetched HTTP response.
//
// Design decision: We keep the raw body rather than a parsed document
// because:
//  1. The body has to be decoded from its declared charset first
//  2. The hash lets a caller tell whether a page changed between runs
type Page struct {
	// URL is the URL the page was served from. After redirects it differs
	// from the URL that was asked for.
	URL string `json:"url"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// ContentType is the value of the Content-Type header.
	ContentType string `json:"content_type"`

	// Body is the response body, truncated to the fetcher's size limit.
	Body []byte `json:"-"`

	// Hash is the SHA-256 of Body, hex encoded.
	Hash string `json:"hash"`
}

// ComputeHash sets Hash from Body.
func (p *Page) ComputeHash() {
	sum := sha256.Sum256(p.Body)
	p.Hash = hex.EncodeToString(sum[:])
}

// IsHTML reports whether the page declares an HTML content type.
// An empty Content-Type is treated as HTML since many table pages omit it.
func (p *Page) IsHTML() bool {
	if p.ContentType == "" {
		return true
	}
	ct := strings.ToLower(p.ContentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}
