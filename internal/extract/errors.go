package extract

import "errors"

var (
	// ErrEmptySelector is returned when a selector has neither XPath nor CSS set.
	ErrEmptySelector = errors.New("selector is empty: set xpath or css")

	// ErrAmbiguousSelector is returned when a selector sets both XPath and CSS.
	ErrAmbiguousSelector = errors.New("selector is ambiguous: set only one of xpath or css")

	// ErrInvalidSelector is returned when an expression does not compile.
	ErrInvalidSelector = errors.New("invalid selector")

	// ErrInvalidLink is returned when a link cannot be turned into an absolute http(s) URL.
	ErrInvalidLink = errors.New("invalid link")
)
