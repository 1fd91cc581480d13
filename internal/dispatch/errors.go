package dispatch

import "errors"

var (
	// ErrNoIndexRules is returned by EnumerateLinks for sites whose table
	// lives on the start page and have no links to follow.
	ErrNoIndexRules = errors.New("site has no index rules")

	// ErrNoFields is returned when detail rules declare no fields.
	ErrNoFields = errors.New("detail rules declare no fields")

	// ErrDuplicateField is returned when two fields share a name.
	ErrDuplicateField = errors.New("duplicate field name")

	// ErrEmptyFieldName is returned when a field has no name.
	ErrEmptyFieldName = errors.New("field name is empty")
)
