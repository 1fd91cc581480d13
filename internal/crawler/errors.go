package crawler

import "errors"

var (
	// ErrNoDispatcher is returned when a job has no dispatcher.
	ErrNoDispatcher = errors.New("job has no dispatcher")

	// ErrStartPage is returned when the start page cannot be fetched or parsed.
	// Nothing can be crawled without it, so the run stops.
	ErrStartPage = errors.New("start page unavailable")

	// ErrNotHTML is returned when a fetched page is not an HTML document.
	ErrNotHTML = errors.New("page is not HTML")
)
