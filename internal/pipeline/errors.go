package pipeline

import "errors"

// ErrNoCrawler is returned in a Result when neither the job nor the
// processor has a crawler.
var ErrNoCrawler = errors.New("no crawler for site job")
