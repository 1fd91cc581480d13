package report

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/nao1215/tablecrawl/internal/model"
)

// Format names an output format.
type Format string

// Supported formats.
const (
	FormatJSONL    Format = "jsonl"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatTable    Format = "table"
)

// ErrUnknownFormat is returned for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown report format")

// Formats returns every supported format.
func Formats() []Format {
	return []Format{FormatJSONL, FormatCSV, FormatMarkdown, FormatTable}
}

// ParseFormat converts a name such as "csv" or "md" into a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "jsonl", "json", "ndjson":
		return FormatJSONL, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "table", "text":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("%w: %q (want one of %v)", ErrUnknownFormat, name, Formats())
	}
}

// Writer receives records and emits them in some format.
// Close must be called to flush buffered output. Writers are not safe for
// concurrent use.
//
// Design decision: We stream JSON Lines and CSV as records arrive, while
// Markdown and table output are rendered on Close, since their column
// widths depend on every row.
type Writer interface {
	Write(rec model.DetailRecord) error
	Close() error
}

// Option configures a Writer.
type Option func(*options)

type options struct {
	title string
}

// WithTitle sets a heading for formats that have one (Markdown, table).
func WithTitle(title string) Option {
	return func(o *options) {
		o.title = title
	}
}

// New returns a Writer for format that writes to w. columns fixes the
// column order for CSV, Markdown and table output; when empty, the sorted
// field names of the first record are used.
func New(format Format, w io.Writer, columns []string, opts ...Option) (Writer, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	cols := slices.Clone(columns)

	switch format {
	case FormatJSONL:
		return NewJSONLWriter(w), nil
	case FormatCSV:
		return NewCSVWriter(w, cols), nil
	case FormatMarkdown:
		return NewMarkdownWriter(w, cols, o.title), nil
	case FormatTable:
		return NewTableWriter(w, cols, o.title), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// rowBuffer collects records as rows for the formats rendered on Close.
type rowBuffer struct {
	columns []string
	rows    [][]string
}

func (b *rowBuffer) add(rec model.DetailRecord) {
	if len(b.columns) == 0 {
		b.columns = rec.Keys()
	}
	b.rows = append(b.rows, row(b.columns, rec))
}

// row returns rec's values in column order. Missing fields are empty.
func row(columns []string, rec model.DetailRecord) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = rec.Get(c)
	}
	return out
}
