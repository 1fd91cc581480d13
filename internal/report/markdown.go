package report

import (
	"fmt"
	"io"

	"github.com/nao1215/markdown"

	"github.com/nao1215/tablecrawl/internal/model"
)

// MarkdownWriter renders records as a Markdown table on Close.
type MarkdownWriter struct {
	output io.Writer
	title  string
	buf    rowBuffer
}

// NewMarkdownWriter creates a MarkdownWriter. An empty title omits the heading.
func NewMarkdownWriter(output io.Writer, columns []string, title string) *MarkdownWriter {
	return &MarkdownWriter{
		output: output,
		title:  title,
		buf:    rowBuffer{columns: columns},
	}
}

// Write buffers rec.
func (w *MarkdownWriter) Write(rec model.DetailRecord) error {
	w.buf.add(rec)
	return nil
}

// Close renders the table.
func (w *MarkdownWriter) Close() error {
	md := markdown.NewMarkdown(w.output)
	if w.title != "" {
		md.H2(w.title)
		md.PlainText("")
	}
	if len(w.buf.columns) == 0 {
		md.PlainText("No records.")
		return md.Build()
	}

	md.Table(markdown.TableSet{
		Header: w.buf.columns,
		Rows:   w.buf.rows,
	})
	md.PlainText("")
	md.PlainText(fmt.Sprintf("%d records", len(w.buf.rows)))
	return md.Build()
}
