package report

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/nao1215/tablecrawl/internal/model"
)

// TableWriter renders records as a terminal table on Close.
type TableWriter struct {
	output io.Writer
	title  string
	buf    rowBuffer
}

// NewTableWriter creates a TableWriter. An empty title omits the title row.
func NewTableWriter(output io.Writer, columns []string, title string) *TableWriter {
	return &TableWriter{
		output: output,
		title:  title,
		buf:    rowBuffer{columns: columns},
	}
}

// Write buffers rec.
func (w *TableWriter) Write(rec model.DetailRecord) error {
	w.buf.add(rec)
	return nil
}

// Close renders the table.
func (w *TableWriter) Close() error {
	t := newTable(w.output)
	if w.title != "" {
		t.SetTitle(w.title)
	}
	t.AppendHeader(toRow(w.buf.columns))
	for _, r := range w.buf.rows {
		t.AppendRow(toRow(r))
	}
	t.AppendFooter(table.Row{"Total", len(w.buf.rows)})
	t.Render()
	return nil
}

func newTable(output io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(output)
	return t
}

func toRow(values []string) table.Row {
	r := make(table.Row, len(values))
	for i, v := range values {
		r[i] = v
	}
	return r
}
