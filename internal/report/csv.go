package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/nao1215/tablecrawl/internal/model"
)

// CSVWriter writes records as CSV with a header row.
type CSVWriter struct {
	w       *csv.Writer
	columns []string
	started bool
}

// NewCSVWriter creates a CSVWriter. The header is written with the first
// record, or on Close if there are none.
func NewCSVWriter(w io.Writer, columns []string) *CSVWriter {
	return &CSVWriter{
		w:       csv.NewWriter(w),
		columns: columns,
	}
}

func (w *CSVWriter) header() error {
	if w.started {
		return nil
	}
	w.started = true
	if err := w.w.Write(w.columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	return nil
}

// Write appends rec as a row.
func (w *CSVWriter) Write(rec model.DetailRecord) error {
	if !w.started && len(w.columns) == 0 {
		w.columns = rec.Keys()
	}
	if err := w.header(); err != nil {
		return err
	}
	if err := w.w.Write(row(w.columns, rec)); err != nil {
		return fmt.Errorf("failed to write csv row: %w", err)
	}
	return nil
}

// Close flushes buffered rows.
func (w *CSVWriter) Close() error {
	if len(w.columns) > 0 {
		if err := w.header(); err != nil {
			return err
		}
	}
	w.w.Flush()
	if err := w.w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}
