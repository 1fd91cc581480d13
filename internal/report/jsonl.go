package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nao1215/tablecrawl/internal/model"
)

// JSONLWriter writes one JSON object per record per line.
type JSONLWriter struct {
	enc *json.Encoder
}

// NewJSONLWriter creates a JSONLWriter that outputs to w.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONLWriter{enc: enc}
}

// Write encodes rec on its own line.
func (w *JSONLWriter) Write(rec model.DetailRecord) error {
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	return nil
}

// Close does nothing; every record is written immediately.
func (w *JSONLWriter) Close() error {
	return nil
}
