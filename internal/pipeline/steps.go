package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"golang.org/x/text/unicode/norm"

	"github.com/nao1215/tablecrawl/internal/dispatch"
	"github.com/nao1215/tablecrawl/internal/model"
)

// NormalizeStep cleans field values. Every value is put in Unicode NFC
// form with runs of whitespace collapsed to one space. Number fields also
// lose grouping commas and a trailing percent sign.
type NormalizeStep struct {
	types map[string]dispatch.FieldType
}

// NewNormalizeStep creates a NormalizeStep for the given field definitions.
// Fields not listed are treated as text.
func NewNormalizeStep(fields []dispatch.Field) *NormalizeStep {
	types := make(map[string]dispatch.FieldType, len(fields))
	for _, f := range fields {
		types[f.Name] = f.Type
	}
	return &NormalizeStep{types: types}
}

// Name returns the step name.
func (s *NormalizeStep) Name() string {
	return "normalize"
}

// Process normalizes every field of rec.
func (s *NormalizeStep) Process(_ context.Context, rec model.DetailRecord) (model.DetailRecord, bool, error) {
	fields := make(map[string]string, len(rec.Fields))
	for k, v := range rec.Fields {
		v = NormalizeText(v)
		if s.types[k] == dispatch.FieldNumber {
			v = NormalizeNumber(v)
		}
		fields[k] = v
	}
	rec.Fields = fields
	return rec, true, nil
}

// NormalizeText returns s in NFC form with whitespace collapsed and trimmed.
// Non-breaking spaces count as whitespace.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// NormalizeNumber strips grouping separators and a percent sign from a
// numeric string, e.g. "1,439,323,776" becomes "1439323776" and
// "237.54 %" becomes "237.54". Values that are not numbers afterwards are
// returned unchanged, so "N.A." survives for the reader to see.
func NormalizeNumber(s string) string {
	v := strings.TrimSpace(s)
	v = strings.TrimSuffix(v, "%")
	v = strings.NewReplacer(",", "", " ", "").Replace(v)
	if !isNumber(v) {
		return s
	}
	return v
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' || s[0] == '+' {
		s = s[1:]
	}
	digits, dots := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

// RequireStep drops records that lack a value for any required field.
type RequireStep struct {
	required []string
}

// NewRequireStep creates a RequireStep for the fields marked Required plus
// any extra names, such as the site's context key.
func NewRequireStep(fields []dispatch.Field, extra ...string) *RequireStep {
	required := make([]string, 0, len(fields)+len(extra))
	for _, f := range fields {
		if f.Required {
			required = append(required, f.Name)
		}
	}
	required = append(required, extra...)
	return &RequireStep{required: required}
}

// Name returns the step name.
func (s *RequireStep) Name() string {
	return "require"
}

// Process keeps rec only when every required field is non-empty.
func (s *RequireStep) Process(_ context.Context, rec model.DetailRecord) (model.DetailRecord, bool, error) {
	for _, name := range s.required {
		if rec.Get(name) == "" {
			return rec, false, nil
		}
	}
	return rec, true, nil
}

// RecordStore persists records under a crawl run.
type RecordStore interface {
	// InsertRecord stores rec and reports whether it was new to the run.
	InsertRecord(ctx context.Context, runID int64, rec model.DetailRecord) (bool, error)
}

// StoreStep saves records to a RecordStore. Every record is passed on,
// so output does not depend on whether storage is enabled.
//
// Design decision: duplicates are resolved by the store, not by the
// pipeline. A table that repeats a row still yields one record per row in
// the report, while the run keeps each distinct record once.
type StoreStep struct {
	store RecordStore
	runID int64

	stored     atomic.Int64
	duplicates atomic.Int64
}

// NewStoreStep creates a StoreStep writing into run runID.
func NewStoreStep(store RecordStore, runID int64) *StoreStep {
	return &StoreStep{store: store, runID: runID}
}

// Name returns the step name.
func (s *StoreStep) Name() string {
	return "store"
}

// Process inserts rec.
func (s *StoreStep) Process(ctx context.Context, rec model.DetailRecord) (model.DetailRecord, bool, error) {
	inserted, err := s.store.InsertRecord(ctx, s.runID, rec)
	if err != nil {
		return rec, false, fmt.Errorf("failed to store record: %w", err)
	}
	if inserted {
		s.stored.Add(1)
	} else {
		s.duplicates.Add(1)
	}
	return rec, true, nil
}

// Stored returns the number of records newly written to the run.
func (s *StoreStep) Stored() int {
	return int(s.stored.Load())
}

// Duplicates returns the number of records the run already held.
func (s *StoreStep) Duplicates() int {
	return int(s.duplicates.Load())
}

// RecordWriter receives finished records.
type RecordWriter interface {
	Write(rec model.DetailRecord) error
}

// WriteStep hands records to a RecordWriter, usually a report writer.
type WriteStep struct {
	w RecordWriter
}

// NewWriteStep creates a WriteStep.
func NewWriteStep(w RecordWriter) *WriteStep {
	return &WriteStep{w: w}
}

// Name returns the step name.
func (s *WriteStep) Name() string {
	return "write"
}

// Process writes rec.
func (s *WriteStep) Process(_ context.Context, rec model.DetailRecord) (model.DetailRecord, bool, error) {
	if err := s.w.Write(rec); err != nil {
		return rec, false, fmt.Errorf("failed to write record: %w", err)
	}
	return rec, true, nil
}
