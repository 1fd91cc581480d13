package dispatch

import (
	"fmt"

	"github.com/nao1215/tablecrawl/internal/extract"
)

// DefaultContextKey is the record field that receives an entry's name when
// DetailRules.ContextKey is empty.
const DefaultContextKey = "name"

// FieldType tells the item pipeline how to normalize a field value.
type FieldType string

const (
	// FieldText is free text; only whitespace and Unicode form are normalized.
	FieldText FieldType = "text"

	// FieldNumber is a number that may be written with grouping commas or a
	// percent sign, e.g. "1,439,323,776" or "237.54%".
	FieldNumber FieldType = "number"
)

// IndexRules locate links on an index page.
type IndexRules struct {
	// Rows selects one node per entry, e.g. "//td/a".
	Rows extract.Selector `yaml:"rows"`

	// Name selects the entry's display name relative to a row.
	// When empty the row's own text is used.
	Name extract.Selector `yaml:"name,omitempty"`

	// Link selects the entry's href relative to a row.
	// When empty the row's own href attribute is used.
	Link extract.Selector `yaml:"link,omitempty"`
}

// Field is one column read from every detail row.
type Field struct {
	// Name is the record key.
	Name string `yaml:"name"`

	// Selector is evaluated relative to the row.
	Selector extract.Selector `yaml:",inline"`

	// Type controls normalization. Defaults to FieldText.
	Type FieldType `yaml:"type,omitempty"`

	// Required drops records where this field is empty.
	Required bool `yaml:"required,omitempty"`
}

// DetailRules locate rows and fields on a detail page.
type DetailRules struct {
	// Rows selects one node per data row, e.g. "//tbody/tr".
	Rows extract.Selector `yaml:"rows"`

	// Fields are read from every row.
	Fields []Field `yaml:"fields"`

	// ContextKey is the record field that carries the index entry's name.
	ContextKey string `yaml:"contextKey,omitempty"`
}

// Rules describe how a site is read. Index is nil when the start page
// already holds the table.
type Rules struct {
	Index  *IndexRules `yaml:"index,omitempty"`
	Detail DetailRules `yaml:"detail"`
}

// Follows reports whether the site follows links from an index page.
func (r Rules) Follows() bool {
	return r.Index != nil
}

// ContextKey returns the configured context key or DefaultContextKey.
func (r Rules) ContextKey() string {
	if r.Detail.ContextKey != "" {
		return r.Detail.ContextKey
	}
	return DefaultContextKey
}

// Columns returns the record keys in display order: the context key first
// for follow sites, then the fields as declared.
func (r Rules) Columns() []string {
	cols := make([]string, 0, len(r.Detail.Fields)+1)
	if r.Follows() {
		cols = append(cols, r.ContextKey())
	}
	for _, f := range r.Detail.Fields {
		if f.Name == r.ContextKey() && r.Follows() {
			continue
		}
		cols = append(cols, f.Name)
	}
	return cols
}

// Validate compiles every selector and checks field names.
func (r Rules) Validate() error {
	if r.Index != nil {
		if err := r.Index.Rows.Validate(); err != nil {
			return fmt.Errorf("index rows: %w", err)
		}
		if !r.Index.Name.IsZero() {
			if err := r.Index.Name.Validate(); err != nil {
				return fmt.Errorf("index name: %w", err)
			}
		}
		if !r.Index.Link.IsZero() {
			if err := r.Index.Link.Validate(); err != nil {
				return fmt.Errorf("index link: %w", err)
			}
		}
	}

	if err := r.Detail.Rows.Validate(); err != nil {
		return fmt.Errorf("detail rows: %w", err)
	}
	if len(r.Detail.Fields) == 0 {
		return ErrNoFields
	}

	seen := make(map[string]bool, len(r.Detail.Fields))
	for _, f := range r.Detail.Fields {
		if f.Name == "" {
			return ErrEmptyFieldName
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateField, f.Name)
		}
		seen[f.Name] = true

		if err := f.Selector.Validate(); err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
		switch f.Type {
		case "", FieldText, FieldNumber:
		default:
			return fmt.Errorf("field %s: unknown type %q", f.Name, f.Type)
		}
	}
	return nil
}
