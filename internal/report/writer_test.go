package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/tablecrawl/internal/model"
)

func testRecords() []model.DetailRecord {
	return []model.DetailRecord{
		{
			Site:   "worldometers",
			URL:    "https://example.com/china",
			Fields: map[string]string{"country_name": "China", "year": "2019", "population": "1433783686"},
		},
		{
			Site:   "worldometers",
			URL:    "https://example.com/malaysia",
			Fields: map[string]string{"country_name": "Malaysia", "year": "2019", "population": "31949777"},
		},
	}
}

var testColumns = []string{"country_name", "year", "population"}

func writeAll(t *testing.T, w Writer, records []model.DetailRecord) {
	t.Helper()
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			t.Fatalf("unexpected write error: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
}

// TestParseFormat tests format name parsing.
func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{input: "jsonl", want: FormatJSONL},
		{input: "JSON", want: FormatJSONL},
		{input: "csv", want: FormatCSV},
		{input: "md", want: FormatMarkdown},
		{input: " markdown ", want: FormatMarkdown},
		{input: "table", want: FormatTable},
		{input: "xml", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownFormat) {
					t.Errorf("expected ErrUnknownFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestNew tests writer construction.
func TestNew(t *testing.T) {
	t.Parallel()

	for _, f := range Formats() {
		t.Run(string(f), func(t *testing.T) {
			t.Parallel()
			w, err := New(f, &bytes.Buffer{}, testColumns)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if w == nil {
				t.Fatal("expected writer")
			}
		})
	}

	t.Run("unknown format", func(t *testing.T) {
		t.Parallel()
		if _, err := New("xml", &bytes.Buffer{}, nil); !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("expected ErrUnknownFormat, got %v", err)
		}
	})
}

// TestJSONLWriter tests JSON lines output.
func TestJSONLWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	writeAll(t, NewJSONLWriter(&buf), testRecords())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}

	var got []model.DetailRecord
	for _, line := range lines {
		var rec model.DetailRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		got = append(got, rec)
	}
	if diff := cmp.Diff(testRecords(), got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

// TestCSVWriter tests CSV output.
func TestCSVWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and rows in column order", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		writeAll(t, NewCSVWriter(&buf, testColumns), testRecords())

		got, err := csv.NewReader(&buf).ReadAll()
		if err != nil {
			t.Fatalf("invalid csv: %v", err)
		}
		want := [][]string{
			{"country_name", "year", "population"},
			{"China", "2019", "1433783686"},
			{"Malaysia", "2019", "31949777"},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("csv mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("header only when no records", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		writeAll(t, NewCSVWriter(&buf, testColumns), nil)
		if buf.String() != "country_name,year,population\n" {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("derives columns from first record", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		writeAll(t, NewCSVWriter(&buf, nil), testRecords()[:1])
		if !strings.HasPrefix(buf.String(), "country_name,population,year\n") {
			t.Errorf("expected sorted header, got %q", buf.String())
		}
	})

	t.Run("quotes values with commas", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		rec := model.DetailRecord{Fields: map[string]string{"country_name": "Korea, South"}}
		writeAll(t, NewCSVWriter(&buf, []string{"country_name"}), []model.DetailRecord{rec})
		if !strings.Contains(buf.String(), `"Korea, South"`) {
			t.Errorf("expected quoted value, got %q", buf.String())
		}
	})
}

// TestMarkdownWriter tests Markdown output.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("renders table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w, err := New(FormatMarkdown, &buf, testColumns, WithTitle("worldometers"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		writeAll(t, w, testRecords())

		out := buf.String()
		for _, want := range []string{"## worldometers", "country_name", "Malaysia", "1433783686", "2 records"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("nothing buffered before close", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf, testColumns, "")
		if err := w.Write(testRecords()[0]); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if buf.Len() != 0 {
			t.Errorf("expected no output before Close, got %q", buf.String())
		}
	})

	t.Run("no columns and no records", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		writeAll(t, NewMarkdownWriter(&buf, nil, ""), nil)
		if !strings.Contains(buf.String(), "No records.") {
			t.Errorf("expected placeholder, got %q", buf.String())
		}
	})
}

// TestTableWriter tests terminal table output.
func TestTableWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	writeAll(t, NewTableWriter(&buf, testColumns, "worldometers"), testRecords())

	out := buf.String()
	for _, want := range []string{"worldometers", "COUNTRY_NAME", "China", "31949777", "TOTAL"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

// TestWriteSummary tests the crawl summary table.
func TestWriteSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	WriteSummary(&buf, []SiteSummary{
		{Site: "worldometers", Entries: 235, Dispatched: 235, FetchFailed: 2, Records: 4000, Kept: 3990, Elapsed: 3 * time.Second},
		{Site: "national_debt", Err: errors.New("start page unavailable")},
	})

	out := buf.String()
	for _, want := range []string{"Crawl summary", "worldometers", "233", "3990", "error: start page unavailable"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}
