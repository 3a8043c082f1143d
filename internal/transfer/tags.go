package transfer

import (
	"encoding/csv"
	"encoding/json/v2"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
	"github.com/tagwardenapp/tagwarden-server/internal/errors"
)

// tagCSVHeader is the exact column set for tag CSV round-trips.
var tagCSVHeader = []string{"tag", "useCount", "firstUsed", "lastUsed"}

// TagRecord is one exported tag row. JSON field names match the CSV columns.
type TagRecord struct {
	Tag       string    `json:"tag"`
	UseCount  int       `json:"useCount"`
	FirstUsed time.Time `json:"firstUsed,omitzero"`
	LastUsed  time.Time `json:"lastUsed,omitzero"`
}

func toRecords(tags []*domain.Tag) []TagRecord {
	records := make([]TagRecord, len(tags))
	for i, t := range tags {
		records[i] = TagRecord{
			Tag:       t.Name,
			UseCount:  t.UseCount,
			FirstUsed: t.FirstUsed,
			LastUsed:  t.LastUsed,
		}
	}
	return records
}

// ExportTags renders tags in the requested format.
func ExportTags(tags []*domain.Tag, format Format) ([]byte, error) {
	switch format {
	case FormatPlain:
		return exportPlain(tags), nil
	case FormatJSON:
		return json.Marshal(toRecords(tags))
	case FormatCSV:
		return exportCSV(tags)
	case FormatMarkdown:
		return exportMarkdown(tags), nil
	default:
		return nil, errors.Validationf("unknown format %q", format)
	}
}

func exportPlain(tags []*domain.Tag) []byte {
	var b strings.Builder
	for _, t := range tags {
		b.WriteString(t.Name)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func exportCSV(tags []*domain.Tag) ([]byte, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)

	if err := w.Write(tagCSVHeader); err != nil {
		return nil, err
	}
	for _, t := range tags {
		row := []string{
			t.Name,
			strconv.Itoa(t.UseCount),
			formatTime(t.FirstUsed),
			formatTime(t.LastUsed),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

func exportMarkdown(tags []*domain.Tag) []byte {
	var b strings.Builder

	b.WriteString("# Tags\n\n")
	for _, t := range tags {
		fmt.Fprintf(&b, "- %s\n", t.Name)
	}

	b.WriteString("\n## Usage\n\n")
	b.WriteString("| Tag | Uses | First Used | Last Used |\n")
	b.WriteString("| --- | ---- | ---------- | --------- |\n")
	for _, t := range tags {
		fmt.Fprintf(&b, "| %s | %d | %s | %s |\n",
			t.Name, t.UseCount, formatTime(t.FirstUsed), formatTime(t.LastUsed))
	}

	return []byte(b.String())
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// ImportTags parses a tag list in the given format. Structural problems are
// hard errors; result-level problems (duplicates, suspicious names) land in
// the validation result instead.
func ImportTags(data []byte, format Format) ([]TagRecord, error) {
	switch format {
	case FormatPlain:
		return importPlain(data), nil
	case FormatJSON:
		return importJSON(data)
	case FormatCSV:
		return importCSV(data)
	case FormatMarkdown:
		return importMarkdown(data), nil
	default:
		return nil, errors.Validationf("unknown format %q", format)
	}
}

func importPlain(data []byte) []TagRecord {
	var records []TagRecord
	for line := range strings.Lines(string(data)) {
		name := strings.TrimRight(line, "\n")
		if strings.TrimSpace(name) == "" {
			continue
		}
		records = append(records, TagRecord{Tag: name})
	}
	return records
}

func importJSON(data []byte) ([]TagRecord, error) {
	var records []TagRecord
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	// Also accept a bare array of name strings.
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, errors.Validation("JSON import must be an array of tag objects or names").WithCause(err)
	}
	records = make([]TagRecord, len(names))
	for i, n := range names {
		records[i] = TagRecord{Tag: n}
	}
	return records, nil
}

func importCSV(data []byte) ([]TagRecord, error) {
	r := csv.NewReader(strings.NewReader(string(data)))
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, errors.Validation("malformed CSV").WithCause(err)
	}
	if len(rows) == 0 {
		return nil, errors.Validation("CSV import is empty")
	}
	if !equalFold(rows[0], tagCSVHeader) {
		return nil, errors.Validationf("CSV header must be %q", strings.Join(tagCSVHeader, ","))
	}

	var records []TagRecord
	for i, row := range rows[1:] {
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if len(row) != len(tagCSVHeader) {
			return nil, errors.Validationf("CSV row %d has %d columns, want %d", i+2, len(row), len(tagCSVHeader))
		}

		rec := TagRecord{Tag: row[0]}
		if row[1] != "" {
			count, err := strconv.Atoi(row[1])
			if err != nil {
				return nil, errors.Validationf("CSV row %d: bad useCount %q", i+2, row[1])
			}
			rec.UseCount = count
		}
		if rec.FirstUsed, err = parseTime(row[2]); err != nil {
			return nil, errors.Validationf("CSV row %d: bad firstUsed %q", i+2, row[2])
		}
		if rec.LastUsed, err = parseTime(row[3]); err != nil {
			return nil, errors.Validationf("CSV row %d: bad lastUsed %q", i+2, row[3])
		}
		records = append(records, rec)
	}
	return records, nil
}

func importMarkdown(data []byte) []TagRecord {
	var records []TagRecord
	for line := range strings.Lines(string(data)) {
		trimmed := strings.TrimSpace(line)
		if name, ok := strings.CutPrefix(trimmed, "- "); ok {
			if name = strings.TrimSpace(name); name != "" {
				records = append(records, TagRecord{Tag: name})
			}
		}
	}
	return records
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

func equalFold(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(strings.TrimSpace(a[i]), b[i]) {
			return false
		}
	}
	return true
}
