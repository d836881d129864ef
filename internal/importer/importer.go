// Package importer turns pasted import text into link records.
//
// Input is either a JSON document or a plain list of URLs, one per line. JSON
// is tried first; only text that is not valid JSON is read as a line list.
package importer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/joestump/link-library/internal/store"
)

// ErrEmptyImport is returned when the input produced no records.
var ErrEmptyImport = errors.New("No valid links found in the import data")

// Record is one link parsed from import text. Description and Tags are nil
// when the source did not supply a value.
type Record struct {
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Description *string  `json:"description"`
	Tags        []string `json:"tags"`
}

// RecordError reports a structured element that cannot become a Record.
type RecordError struct {
	Index   int
	Message string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d: %s", e.Index+1, e.Message)
}

// LineError reports a line that looked like a URL but could not be parsed.
type LineError struct {
	Line    int
	Message string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Parse decodes text into records.
//
// A JSON object with an "items" array and a bare JSON array are the two
// structured shapes. Any other valid JSON yields no records. Text that is not
// JSON is split into lines and every line starting with http:// or https://
// becomes a record titled by its hostname. ErrEmptyImport is returned when
// nothing usable was found, whichever path produced the result.
func Parse(text string) ([]Record, error) {
	var (
		records []Record
		err     error
	)
	if raw := []byte(strings.TrimSpace(text)); json.Valid(raw) {
		records, err = parseStructured(raw)
	} else {
		records, err = parseLines(text)
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmptyImport
	}
	return records, nil
}

func parseStructured(raw []byte) ([]Record, error) {
	elems, ok := structuredElements(raw)
	if !ok {
		return nil, nil
	}
	records := make([]Record, 0, len(elems))
	for i, elem := range elems {
		rec, err := decodeRecord(elem)
		if err != nil {
			return nil, &RecordError{Index: i, Message: err.Error()}
		}
		records = append(records, rec)
	}
	return records, nil
}

// structuredElements picks the record array out of a wrapped list
// ({"items": [...]}) or a bare list ([...]).
func structuredElements(raw []byte) ([]json.RawMessage, bool) {
	switch raw[0] {
	case '{':
		var wrapped struct {
			Items json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, false
		}
		return rawArray(wrapped.Items)
	case '[':
		return rawArray(raw)
	default:
		return nil, false
	}
}

func rawArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, false
	}
	return elems, true
}

func decodeRecord(elem json.RawMessage) (Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(elem, &fields); err != nil || fields == nil {
		return Record{}, errors.New("must be an object")
	}

	u, ok := stringField(fields, "url")
	if !ok || strings.TrimSpace(u) == "" {
		return Record{}, errors.New("url is required")
	}
	u = strings.TrimSpace(u)

	rec := Record{URL: u, Title: u}
	if title, ok := stringField(fields, "title"); ok && strings.TrimSpace(title) != "" {
		rec.Title = strings.TrimSpace(title)
	}
	if desc, ok := stringField(fields, "description"); ok && strings.TrimSpace(desc) != "" {
		d := strings.TrimSpace(desc)
		rec.Description = &d
	}
	rec.Tags = tagsField(fields["tags"])
	return rec, nil
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// tagsField accepts an array of strings or a comma-separated string.
func tagsField(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return store.NormalizeTags(list)
	}
	var joined string
	if err := json.Unmarshal(raw, &joined); err == nil {
		return store.SplitTags(joined)
	}
	return nil
}

func parseLines(text string) ([]Record, error) {
	var records []Record
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "http://") && !strings.HasPrefix(line, "https://") {
			continue
		}
		u, err := url.Parse(line)
		if err != nil || u.Hostname() == "" {
			return nil, &LineError{Line: i + 1, Message: "invalid URL"}
		}
		records = append(records, Record{
			Title: strings.TrimPrefix(strings.ToLower(u.Hostname()), "www."),
			URL:   line,
		})
	}
	return records, nil
}
