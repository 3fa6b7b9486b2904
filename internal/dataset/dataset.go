// Package dataset loads and describes the labeled support-message dataset
// consumed by the chat core. The dataset is static for the lifetime of a
// session: it is loaded once, never mutated, and its maximum timestamp becomes
// the session's fixed "now" for resolving relative time expressions.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"
)

// Message is one support message as produced by the labeling pipeline.
type Message struct {
	Timestamp time.Time
	UserID    string
	Source    string
	Category  string // empty = unlabeled cluster
	Message   string
}

// Dataset is an ordered, immutable collection of messages plus the metadata
// the chat core needs: the reference instant and the closed category/source
// vocabularies handed to the oracle.
type Dataset struct {
	messages   []Message
	reference  time.Time
	categories []string
	sources    []string
}

// timestampLayouts are tried in order when parsing the timestamp column.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a timestamp cell from the input data.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// New builds a Dataset from an ordered message slice, computing the reference
// instant and the distinct category/source vocabularies in first-seen order.
func New(messages []Message) *Dataset {
	d := &Dataset{messages: messages}

	seenCat := make(map[string]bool)
	seenSrc := make(map[string]bool)
	for _, m := range messages {
		if m.Timestamp.After(d.reference) {
			d.reference = m.Timestamp
		}
		if m.Category != "" && !seenCat[m.Category] {
			seenCat[m.Category] = true
			d.categories = append(d.categories, m.Category)
		}
		if m.Source != "" && !seenSrc[m.Source] {
			seenSrc[m.Source] = true
			d.sources = append(d.sources, m.Source)
		}
	}
	return d
}

// LoadCSV reads a labeled message CSV. The header row must contain at least
// timestamp, id_user, source, category and message columns; extra columns are
// ignored. An unparseable timestamp is a load error; the dataset either loads
// completely or not at all.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	d, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset %s: %w", path, err)
	}
	return d, nil
}

// ReadCSV parses message rows from r. Exposed separately so tests can load
// datasets from strings without touching the filesystem.
func ReadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"timestamp", "id_user", "source", "category", "message"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	var messages []Message
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		line++

		field := func(name string) string {
			i := col[name]
			if i >= len(record) {
				return ""
			}
			return record[i]
		}

		ts, err := ParseTimestamp(field("timestamp"))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		messages = append(messages, Message{
			Timestamp: ts,
			UserID:    field("id_user"),
			Source:    field("source"),
			Category:  field("category"),
			Message:   field("message"),
		})
	}

	return New(messages), nil
}

// Messages returns the ordered message slice. Callers must not mutate it.
func (d *Dataset) Messages() []Message { return d.messages }

// Len returns the number of messages.
func (d *Dataset) Len() int { return len(d.messages) }

// Reference returns the session's fixed "now": the maximum timestamp observed
// at load time, not the wall clock.
func (d *Dataset) Reference() time.Time { return d.reference }

// Categories returns the distinct non-empty category labels in first-seen order.
func (d *Dataset) Categories() []string { return d.categories }

// Sources returns the distinct non-empty source values in first-seen order.
func (d *Dataset) Sources() []string { return d.sources }
