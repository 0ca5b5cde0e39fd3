package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nissyi-gh/todo/internal/model"
	"gopkg.in/yaml.v3"
)

// Format selects the textual interchange encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// ParseFormat accepts json, yaml or yml. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("unknown format %q (want json or yaml)", s)
}

// FormatFromPath picks the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	}
	return JSON
}

// Sniff guesses the format of pasted text: a leading '[' or '{' means JSON.
func Sniff(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		return JSON
	}
	return YAML
}

// record is the interchange shape of a task.
type record struct {
	ID             string   `json:"id" yaml:"id"`
	Title          string   `json:"title" yaml:"title"`
	Note           string   `json:"note,omitempty" yaml:"note,omitempty"`
	Tags           []string `json:"tags" yaml:"tags"`
	CreatedAt      isoTime  `json:"createdAt" yaml:"createdAt"`
	DueAt          isoTime  `json:"dueAt" yaml:"dueAt"`
	Done           bool     `json:"done" yaml:"done"`
	NotificationID *string  `json:"notificationId" yaml:"notificationId"`
}

func fromTask(t model.Task) record {
	r := record{
		ID:    t.ID,
		Title: t.Title,
		Note:  t.Note,
		Tags:  t.Tags,
		DueAt: isoTime{t: t.DueAt},
		Done:  t.Done,
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if !t.CreatedAt.IsZero() {
		c := t.CreatedAt
		r.CreatedAt = isoTime{t: &c}
	}
	if t.NotificationID != "" {
		id := t.NotificationID
		r.NotificationID = &id
	}
	return r
}

func (r record) task() model.Task {
	t := model.Task{
		ID:    r.ID,
		Title: r.Title,
		Note:  r.Note,
		Tags:  model.NormalizeTags(r.Tags),
		DueAt: r.DueAt.t,
		Done:  r.Done,
	}
	if r.CreatedAt.t != nil {
		t.CreatedAt = *r.CreatedAt.t
	}
	if r.NotificationID != nil {
		t.NotificationID = *r.NotificationID
	}
	return t
}

// Export serializes every task field in the given format.
func Export(tasks []model.Task, f Format) ([]byte, error) {
	records := make([]record, 0, len(tasks))
	for _, t := range tasks {
		records = append(records, fromTask(t))
	}

	switch f {
	case YAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	case JSON, "":
		b, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(b, '\n'), nil
	}
	return nil, fmt.Errorf("unknown format %q", f)
}

// Import parses and validates an interchange document. It never touches the store;
// callers hand the result to TaskStore.ReplaceAll.
func Import(data []byte, f Format) ([]model.Task, error) {
	var (
		records []record
		err     error
	)
	switch f {
	case YAML:
		records, err = decodeYAML(data)
	case JSON, "":
		records, err = decodeJSON(data)
	default:
		return nil, fmt.Errorf("unknown format %q", f)
	}
	if err != nil {
		return nil, err
	}

	tasks := make([]model.Task, 0, len(records))
	seen := make(map[string]bool, len(records))
	for i, r := range records {
		if seen[r.ID] {
			return nil, &FormatError{Index: i, Field: "id", Reason: fmt.Sprintf("duplicate id %q", r.ID)}
		}
		seen[r.ID] = true
		tasks = append(tasks, r.task())
	}
	return tasks, nil
}

func decodeJSON(data []byte) ([]record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &FormatError{Index: -1, Reason: "top level must be a sequence of tasks"}
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, &FormatError{Index: -1, Reason: "malformed json", Err: err}
	}

	records := make([]record, 0, len(elems))
	for i, raw := range elems {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
			return nil, &FormatError{Index: i, Reason: "task must be an object"}
		}
		for _, key := range []string{"id", "title"} {
			if err := requireJSONString(fields, key); err != nil {
				return nil, &FormatError{Index: i, Field: key, Reason: err.Error()}
			}
		}

		var r record
		if err := json.Unmarshal(raw, &r); err != nil {
			fe := &FormatError{Index: i, Reason: "invalid field", Err: err}
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				fe.Field = typeErr.Field
				fe.Reason = fmt.Sprintf("expected %s", typeErr.Type)
			}
			return nil, fe
		}
		records = append(records, r)
	}
	return records, nil
}

func requireJSONString(fields map[string]json.RawMessage, key string) error {
	raw, ok := fields[key]
	if !ok {
		return errors.New("required field is missing")
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return errors.New("must be a string")
	}
	return nil
}

func decodeYAML(data []byte) ([]record, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &FormatError{Index: -1, Reason: "malformed yaml", Err: err}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.SequenceNode {
		return nil, &FormatError{Index: -1, Reason: "top level must be a sequence of tasks"}
	}

	seq := doc.Content[0]
	records := make([]record, 0, len(seq.Content))
	for i, item := range seq.Content {
		if item.Kind != yaml.MappingNode {
			return nil, &FormatError{Index: i, Reason: "task must be a mapping"}
		}
		for _, key := range []string{"id", "title"} {
			if err := requireYAMLString(item, key); err != nil {
				return nil, &FormatError{Index: i, Field: key, Reason: err.Error()}
			}
		}

		var r record
		if err := item.Decode(&r); err != nil {
			return nil, &FormatError{Index: i, Reason: "invalid field", Err: err}
		}
		records = append(records, r)
	}
	return records, nil
}

func requireYAMLString(m *yaml.Node, key string) error {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value != key {
			continue
		}
		v := m.Content[i+1]
		if v.Kind != yaml.ScalarNode || v.ShortTag() != "!!str" {
			return errors.New("must be a string")
		}
		return nil
	}
	return errors.New("required field is missing")
}
