package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// isoTime is an optional instant written as ISO-8601 text; nil encodes as null.
type isoTime struct {
	t *time.Time
}

func parseISO(s string) (time.Time, error) {
	for _, layout := range isoLayouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339Nano {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, time.Local)
		}
		if err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not an ISO-8601 timestamp", s)
}

func (v isoTime) MarshalJSON() ([]byte, error) {
	if v.t == nil {
		return []byte("null"), nil
	}
	return json.Marshal(v.t.UTC().Format(time.RFC3339Nano))
}

func (v *isoTime) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		v.t = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.New("timestamp must be a string")
	}
	t, err := parseISO(s)
	if err != nil {
		return err
	}
	v.t = &t
	return nil
}

func (v isoTime) MarshalYAML() (any, error) {
	if v.t == nil {
		return nil, nil
	}
	return v.t.UTC().Format(time.RFC3339Nano), nil
}

func (v *isoTime) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return errors.New("timestamp must be a scalar")
	}
	if n.ShortTag() == "!!null" {
		v.t = nil
		return nil
	}
	t, err := parseISO(n.Value)
	if err != nil {
		return err
	}
	v.t = &t
	return nil
}
