package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/nissyi-gh/todo/internal/store"
)

// dueLayouts are tried in order; date-only input means 09:00 that day.
var dueLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseDue reads a due time typed on the command line, in loc unless the
// value carries its own offset.
func parseDue(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range dueLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			continue
		}
		if layout == "2006-01-02" {
			t = t.Add(9 * time.Hour)
		}
		return t, nil
	}
	return time.Time{}, usageError{fmt.Errorf("invalid due %q (want YYYY-MM-DD, YYYY-MM-DD HH:MM or RFC 3339)", s)}
}

// resolveID accepts a full id or a unique, case-insensitive prefix of one.
func resolveID(s *store.TaskStore, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", &store.ValidationError{Field: "id", Reason: "must not be empty"}
	}
	if _, err := s.Get(ref); err == nil {
		return ref, nil
	}

	var matches []string
	upper := strings.ToUpper(ref)
	for _, t := range s.All() {
		if strings.HasPrefix(strings.ToUpper(t.ID), upper) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", &store.NotFoundError{ID: ref}
	case 1:
		return matches[0], nil
	}
	return "", &store.ValidationError{Field: "id", Reason: fmt.Sprintf("prefix %q matches %d tasks", ref, len(matches))}
}
