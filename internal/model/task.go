package model

import (
	"slices"
	"strings"
	"time"
)

// Task represents a single to-do record.
type Task struct {
	ID        string
	Title     string
	Note      string
	Tags      []string
	CreatedAt time.Time
	DueAt     *time.Time
	Done      bool
	// NotificationID is the handle of the outstanding reminder, empty when none.
	NotificationID string
}

// HasDue reports whether the task has a deadline.
func (t Task) HasDue() bool {
	return t.DueAt != nil
}

// HasReminder reports whether a reminder is outstanding for the task.
func (t Task) HasReminder() bool {
	return t.NotificationID != ""
}

// Clone returns a deep copy so that callers never share Tags or DueAt with the store.
func (t Task) Clone() Task {
	c := t
	c.Tags = slices.Clone(t.Tags)
	if t.DueAt != nil {
		d := *t.DueAt
		c.DueAt = &d
	}
	return c
}

// IsDueToday returns true if the task's due time falls on the local day of now.
func (t Task) IsDueToday(now time.Time) bool {
	if t.DueAt == nil {
		return false
	}
	start := StartOfDay(now)
	return !t.DueAt.Before(start) && t.DueAt.Before(start.AddDate(0, 0, 1))
}

// IsOverdue returns true if the task is past its due time and not completed.
func (t Task) IsOverdue(now time.Time) bool {
	if t.DueAt == nil || t.Done {
		return false
	}
	return t.DueAt.Before(now)
}

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// NormalizeTags trims entries and drops empties and duplicates.
// The first occurrence wins and case is preserved.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// SplitTags splits free-form tag input on ASCII and ideographic commas.
func SplitTags(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '、'
	})
	return NormalizeTags(fields)
}
