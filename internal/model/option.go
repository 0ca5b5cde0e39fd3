package model

import "time"

// Option is a partial change applied to a task by an update.
type Option func(*Task)

func WithTitle(title string) Option {
	return func(t *Task) {
		t.Title = title
	}
}

func WithNote(note string) Option {
	return func(t *Task) {
		t.Note = note
	}
}

func WithTags(tags []string) Option {
	return func(t *Task) {
		t.Tags = NormalizeTags(tags)
	}
}

func WithDueAt(due time.Time) Option {
	return func(t *Task) {
		d := due.UTC()
		t.DueAt = &d
	}
}

// WithoutDueAt clears the deadline.
func WithoutDueAt() Option {
	return func(t *Task) {
		t.DueAt = nil
	}
}

// WithDue sets or clears the deadline depending on due.
func WithDue(due *time.Time) Option {
	if due == nil {
		return WithoutDueAt()
	}
	return WithDueAt(*due)
}
