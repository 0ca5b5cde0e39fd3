package store

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/nissyi-gh/todo/internal/clock"
	"github.com/nissyi-gh/todo/internal/codec"
	"github.com/nissyi-gh/todo/internal/logger"
	"github.com/nissyi-gh/todo/internal/model"
	"github.com/nissyi-gh/todo/internal/reminder"
	"github.com/nissyi-gh/todo/internal/storage"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Reminders is the part of reminder.Scheduler the store drives.
type Reminders interface {
	Schedule(ctx context.Context, t model.Task) string
	Cancel(ctx context.Context, taskID, handle string)
	Reschedule(ctx context.Context, t model.Task, old string) string
	Forget(taskID string)
}

// TaskStore owns the task collection. Every mutation goes through its methods,
// updates reminders, and is persisted before the method returns.
type TaskStore struct {
	mu        sync.Mutex
	kv        storage.KV
	reminders Reminders
	clock     clock.Clock
	entropy   io.Reader
	tasks     []model.Task
}

func New(kv storage.KV, reminders Reminders, c clock.Clock) *TaskStore {
	if c == nil {
		c = clock.System{}
	}
	return &TaskStore{
		kv:        kv,
		reminders: reminders,
		clock:     c,
		entropy:   ulid.Monotonic(rand.Reader, 0),
	}
}

// Load restores the persisted collection. A missing or unreadable snapshot
// yields an empty collection. Reminder handles from the previous run are
// cancelled and re-derived.
func (s *TaskStore) Load(ctx context.Context) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := s.readSnapshot(ctx)
	for _, t := range s.tasks {
		s.reminders.Cancel(ctx, t.ID, t.NotificationID)
	}

	changed := false
	for i := range tasks {
		old := tasks[i].NotificationID
		s.normalize(&tasks[i])
		tasks[i].NotificationID = s.reminders.Reschedule(ctx, tasks[i], old)
		if tasks[i].NotificationID != old {
			changed = true
		}
	}
	s.tasks = tasks
	logger.Info("Store: tasks loaded", zap.Int("count", len(tasks)))

	if changed {
		if err := s.persist(ctx); err != nil {
			logger.Error("Store: persist after load", err)
		}
	}
	return s.snapshot()
}

func (s *TaskStore) readSnapshot(ctx context.Context) []model.Task {
	raw, ok, err := s.kv.Get(ctx, storage.TodosKey)
	if err != nil {
		logger.Warn("Store: read snapshot failed, starting empty", zap.Error(err))
		return []model.Task{}
	}
	if !ok {
		logger.Info("Store: no saved tasks (first run)")
		return []model.Task{}
	}
	tasks, err := codec.Import([]byte(raw), codec.JSON)
	if err != nil {
		logger.Warn("Store: saved tasks are corrupt, starting empty", zap.Error(err))
		return []model.Task{}
	}
	for _, t := range tasks {
		if strings.TrimSpace(t.ID) == "" {
			logger.Warn("Store: saved task without id, starting empty")
			return []model.Task{}
		}
	}
	return tasks
}

// Create adds a task. The title is required; due and tags are optional.
func (s *TaskStore) Create(ctx context.Context, title string, due *time.Time, tags []string) (model.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Task{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := model.Task{
		ID:        s.newID(),
		Title:     title,
		Tags:      model.NormalizeTags(tags),
		CreatedAt: s.clock.Now().UTC(),
	}
	if due != nil {
		d := due.UTC()
		t.DueAt = &d
	}
	t.NotificationID = s.reminders.Schedule(ctx, t)

	s.tasks = append([]model.Task{t}, s.tasks...)
	logger.Info("Store: task created", zap.String("task_id", t.ID), zap.Bool("reminder", t.HasReminder()))

	if err := s.persist(ctx); err != nil {
		return t.Clone(), err
	}
	return t.Clone(), nil
}

// Update applies a partial change. A changed due time rotates the reminder.
func (s *TaskStore) Update(ctx context.Context, id string, opts ...model.Option) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Task{}, &NotFoundError{ID: id}
	}
	old := s.tasks[i]
	next := old.Clone()
	for _, opt := range opts {
		if opt != nil {
			opt(&next)
		}
	}

	next.Title = strings.TrimSpace(next.Title)
	if next.Title == "" {
		return model.Task{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	next.Tags = model.NormalizeTags(next.Tags)
	// identity and lifecycle fields are not patchable
	next.ID = old.ID
	next.CreatedAt = old.CreatedAt
	next.Done = old.Done
	next.NotificationID = old.NotificationID

	if !sameInstant(old.DueAt, next.DueAt) {
		next.NotificationID = s.reminders.Reschedule(ctx, next, old.NotificationID)
	}

	s.tasks[i] = next
	logger.Info("Store: task updated", zap.String("task_id", id))

	if err := s.persist(ctx); err != nil {
		return next.Clone(), err
	}
	return next.Clone(), nil
}

// ToggleDone flips completion. Completing cancels the reminder; reopening
// schedules a new one when the due time is still ahead.
func (s *TaskStore) ToggleDone(ctx context.Context, id string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Task{}, &NotFoundError{ID: id}
	}
	next := s.tasks[i].Clone()
	next.Done = !next.Done
	next.NotificationID = s.reminders.Reschedule(ctx, next, next.NotificationID)

	s.tasks[i] = next
	logger.Info("Store: task toggled", zap.String("task_id", id), zap.Bool("done", next.Done))

	if err := s.persist(ctx); err != nil {
		return next.Clone(), err
	}
	return next.Clone(), nil
}

// Delete removes a task and cancels its reminder.
// Deleting an unknown id is a no-op and returns nil.
func (s *TaskStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		logger.Debug("Store: delete of unknown task ignored", zap.String("task_id", id))
		return nil
	}
	t := s.tasks[i]
	s.reminders.Cancel(ctx, t.ID, t.NotificationID)
	s.reminders.Forget(t.ID)

	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	logger.Info("Store: task deleted", zap.String("task_id", id))

	return s.persist(ctx)
}

// ReplaceAll swaps the whole collection, as an import does. Imported reminder
// handles are not trusted: they are dropped and reminders are derived again.
func (s *TaskStore) ReplaceAll(ctx context.Context, tasks []model.Task) error {
	next := make([]model.Task, 0, len(tasks))
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		t = t.Clone()
		t.ID = strings.TrimSpace(t.ID)
		if t.ID == "" {
			return &ValidationError{Field: "id", Reason: "must not be empty"}
		}
		if seen[t.ID] {
			return &ValidationError{Field: "id", Reason: fmt.Sprintf("duplicate id %q", t.ID)}
		}
		seen[t.ID] = true
		if strings.TrimSpace(t.Title) == "" {
			return &ValidationError{Field: "title", Reason: fmt.Sprintf("task %s has an empty title", t.ID)}
		}
		next = append(next, t)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tasks {
		s.reminders.Cancel(ctx, t.ID, t.NotificationID)
		if !seen[t.ID] {
			s.reminders.Forget(t.ID)
		}
	}
	for i := range next {
		s.normalize(&next[i])
		next[i].NotificationID = s.reminders.Schedule(ctx, next[i])
	}

	s.tasks = next
	logger.Info("Store: tasks replaced", zap.Int("count", len(next)))
	return s.persist(ctx)
}

// ReminderFired marks the task's reminder as no longer outstanding.
// Alerts for a handle that has since been replaced are ignored.
func (s *TaskStore) ReminderFired(ctx context.Context, a reminder.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(a.Payload.TaskID)
	if i < 0 || s.tasks[i].NotificationID != a.Handle {
		return
	}
	s.tasks[i].NotificationID = ""
	if err := s.persist(ctx); err != nil {
		logger.Error("Store: persist after reminder", err, zap.String("task_id", a.Payload.TaskID))
	}
}

// Get returns a copy of the task with id.
func (s *TaskStore) Get(id string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return model.Task{}, &NotFoundError{ID: id}
	}
	return s.tasks[i].Clone(), nil
}

// All returns a copy of every task in storage order.
func (s *TaskStore) All() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Persisted reads back the stored snapshot. It waits for any in-flight mutation.
func (s *TaskStore) Persisted(ctx context.Context) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok, err := s.kv.Get(ctx, storage.TodosKey)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if !ok {
		return []model.Task{}, nil
	}
	return codec.Import([]byte(raw), codec.JSON)
}

func (s *TaskStore) persist(ctx context.Context) error {
	b, err := codec.Export(s.tasks, codec.JSON)
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	if err := s.kv.Set(ctx, storage.TodosKey, string(b)); err != nil {
		logger.Error("Store: persist failed", err)
		return fmt.Errorf("persist tasks: %w", err)
	}
	return nil
}

func (s *TaskStore) snapshot() []model.Task {
	out := make([]model.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

func (s *TaskStore) indexOf(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// normalize fixes up tasks that came from outside (snapshot or import).
func (s *TaskStore) normalize(t *model.Task) {
	t.Title = strings.TrimSpace(t.Title)
	t.Tags = model.NormalizeTags(t.Tags)
	t.NotificationID = ""
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.clock.Now().UTC()
	}
}

func (s *TaskStore) newID() string {
	for {
		id := s.ulid()
		if s.indexOf(id) < 0 {
			return id
		}
	}
}

func (s *TaskStore) ulid() string {
	now := s.clock.Now()
	id, err := ulid.New(ulid.Timestamp(now), s.entropy)
	if err != nil {
		// monotonic overflow within one millisecond
		return fmt.Sprintf("%d", now.UnixNano())
	}
	return id.String()
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
