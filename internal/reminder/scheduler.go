package reminder

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/nissyi-gh/todo/internal/clock"
	"github.com/nissyi-gh/todo/internal/logger"
	"github.com/nissyi-gh/todo/internal/model"
	"go.uber.org/zap"
)

// DefaultLead is how long before the due time a reminder fires.
const DefaultLead = 10 * time.Minute

const (
	alertTitle   = "Task due soon"
	fallbackBody = "A task is due soon"
)

// Scheduler binds each task's due time to at most one platform alert.
// Operations on the same task id are serialized so the latest call wins.
type Scheduler struct {
	platform Platform
	clock    clock.Clock
	lead     time.Duration

	mu      sync.Mutex
	enabled bool
	locks   map[string]*sync.Mutex
	hooks   []func(Alert)
}

type Option func(*Scheduler)

// WithLead overrides DefaultLead. Non-positive values are ignored.
func WithLead(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.lead = d
		}
	}
}

func New(p Platform, c clock.Clock, opts ...Option) *Scheduler {
	if c == nil {
		c = clock.System{}
	}
	s := &Scheduler{
		platform: p,
		clock:    c,
		lead:     DefaultLead,
		enabled:  true,
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init asks the platform for permission. Without it every Schedule is a no-op.
func (s *Scheduler) Init(ctx context.Context) bool {
	granted, err := s.platform.RequestPermission(ctx)
	if err != nil {
		logger.Warn("Reminder: permission request failed", zap.Error(err))
		granted = false
	}
	if !granted {
		logger.Info("Reminder: notifications unavailable, reminders disabled")
	}
	s.mu.Lock()
	s.enabled = granted
	s.mu.Unlock()
	return granted
}

// Enabled reports whether reminders can currently be scheduled.
func (s *Scheduler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

func (s *Scheduler) Lead() time.Duration {
	return s.lead
}

// OnFire registers a hook called from Run for every fired alert.
func (s *Scheduler) OnFire(fn func(Alert)) {
	s.mu.Lock()
	s.hooks = append(s.hooks, fn)
	s.mu.Unlock()
}

// Run dispatches platform alerts to hooks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	alerts := s.platform.Alerts()
	for {
		select {
		case <-ctx.Done():
			return
		case a, ok := <-alerts:
			if !ok {
				return
			}
			logger.Info("Reminder: fired",
				zap.String("task_id", a.Payload.TaskID),
				zap.String("handle", a.Handle),
			)
			s.mu.Lock()
			hooks := slices.Clone(s.hooks)
			s.mu.Unlock()
			for _, fn := range hooks {
				fn(a)
			}
		}
	}
}

// TriggerAt returns when a reminder for t would fire.
func (s *Scheduler) TriggerAt(t model.Task) (time.Time, bool) {
	if t.DueAt == nil {
		return time.Time{}, false
	}
	return t.DueAt.Add(-s.lead), true
}

// Schedule registers a reminder for t and returns its handle, or "" when none
// was scheduled. Failures are logged and swallowed.
func (s *Scheduler) Schedule(ctx context.Context, t model.Task) string {
	if t.DueAt == nil || t.Done {
		return ""
	}
	l := s.lockFor(t.ID)
	l.Lock()
	defer l.Unlock()
	return s.schedule(ctx, t)
}

// Cancel revokes handle. An empty handle is a no-op.
func (s *Scheduler) Cancel(ctx context.Context, taskID, handle string) {
	if handle == "" {
		return
	}
	l := s.lockFor(taskID)
	l.Lock()
	defer l.Unlock()
	s.cancel(ctx, taskID, handle)
}

// Reschedule cancels old and schedules t in one step for that task.
func (s *Scheduler) Reschedule(ctx context.Context, t model.Task, old string) string {
	l := s.lockFor(t.ID)
	l.Lock()
	defer l.Unlock()
	s.cancel(ctx, t.ID, old)
	if t.DueAt == nil || t.Done {
		return ""
	}
	return s.schedule(ctx, t)
}

// Forget drops per-task bookkeeping once a task is gone.
func (s *Scheduler) Forget(taskID string) {
	s.mu.Lock()
	delete(s.locks, taskID)
	s.mu.Unlock()
}

func (s *Scheduler) lockFor(taskID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[taskID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[taskID] = l
	}
	return l
}

func (s *Scheduler) schedule(ctx context.Context, t model.Task) string {
	if !s.Enabled() {
		return ""
	}
	now := s.clock.Now()
	if !t.DueAt.After(now) {
		logger.Debug("Reminder: due time already passed", zap.String("task_id", t.ID))
		return ""
	}
	at := t.DueAt.Add(-s.lead)
	if at.Before(now) {
		at = now
	}

	body := t.Title
	if body == "" {
		body = fallbackBody
	}
	handle, err := s.platform.ScheduleAt(ctx, at, Payload{TaskID: t.ID, Title: alertTitle, Body: body})
	if err != nil {
		logger.Warn("Reminder: schedule failed", zap.Error(&SchedulingError{TaskID: t.ID, Op: "schedule", Err: err}))
		return ""
	}
	logger.Debug("Reminder: scheduled",
		zap.String("task_id", t.ID),
		zap.String("handle", handle),
		zap.Time("trigger_at", at),
	)
	return handle
}

func (s *Scheduler) cancel(ctx context.Context, taskID, handle string) {
	if handle == "" {
		return
	}
	if err := s.platform.Cancel(ctx, handle); err != nil {
		logger.Warn("Reminder: cancel failed", zap.Error(&SchedulingError{TaskID: taskID, Op: "cancel", Err: err}))
		return
	}
	logger.Debug("Reminder: cancelled", zap.String("task_id", taskID), zap.String("handle", handle))
}
