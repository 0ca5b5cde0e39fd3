package reminder

import (
	"context"
	"errors"
	"time"
)

// Payload is the content of a scheduled alert.
type Payload struct {
	TaskID string
	Title  string
	Body   string
}

// Alert is delivered when a scheduled reminder fires.
type Alert struct {
	Handle  string
	Payload Payload
	At      time.Time
}

// Platform is the device notification surface the scheduler depends on.
type Platform interface {
	RequestPermission(ctx context.Context) (bool, error)
	// ScheduleAt registers an alert and returns its handle.
	ScheduleAt(ctx context.Context, at time.Time, p Payload) (string, error)
	// Cancel revokes a pending alert. Unknown or fired handles are not an error.
	Cancel(ctx context.Context, handle string) error
	// Alerts streams fired reminders. It may be nil when nothing ever fires.
	Alerts() <-chan Alert
}

// ErrUnavailable is returned by platforms that cannot deliver notifications.
var ErrUnavailable = errors.New("notifications unavailable")

// Disabled never delivers anything. Headless commands use it because
// timers would not outlive the process.
type Disabled struct{}

func (Disabled) RequestPermission(context.Context) (bool, error) { return false, nil }

func (Disabled) ScheduleAt(context.Context, time.Time, Payload) (string, error) {
	return "", ErrUnavailable
}

func (Disabled) Cancel(context.Context, string) error { return nil }

func (Disabled) Alerts() <-chan Alert { return nil }
