// Package remindertest provides an in-memory reminder.Platform for tests.
package remindertest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nissyi-gh/todo/internal/reminder"
)

var ErrDenied = errors.New("scheduling denied")

// Scheduled is one live alert registered with the fake.
type Scheduled struct {
	Handle  string
	At      time.Time
	Payload reminder.Payload
}

// Platform records every call and fires only when told to.
type Platform struct {
	mu        sync.Mutex
	seq       int
	live      map[string]Scheduled
	cancelled []string
	alerts    chan reminder.Alert

	// Deny makes RequestPermission report false.
	Deny bool
	// Fail makes ScheduleAt return ErrDenied.
	Fail bool
}

func New() *Platform {
	return &Platform{
		live:   make(map[string]Scheduled),
		alerts: make(chan reminder.Alert, 64),
	}
}

func (p *Platform) RequestPermission(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.Deny, nil
}

func (p *Platform) ScheduleAt(ctx context.Context, at time.Time, payload reminder.Payload) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Fail {
		return "", ErrDenied
	}
	p.seq++
	h := fmt.Sprintf("n%d", p.seq)
	p.live[h] = Scheduled{Handle: h, At: at, Payload: payload}
	return h, nil
}

func (p *Platform) Cancel(ctx context.Context, handle string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.live, handle)
	p.cancelled = append(p.cancelled, handle)
	return nil
}

func (p *Platform) Alerts() <-chan reminder.Alert {
	return p.alerts
}

// SetFail toggles ScheduleAt failures.
func (p *Platform) SetFail(fail bool) {
	p.mu.Lock()
	p.Fail = fail
	p.mu.Unlock()
}

// Fire delivers the alert for handle as if its time had come.
func (p *Platform) Fire(handle string) bool {
	p.mu.Lock()
	s, ok := p.live[handle]
	delete(p.live, handle)
	p.mu.Unlock()
	if !ok {
		return false
	}
	p.alerts <- reminder.Alert{Handle: s.Handle, Payload: s.Payload, At: s.At}
	return true
}

// Live returns the outstanding alerts keyed by handle.
func (p *Platform) Live() map[string]Scheduled {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]Scheduled, len(p.live))
	for k, v := range p.live {
		out[k] = v
	}
	return out
}

// LiveFor returns the outstanding alerts carrying taskID.
func (p *Platform) LiveFor(taskID string) []Scheduled {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Scheduled
	for _, s := range p.live {
		if s.Payload.TaskID == taskID {
			out = append(out, s)
		}
	}
	return out
}

// Cancelled returns every handle passed to Cancel, in order.
func (p *Platform) Cancelled() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.cancelled...)
}
