// Package local delivers reminders with in-process timers.
// Handles do not survive the process, so pending alerts die with it.
package local

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nissyi-gh/todo/internal/reminder"
)

var ErrClosed = errors.New("platform closed")

// Platform implements reminder.Platform with time.AfterFunc.
type Platform struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	alerts chan reminder.Alert
	done   chan struct{}
	closed bool
	now    func() time.Time
}

func New() *Platform {
	return &Platform{
		timers: make(map[string]*time.Timer),
		alerts: make(chan reminder.Alert, 16),
		done:   make(chan struct{}),
		now:    time.Now,
	}
}

func (p *Platform) RequestPermission(ctx context.Context) (bool, error) {
	return true, nil
}

func (p *Platform) ScheduleAt(ctx context.Context, at time.Time, payload reminder.Payload) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return "", ErrClosed
	}

	handle := uuid.NewString()
	delay := at.Sub(p.now())
	if delay < 0 {
		delay = 0
	}
	p.timers[handle] = time.AfterFunc(delay, func() {
		p.fire(handle, at, payload)
	})
	return handle, nil
}

func (p *Platform) Cancel(ctx context.Context, handle string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.timers[handle]; ok {
		t.Stop()
		delete(p.timers, handle)
	}
	return nil
}

func (p *Platform) Alerts() <-chan reminder.Alert {
	return p.alerts
}

// Pending returns the number of alerts that have not fired yet.
func (p *Platform) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.timers)
}

// Close stops every pending timer. Later ScheduleAt calls fail.
func (p *Platform) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	for h, t := range p.timers {
		t.Stop()
		delete(p.timers, h)
	}
	close(p.done)
	return nil
}

func (p *Platform) fire(handle string, at time.Time, payload reminder.Payload) {
	p.mu.Lock()
	_, pending := p.timers[handle]
	delete(p.timers, handle)
	p.mu.Unlock()
	if !pending {
		// cancelled after the timer had already started
		return
	}

	select {
	case p.alerts <- reminder.Alert{Handle: handle, Payload: payload, At: at}:
	case <-p.done:
	}
}
