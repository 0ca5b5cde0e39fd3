package query

import (
	"slices"
	"strings"
	"time"

	"github.com/nissyi-gh/todo/internal/clock"
	"github.com/nissyi-gh/todo/internal/model"
)

// Options selects which tasks are visible.
type Options struct {
	Filter        model.FilterKind
	ShowCompleted bool
	Search        string
}

// Derive returns the visible, ordered tasks. It never modifies tasks;
// the result holds copies. Day boundaries are computed in loc (time.Local if nil).
func Derive(tasks []model.Task, opts Options, now time.Time, loc *time.Location) []model.Task {
	if loc == nil {
		loc = time.Local
	}
	start := model.StartOfDay(now.In(loc))
	// Blank queries match everything; otherwise spaces in the query are significant.
	q := strings.ToLower(opts.Search)
	if strings.TrimSpace(q) == "" {
		q = ""
	}

	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if !opts.ShowCompleted && t.Done {
			continue
		}
		if !inRange(t, opts.Filter, start) {
			continue
		}
		if q != "" && !matches(t, q) {
			continue
		}
		out = append(out, t.Clone())
	}

	slices.SortStableFunc(out, Compare)
	return out
}

func inRange(t model.Task, f model.FilterKind, start time.Time) bool {
	var end time.Time
	switch f {
	case model.FilterToday:
		end = start.AddDate(0, 0, 1)
	case model.FilterWeek:
		end = start.AddDate(0, 0, 7)
	default:
		return true
	}
	if t.DueAt == nil {
		return false
	}
	return !t.DueAt.Before(start) && t.DueAt.Before(end)
}

// matches expects q already lower-cased.
func matches(t model.Task, q string) bool {
	if strings.Contains(strings.ToLower(t.Title), q) {
		return true
	}
	if t.Note != "" && strings.Contains(strings.ToLower(t.Note), q) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// Compare orders by due time ascending, dated before undated,
// and undated tasks newest first.
func Compare(a, b model.Task) int {
	switch {
	case a.DueAt != nil && b.DueAt != nil:
		return a.DueAt.Compare(*b.DueAt)
	case a.DueAt != nil:
		return -1
	case b.DueAt != nil:
		return 1
	}
	return b.CreatedAt.Compare(a.CreatedAt)
}

// Counts returns how many open tasks each filter tab would show.
func Counts(tasks []model.Task, now time.Time, loc *time.Location) map[model.FilterKind]int {
	if loc == nil {
		loc = time.Local
	}
	start := model.StartOfDay(now.In(loc))
	counts := make(map[model.FilterKind]int, 3)
	for _, t := range tasks {
		if t.Done {
			continue
		}
		for _, f := range model.FilterKinds() {
			if inRange(t, f, start) {
				counts[f]++
			}
		}
	}
	return counts
}

// Engine binds Derive to a clock and a location.
type Engine struct {
	Clock    clock.Clock
	Location *time.Location
}

func NewEngine(c clock.Clock) Engine {
	if c == nil {
		c = clock.System{}
	}
	return Engine{Clock: c, Location: time.Local}
}

func (e Engine) Derive(tasks []model.Task, opts Options) []model.Task {
	return Derive(tasks, opts, e.Clock.Now(), e.Location)
}

func (e Engine) Counts(tasks []model.Task) map[model.FilterKind]int {
	return Counts(tasks, e.Clock.Now(), e.Location)
}
