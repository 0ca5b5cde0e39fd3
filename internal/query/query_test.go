package query

import (
	"testing"
	"time"

	"github.com/nissyi-gh/todo/internal/clock"
	"github.com/nissyi-gh/todo/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	jst = time.FixedZone("JST", 9*3600)
	// 2026-10-17 15:00 JST
	now = time.Date(2026, 10, 17, 15, 0, 0, 0, jst)
)

func at(y int, m time.Month, d, h int) *time.Time {
	t := time.Date(y, m, d, h, 0, 0, 0, jst).UTC()
	return &t
}

func ids(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestDerive_SortLaw(t *testing.T) {
	t3 := now.Add(-2 * time.Hour)
	t4 := now.Add(-time.Hour)
	tasks := []model.Task{
		{ID: "C", Title: "c", CreatedAt: t3},
		{ID: "B", Title: "b", DueAt: at(2026, 10, 20, 10), CreatedAt: t3},
		{ID: "D", Title: "d", CreatedAt: t4},
		{ID: "A", Title: "a", DueAt: at(2026, 10, 18, 10), CreatedAt: t4},
	}

	got := Derive(tasks, Options{Filter: model.FilterAll, ShowCompleted: true}, now, jst)
	assert.Equal(t, []string{"A", "B", "D", "C"}, ids(got))
}

func TestDerive_CompletionFilter(t *testing.T) {
	tasks := []model.Task{
		{ID: "1", Title: "open"},
		{ID: "2", Title: "closed", Done: true},
	}

	assert.Equal(t, []string{"1"}, ids(Derive(tasks, Options{}, now, jst)))
	assert.Len(t, Derive(tasks, Options{ShowCompleted: true}, now, jst), 2)
}

func TestDerive_DateRange(t *testing.T) {
	tasks := []model.Task{
		{ID: "yesterday", DueAt: at(2026, 10, 16, 23)},
		{ID: "midnight", DueAt: at(2026, 10, 17, 0)},
		{ID: "tonight", DueAt: at(2026, 10, 17, 23)},
		{ID: "tomorrow", DueAt: at(2026, 10, 18, 0)},
		{ID: "day6", DueAt: at(2026, 10, 23, 23)},
		{ID: "day7", DueAt: at(2026, 10, 24, 0)},
		{ID: "undated"},
	}

	tests := []struct {
		filter model.FilterKind
		want   []string
	}{
		{filter: model.FilterToday, want: []string{"midnight", "tonight"}},
		{filter: model.FilterWeek, want: []string{"midnight", "tonight", "tomorrow", "day6"}},
		{filter: model.FilterAll, want: []string{"yesterday", "midnight", "tonight", "tomorrow", "day6", "day7", "undated"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			got := Derive(tasks, Options{Filter: tt.filter}, now, jst)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestDerive_Search(t *testing.T) {
	created := now.Add(-time.Hour)
	tasks := []model.Task{
		{ID: "1", Title: "Workout", CreatedAt: created.Add(-time.Minute)},
		{ID: "2", Title: "Groceries", Tags: []string{"work"}, CreatedAt: created},
		{ID: "3", Title: "Rest", CreatedAt: created},
		{ID: "4", Title: "Call", Note: "about WORK trip", CreatedAt: created.Add(-time.Hour)},
	}

	got := Derive(tasks, Options{Search: "WORK"}, now, jst)
	assert.Equal(t, []string{"2", "1", "4"}, ids(got))

	// surrounding spaces are part of the query once it is non-blank
	assert.Equal(t, []string{"4"}, ids(Derive(tasks, Options{Search: " work"}, now, jst)))
	assert.Equal(t, []string{"4"}, ids(Derive(tasks, Options{Search: "work "}, now, jst)))

	assert.Len(t, Derive(tasks, Options{Search: "   "}, now, jst), 4)
	assert.Empty(t, Derive(tasks, Options{Search: "zzz"}, now, jst))
}

func TestDerive_PipelineOrder(t *testing.T) {
	tasks := []model.Task{
		{ID: "1", Title: "work report", DueAt: at(2026, 10, 17, 18), Done: true},
		{ID: "2", Title: "work call", DueAt: at(2026, 10, 17, 17)},
		{ID: "3", Title: "work plan", DueAt: at(2026, 10, 30, 9)},
		{ID: "4", Title: "laundry", DueAt: at(2026, 10, 17, 10)},
	}

	got := Derive(tasks, Options{Filter: model.FilterToday, Search: "work"}, now, jst)
	assert.Equal(t, []string{"2"}, ids(got))
}

func TestDerive_Pure(t *testing.T) {
	tasks := []model.Task{
		{ID: "b", Title: "b", Tags: []string{"x"}, DueAt: at(2026, 10, 19, 9)},
		{ID: "a", Title: "a", DueAt: at(2026, 10, 18, 9)},
	}
	before := make([]model.Task, len(tasks))
	for i, t := range tasks {
		before[i] = t.Clone()
	}
	opts := Options{Filter: model.FilterWeek, ShowCompleted: true}

	first := Derive(tasks, opts, now, jst)
	second := Derive(tasks, opts, now, jst)
	assert.Equal(t, first, second)
	assert.Equal(t, before, tasks)

	first[0].Tags = append(first[0].Tags, "mutated")
	*first[1].DueAt = time.Time{}
	assert.Equal(t, before, tasks)
}

func TestDerive_StableForEqualDue(t *testing.T) {
	due := at(2026, 10, 18, 9)
	tasks := []model.Task{
		{ID: "1", DueAt: due},
		{ID: "2", DueAt: due},
		{ID: "3", DueAt: due},
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids(Derive(tasks, Options{}, now, jst)))
}

func TestCounts(t *testing.T) {
	tasks := []model.Task{
		{ID: "1", DueAt: at(2026, 10, 17, 18)},
		{ID: "2", DueAt: at(2026, 10, 19, 9)},
		{ID: "3"},
		{ID: "4", DueAt: at(2026, 10, 17, 18), Done: true},
	}
	got := Counts(tasks, now, jst)
	assert.Equal(t, 3, got[model.FilterAll])
	assert.Equal(t, 1, got[model.FilterToday])
	assert.Equal(t, 2, got[model.FilterWeek])
}

func TestEngine(t *testing.T) {
	e := NewEngine(clock.NewManual(now))
	e.Location = jst

	tasks := []model.Task{{ID: "1", DueAt: at(2026, 10, 17, 18)}}
	require.Len(t, e.Derive(tasks, Options{Filter: model.FilterToday}), 1)
	assert.Equal(t, 1, e.Counts(tasks)[model.FilterToday])
}
