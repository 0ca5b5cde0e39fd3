package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nissyi-gh/todo/internal/clock"
	"github.com/nissyi-gh/todo/internal/codec"
	"github.com/nissyi-gh/todo/internal/model"
	"github.com/nissyi-gh/todo/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	t     *testing.T
	dir   string
	db    string
	clock *clock.Manual
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	return &env{
		t:     t,
		dir:   dir,
		db:    filepath.Join(dir, "todo.db"),
		clock: clock.NewManual(time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)),
	}
}

func (e *env) run(args ...string) (code int, stdout, stderr string) {
	e.t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"--driver", "sqlite", "--db", e.db}, args...)
	code = Execute(context.Background(), full, &out, &errOut, WithClock(e.clock))
	return code, out.String(), errOut.String()
}

func (e *env) mustRun(args ...string) string {
	e.t.Helper()
	code, out, errOut := e.run(args...)
	require.Equal(e.t, ExitOK, code, "stderr: %s", errOut)
	return out
}

func (e *env) tasks() []model.Task {
	e.t.Helper()
	out := e.mustRun("list", "--json")
	tasks, err := codec.Import([]byte(out), codec.JSON)
	require.NoError(e.t, err)
	return tasks
}

func TestAddAndList(t *testing.T) {
	e := newEnv(t)

	out := e.mustRun("add", "Buy", "milk", "--tag", "home,買い物", "--note", "2 bottles")
	assert.Contains(t, out, "Created ")
	assert.Contains(t, out, "Buy milk")

	e.mustRun("add", "Meeting", "--due", "2026-10-17T13:00:00Z", "-t", "work")

	tasks := e.tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "Meeting", tasks[0].Title, "dated tasks sort first")
	require.NotNil(t, tasks[0].DueAt)
	assert.Equal(t, time.Date(2026, 10, 17, 13, 0, 0, 0, time.UTC), *tasks[0].DueAt)
	assert.Empty(t, tasks[0].NotificationID, "headless commands never hold reminders")

	assert.Equal(t, "Buy milk", tasks[1].Title)
	assert.Equal(t, []string{"home", "買い物"}, tasks[1].Tags)
	assert.Equal(t, "2 bottles", tasks[1].Note)

	table := e.mustRun("list")
	assert.Contains(t, table, "TITLE")
	assert.Contains(t, table, "Meeting")
	assert.Contains(t, table, "home,買い物")

	searched := e.mustRun("list", "--search", "MILK")
	assert.Contains(t, searched, "Buy milk")
	assert.NotContains(t, searched, "Meeting")

	today := e.mustRun("list", "--filter", "today")
	assert.NotContains(t, today, "Buy milk")
}

func TestAdd_Invalid(t *testing.T) {
	e := newEnv(t)

	code, _, errOut := e.run("add", "   ")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, errOut, "title")

	code, _, _ = e.run("add")
	assert.Equal(t, ExitUsage, code)

	code, _, _ = e.run("add", "x", "--due", "tomorrow")
	assert.Equal(t, ExitUsage, code)

	code, _, _ = e.run("add", "x", "--bogus")
	assert.Equal(t, ExitUsage, code)

	assert.Empty(t, e.tasks())
}

func TestDoneEditRm(t *testing.T) {
	e := newEnv(t)
	e.mustRun("add", "Report", "--due", "2026-10-18T09:00:00Z")
	id := e.tasks()[0].ID

	out := e.mustRun("done", strings.ToLower(id[:20]))
	assert.Contains(t, out, "Done "+id)
	assert.True(t, e.tasks()[0].Done)

	out = e.mustRun("done", id)
	assert.Contains(t, out, "Reopened")

	e.mustRun("edit", id, "--title", "Final report", "--tags", "work, 重要", "--clear-due")
	task := e.tasks()[0]
	assert.Equal(t, "Final report", task.Title)
	assert.Equal(t, []string{"work", "重要"}, task.Tags)
	assert.Nil(t, task.DueAt)

	code, _, _ := e.run("edit", id)
	assert.Equal(t, ExitUsage, code, "nothing to change")

	code, _, _ = e.run("edit", id, "--title", " ")
	assert.Equal(t, ExitUsage, code)

	code, _, _ = e.run("done", "ZZZZ")
	assert.Equal(t, ExitNotFound, code)

	code, out, _ = e.run("rm", "ZZZZ")
	assert.Equal(t, ExitOK, code, "deleting an unknown id is a no-op")
	assert.Empty(t, out)

	out = e.mustRun("rm", id)
	assert.Contains(t, out, "Deleted")
	assert.Empty(t, e.tasks())
}

func TestResolveID_Ambiguous(t *testing.T) {
	e := newEnv(t)
	e.mustRun("add", "one")
	e.mustRun("add", "two")
	tasks := e.tasks()
	require.Len(t, tasks, 2)

	// both ids were minted in the same millisecond and share the time prefix
	code, _, errOut := e.run("done", tasks[0].ID[:10])
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, errOut, "matches 2 tasks")
}

func TestExportImport(t *testing.T) {
	e := newEnv(t)
	e.mustRun("add", "Meeting", "--due", "2026-10-18T09:00:00Z", "--tag", "work")
	e.mustRun("add", "Buy milk")
	before := e.tasks()

	yamlPath := filepath.Join(e.dir, "backup.yaml")
	e.mustRun("export", yamlPath)
	data, err := os.ReadFile(yamlPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "title: Meeting")

	stdout := e.mustRun("export", "--format", "json")
	fromStdout, err := codec.Import([]byte(stdout), codec.JSON)
	require.NoError(t, err)
	assert.ElementsMatch(t, before, fromStdout)

	badPath := filepath.Join(e.dir, "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte(`[{"id":"1"}]`), 0o644))
	code, _, errOut := e.run("import", badPath)
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, errOut, "title")
	assert.Equal(t, before, e.tasks(), "a rejected import changes nothing")

	e.mustRun("rm", before[0].ID)
	out := e.mustRun("import", yamlPath)
	assert.Contains(t, out, "Imported 2 tasks")
	assert.Equal(t, before, e.tasks())
}

func TestPrompt(t *testing.T) {
	e := newEnv(t)
	e.mustRun("add", "Plan trip")

	out := e.mustRun("prompt")
	assert.Contains(t, out, "Plan trip")
	assert.Contains(t, out, "```yaml")
}

func TestConfigErrors(t *testing.T) {
	e := newEnv(t)

	code, _, _ := e.run("--driver", "postgres", "list")
	assert.Equal(t, ExitUsage, code)

	code, _, _ = e.run("--config", filepath.Join(e.dir, "missing.yaml"), "list")
	assert.Equal(t, ExitUsage, code)

	code, _, _ = e.run("list", "--filter", "month")
	assert.Equal(t, ExitUsage, code)

	code, _, _ = e.run("frobnicate")
	assert.Equal(t, ExitUsage, code)
}

func TestFileDriver(t *testing.T) {
	e := newEnv(t)
	dir := filepath.Join(e.dir, "files")

	var out bytes.Buffer
	code := Execute(context.Background(), []string{"--driver", "file", "--db", dir, "add", "Stored as file"}, &out, &out, WithClock(e.clock))
	require.Equal(t, ExitOK, code, out.String())

	_, err := os.Stat(filepath.Join(dir, "todos.json"))
	assert.NoError(t, err)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: nil, want: ExitOK},
		{err: &store.NotFoundError{ID: "x"}, want: ExitNotFound},
		{err: fmt.Errorf("wrapped: %w", &store.ValidationError{Field: "title"}), want: ExitUsage},
		{err: &codec.FormatError{Index: -1, Reason: "bad"}, want: ExitUsage},
		{err: usageError{errors.New("bad flag")}, want: ExitUsage},
		{err: errors.New("disk full"), want: ExitInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExitCode(tt.err), "%v", tt.err)
	}
}
