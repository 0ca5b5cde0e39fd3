package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetSet(t *testing.T) {
	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "todo.db"))
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.Get(ctx, "todos")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "todos", `[{"id":"1"}]`))
	require.NoError(t, s.Set(ctx, "todos", `[]`))

	v, ok, err := s.Get(ctx, "todos")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, v)

	updated, err := s.UpdatedAt(ctx, "todos")
	require.NoError(t, err)
	assert.False(t, updated.IsZero())
}

func TestStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "todo.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "todos", "snapshot"))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get(ctx, "todos")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "snapshot", v)
}

func TestDefaultPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	p, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "todo", "todo.db"), p)
	assert.DirExists(t, filepath.Join(dir, "todo"))
}
