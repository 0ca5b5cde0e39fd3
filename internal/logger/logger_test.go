package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInit_WritesToFile(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	path := filepath.Join(t.TempDir(), "logs", "todo.log")
	require.NoError(t, Init(Options{File: path, Level: "debug"}))

	Info("task created", zap.String("task_id", "01J"))
	Error("persist tasks", errors.New("disk full"))
	Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "task created")
	assert.Contains(t, string(b), "disk full")
}

func TestInit_BadLevel(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	err := Init(Options{Level: "loud"})
	assert.Error(t, err)
}
