package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/nissyi-gh/todo/internal/storage/file"
	"github.com/nissyi-gh/todo/internal/storage/sqlite"
)

// TodosKey is the single well-known key the task collection is stored under.
const TodosKey = "todos"

// KV is keyed text storage for serialized snapshots.
// Get reports ok=false when the key has never been written.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
	DriverMemory = "memory"
)

// Open returns the KV backend for driver. An empty path selects the driver's default location.
func Open(driver, path string) (KV, error) {
	switch driver {
	case "", DriverSQLite:
		s, err := sqlite.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		return s, nil
	case DriverFile:
		s, err := file.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open file storage: %w", err)
		}
		return s, nil
	case DriverMemory:
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", driver)
}

// Memory keeps values in a map. Nothing survives the process.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Close() error { return nil }
