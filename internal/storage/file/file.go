package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Store writes each key to its own file under a directory.
type Store struct {
	dir string
}

// Open uses dir, or $XDG_DATA_HOME/todo when dir is empty.
func Open(dir string) (*Store, error) {
	if dir == "" {
		dataHome := os.Getenv("XDG_DATA_HOME")
		if dataHome == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("determine data dir: %w", err)
			}
			dataHome = filepath.Join(home, ".local", "share")
		}
		dir = filepath.Join(dataHome, "todo")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+".json")
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	b, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %q: %w", key, err)
	}
	return string(b), true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := atomicWriteFile(s.path(key), []byte(value), 0o644); err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error { return nil }

func atomicWriteFile(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, fmt.Sprintf(".tmp-%d", time.Now().UnixNano()))
	if err := os.WriteFile(tmp, data, perm); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	// Rename is atomic on the same filesystem.
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
