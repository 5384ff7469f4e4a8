// Package files stores each blob as <key>.json in a directory and can watch
// that directory for edits made by other programs.
package files

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"grledger/internal/log"
)

const ext = ".json"

// settle is how long a file must stay quiet before a change is reported.
const settle = 300 * time.Millisecond

type Store struct {
	dir    string
	logger *log.Logger

	mu      sync.Mutex
	written map[string][32]byte // last content this process wrote per key
}

func New(dir string, logger *log.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir, logger: logger.WithComponent(log.ComponentStorage), written: make(map[string][32]byte)}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+ext)
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read blob %s: %w", key, err)
	}
	return b, true, nil
}

// Put writes to a temp file in the same directory and renames it over the
// target so readers never see a partial blob.
func (s *Store) Put(_ context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(s.dir, "."+key+"-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", key, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", key, err)
	}

	s.mu.Lock()
	s.written[key] = sha256.Sum256(value)
	s.mu.Unlock()

	if err := os.Rename(tmpName, s.path(key)); err != nil {
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.written, key)
	s.mu.Unlock()
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error { return nil }

// Watch calls onChange with the key of every blob file edited by someone
// other than this store, once the file has been quiet for a short while.
// It blocks until ctx is done.
func (s *Store) Watch(ctx context.Context, onChange func(key string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(s.dir); err != nil {
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}
	s.logger.Info("watching data directory", "dir", s.dir)

	pending := map[string]time.Time{}
	ticker := time.NewTicker(settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ext) {
				continue
			}
			pending[strings.TrimSuffix(name, ext)] = time.Now()
		case <-ticker.C:
			now := time.Now()
			for key, at := range pending {
				if now.Sub(at) < settle {
					continue
				}
				delete(pending, key)
				if s.external(key) {
					s.logger.Info("blob changed on disk", log.FieldBlobKey, key)
					onChange(key)
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watch error", log.FieldError, err)
		}
	}
}

// external reports whether the file for key differs from what this store
// last wrote.
func (s *Store) external(key string) bool {
	b, err := os.ReadFile(s.path(key))
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ours := s.written[key]
	if err != nil {
		return ours
	}
	return !ours || sha256.Sum256(b) != last
}
