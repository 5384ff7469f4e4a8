// Package memory is an in-process blob store. It can emulate a storage quota
// so that persistence failures can be exercised without a real backend.
package memory

import (
	"context"
	"fmt"
	"sync"

	"grledger/internal/storage"
)

type Store struct {
	mu    sync.Mutex
	blobs map[string][]byte
	quota int
	fail  error
	puts  int
}

// New returns an empty store. quota limits the total stored bytes; 0 means
// unlimited.
func New(quota int) *Store {
	return &Store{blobs: make(map[string][]byte), quota: quota}
}

// Seed stores raw blobs as-is, bypassing the quota.
func (s *Store) Seed(blobs map[string][]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range blobs {
		s.blobs[k] = append([]byte(nil), v...)
	}
}

// FailWrites makes every following Put and Delete return err until it is
// called again with nil.
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

// Puts reports how many writes succeeded.
func (s *Store) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.blobs[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	if s.quota > 0 {
		used := len(value)
		for k, v := range s.blobs {
			if k != key {
				used += len(v)
			}
		}
		if used > s.quota {
			return fmt.Errorf("put %s (%d bytes): %w", key, len(value), storage.ErrQuotaExceeded)
		}
	}
	s.blobs[key] = append([]byte(nil), value...)
	s.puts++
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	delete(s.blobs, key)
	return nil
}

func (s *Store) Close() error { return nil }
