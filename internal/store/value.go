package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"grledger/internal/storage"
)

// Value is a single optional record stored under one key. Clearing it
// deletes the blob.
type Value[T any] struct {
	key   string
	blobs storage.BlobStore

	mu  sync.RWMutex
	v   T
	set bool
}

func NewValue[T any](blobs storage.BlobStore, key string) *Value[T] {
	return &Value[T]{key: key, blobs: blobs}
}

func (v *Value[T]) Load(ctx context.Context) error {
	raw, ok, err := v.blobs.Get(ctx, v.key)
	if err != nil {
		return fmt.Errorf("load %s: %w", v.key, err)
	}

	var val T
	if ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &val); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrCorrupt, v.key, err)
		}
	} else {
		ok = false
	}

	v.mu.Lock()
	v.v, v.set = val, ok
	v.mu.Unlock()
	return nil
}

// Get returns the value and whether one is set.
func (v *Value[T]) Get() (T, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.v, v.set
}

func (v *Value[T]) Set(ctx context.Context, val T) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.v, v.set = val, true

	raw, err := json.Marshal(val)
	if err != nil {
		return &PersistError{Key: v.key, Err: err}
	}
	if err := v.blobs.Put(ctx, v.key, raw); err != nil {
		return &PersistError{Key: v.key, Err: err}
	}
	return nil
}

func (v *Value[T]) Clear(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	var zero T
	v.v, v.set = zero, false

	if err := v.blobs.Delete(ctx, v.key); err != nil {
		return &PersistError{Key: v.key, Err: err}
	}
	return nil
}
