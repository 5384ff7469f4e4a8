// Package store keeps ordered record collections in memory and writes each
// collection back to its blob on every change.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"grledger/internal/storage"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrCorrupt  = errors.New("stored blob is not valid JSON")
)

// PersistError reports that a mutation was applied in memory but could not
// be written to the backend. The in-memory collection stays authoritative.
type PersistError struct {
	Key string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Key, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// IsPersistError reports whether err carries a *PersistError.
func IsPersistError(err error) bool {
	var pe *PersistError
	return errors.As(err, &pe)
}

// Collection is the list of records stored under one blob key.
type Collection[T any] struct {
	key   string
	blobs storage.BlobStore
	idOf  func(T) string
	seed  func() []T

	mu      sync.RWMutex
	records []T
}

// NewCollection returns an empty collection. seed supplies the records used
// when the blob does not exist yet; nil means an empty list.
func NewCollection[T any](blobs storage.BlobStore, key string, idOf func(T) string, seed func() []T) *Collection[T] {
	return &Collection[T]{key: key, blobs: blobs, idOf: idOf, seed: seed}
}

func (c *Collection[T]) Key() string { return c.key }

// Load replaces the in-memory records with the stored blob. A missing blob
// yields the seed. A blob that does not decode leaves the collection as it
// was.
func (c *Collection[T]) Load(ctx context.Context) error {
	raw, ok, err := c.blobs.Get(ctx, c.key)
	if err != nil {
		return fmt.Errorf("load %s: %w", c.key, err)
	}

	var recs []T
	switch {
	case !ok:
		if c.seed != nil {
			recs = c.seed()
		}
	default:
		if err := json.Unmarshal(raw, &recs); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrCorrupt, c.key, err)
		}
	}

	c.mu.Lock()
	c.records = recs
	c.mu.Unlock()
	return nil
}

// List returns a copy of the records in insertion order.
func (c *Collection[T]) List() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := slices.Clone(c.records)
	if out == nil {
		out = []T{}
	}
	return out
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.index(id); i >= 0 {
		return c.records[i], true
	}
	var zero T
	return zero, false
}

// Upsert replaces the record with the same id in place or appends it. It
// reports whether the record was new.
func (c *Collection[T]) Upsert(ctx context.Context, rec T) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := slices.Clone(c.records)
	created := true
	if i := c.index(c.idOf(rec)); i >= 0 {
		next[i] = rec
		created = false
	} else {
		next = append(next, rec)
	}
	c.records = next
	return created, c.persist(ctx)
}

// Remove deletes the record with id. ErrNotFound leaves everything unchanged.
func (c *Collection[T]) Remove(ctx context.Context, id string) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(id)
	if i < 0 {
		var zero T
		return zero, ErrNotFound
	}
	removed := c.records[i]
	c.records = slices.Delete(slices.Clone(c.records), i, i+1)
	return removed, c.persist(ctx)
}

// Replace swaps the whole collection.
func (c *Collection[T]) Replace(ctx context.Context, recs []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = slices.Clone(recs)
	return c.persist(ctx)
}

func (c *Collection[T]) index(id string) int {
	return slices.IndexFunc(c.records, func(r T) bool { return c.idOf(r) == id })
}

// persist must be called with mu held.
func (c *Collection[T]) persist(ctx context.Context) error {
	recs := c.records
	if recs == nil {
		recs = []T{}
	}
	raw, err := json.Marshal(recs)
	if err != nil {
		return &PersistError{Key: c.key, Err: err}
	}
	if err := c.blobs.Put(ctx, c.key, raw); err != nil {
		return &PersistError{Key: c.key, Err: err}
	}
	return nil
}
