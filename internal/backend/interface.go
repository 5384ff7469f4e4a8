package backend

import (
	"context"

	"grledger/internal/storage"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// WatchFunc blocks until ctx is done, calling onChange with the key of every
// blob that was modified outside this process.
type WatchFunc func(ctx context.Context, onChange func(key string)) error

// BackendResult contains the blob store and its optional extras.
type BackendResult struct {
	Store   storage.BlobStore
	Cleanup CleanupFunc
	// Ping is nil for backends that are always ready.
	Ping func(ctx context.Context) error
	// Watch is nil for backends that cannot see foreign edits.
	Watch WatchFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Files specific
	DataDirectory string
	WatchFiles    bool

	// Postgres specific
	PostgresDSN string

	// Memory specific, 0 means unlimited
	MemoryQuota int
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	FilesBackend    BackendType = "files"
	MemoryBackend   BackendType = "memory"
	PostgresBackend BackendType = "postgres"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, FilesBackend, MemoryBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
