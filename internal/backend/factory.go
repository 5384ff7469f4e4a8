package backend

import (
	"context"
	"fmt"

	"grledger/internal/log"
	"grledger/internal/storage"
	"grledger/internal/storage/files"
	"grledger/internal/storage/memory"
	"grledger/internal/storage/postgres"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case FilesBackend:
		return f.createFilesBackend(config)
	case PostgresBackend:
		return f.createPostgresBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	store, err := storage.NewSQLiteStore(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:   store,
		Cleanup: store.Close,
		Ping:    store.Ping,
	}, nil
}

func (f *DefaultFactory) createFilesBackend(config Config) (*BackendResult, error) {
	store, err := files.New(config.DataDirectory, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize files store: %w", err)
	}

	res := &BackendResult{Store: store, Cleanup: store.Close}
	if config.WatchFiles {
		res.Watch = store.Watch
	}

	f.logger.Info("Initialized files backend",
		"data_directory", config.DataDirectory,
		"watch", config.WatchFiles)

	return res, nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := postgres.Open(config.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres store: %w", err)
	}
	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("postgres not reachable: %w", err)
	}

	f.logger.Info("Initialized postgres backend")

	return &BackendResult{
		Store:   store,
		Cleanup: store.Close,
		Ping:    store.Ping,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store := memory.New(config.MemoryQuota)

	f.logger.Warn("Initialized memory backend, data will not survive a restart")

	return &BackendResult{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}
