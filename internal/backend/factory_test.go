package backend

import (
	"context"
	"path/filepath"
	"testing"

	"grledger/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.Config
		want    BackendType
		wantErr bool
	}{
		{"nil config", nil, "", true},
		{"sqlite", &config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db"}, SQLiteBackend, false},
		{"files", &config.Config{DataBackend: "files", DataDir: "d"}, FilesBackend, false},
		{"unknown", &config.Config{DataBackend: "sheets"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAppConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromAppConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got.Type != tt.want {
				t.Errorf("Type = %s, want %s", got.Type, tt.want)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"files without dir", Config{Type: FilesBackend}, true},
		{"postgres without dsn", Config{Type: PostgresBackend}, true},
		{"postgres", Config{Type: PostgresBackend, PostgresDSN: "postgres://x"}, false},
		{"invalid", Config{Type: "nope"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	f := NewFactory(nil)

	tests := []struct {
		name      string
		cfg       Config
		wantPing  bool
		wantWatch bool
	}{
		{"memory", Config{Type: MemoryBackend}, false, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "l.db")}, true, false},
		{"files watched", Config{Type: FilesBackend, DataDirectory: filepath.Join(dir, "a"), WatchFiles: true}, false, true},
		{"files unwatched", Config{Type: FilesBackend, DataDirectory: filepath.Join(dir, "b")}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.CreateBackend(ctx, tt.cfg)
			if err != nil {
				t.Fatalf("CreateBackend() error = %v", err)
			}
			defer res.Cleanup()

			if (res.Ping != nil) != tt.wantPing {
				t.Errorf("Ping set = %v, want %v", res.Ping != nil, tt.wantPing)
			}
			if (res.Watch != nil) != tt.wantWatch {
				t.Errorf("Watch set = %v, want %v", res.Watch != nil, tt.wantWatch)
			}

			if err := res.Store.Put(ctx, "k", []byte(`[]`)); err != nil {
				t.Fatalf("Put: %v", err)
			}
			got, ok, err := res.Store.Get(ctx, "k")
			if err != nil || !ok || string(got) != "[]" {
				t.Errorf("Get = %q, %v, %v", got, ok, err)
			}
		})
	}
}
