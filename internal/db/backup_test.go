package db

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestBackupRunner(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	if err := os.WriteFile(dbPath, []byte("payload"), 0o644); err != nil {
		t.Fatalf("write db file: %v", err)
	}

	storage := filepath.Join(dir, "backups")
	logger := zerolog.New(io.Discard)
	runner := NewBackupRunner(dbPath, BackupOptions{
		Enabled:     true,
		StoragePath: storage,
	}, &logger)

	if err := runner.Backup(); err != nil {
		t.Fatalf("Backup() error = %v", err)
	}

	files, err := os.ReadDir(storage)
	if err != nil {
		t.Fatalf("read backup dir: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("got %d backup files, want 1", len(files))
	}

	data, err := os.ReadFile(filepath.Join(storage, files[0].Name()))
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("backup content = %q, want %q", data, "payload")
	}
}

func TestBackupRunnerMissingSource(t *testing.T) {
	dir := t.TempDir()
	logger := zerolog.New(io.Discard)
	runner := NewBackupRunner(filepath.Join(dir, "missing.db"), BackupOptions{
		Enabled:     true,
		StoragePath: filepath.Join(dir, "backups"),
	}, &logger)

	if err := runner.Backup(); err == nil {
		t.Error("Backup() of a missing file should fail")
	}
}
