package db

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// BackupOptions configures the periodic sqlite file backup.
type BackupOptions struct {
	Enabled       bool
	Interval      time.Duration
	StoragePath   string
	RetentionDays int
}

// BackupRunner copies the database file to a timestamped backup on a fixed
// interval and prunes backups older than the retention window.
type BackupRunner struct {
	dbPath string
	opts   BackupOptions
	logger *zerolog.Logger
}

func NewBackupRunner(dbPath string, opts BackupOptions, logger *zerolog.Logger) *BackupRunner {
	if opts.Interval <= 0 {
		opts.Interval = 24 * time.Hour
	}
	return &BackupRunner{dbPath: dbPath, opts: opts, logger: logger}
}

// Start runs the backup loop until the context is canceled. The first backup
// runs immediately.
func (r *BackupRunner) Start(ctx context.Context) {
	if !r.opts.Enabled {
		r.logger.Info().Msg("database backup disabled")
		return
	}

	r.logger.Info().
		Dur("interval", r.opts.Interval).
		Str("path", r.opts.StoragePath).
		Msg("database backup started")

	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()

	if err := r.Backup(); err != nil {
		r.logger.Error().Err(err).Msg("initial backup failed")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Backup(); err != nil {
				r.logger.Error().Err(err).Msg("scheduled backup failed")
			}
			r.prune()
		}
	}
}

// Backup copies the database file into the storage directory.
func (r *BackupRunner) Backup() error {
	if err := os.MkdirAll(r.opts.StoragePath, 0o755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	name := fmt.Sprintf("backup_%s.db", time.Now().Format("20060102_150405"))
	dst := filepath.Join(r.opts.StoragePath, name)

	source, err := os.Open(r.dbPath)
	if err != nil {
		return fmt.Errorf("open database file: %w", err)
	}
	defer source.Close()

	destination, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create backup file: %w", err)
	}
	defer destination.Close()

	if _, err := io.Copy(destination, source); err != nil {
		return fmt.Errorf("copy database: %w", err)
	}

	r.logger.Info().Str("path", dst).Msg("backup completed")
	return nil
}

func (r *BackupRunner) prune() {
	if r.opts.RetentionDays <= 0 {
		return
	}

	files, err := os.ReadDir(r.opts.StoragePath)
	if err != nil {
		r.logger.Error().Err(err).Msg("read backup directory for cleanup")
		return
	}

	cutoff := time.Now().AddDate(0, 0, -r.opts.RetentionDays)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		info, err := file.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			r.logger.Info().Str("file", file.Name()).Msg("deleting old backup")
			os.Remove(filepath.Join(r.opts.StoragePath, file.Name()))
		}
	}
}
