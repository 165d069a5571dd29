// Package backup periodically snapshots the SQLite database file and prunes
// old snapshots beyond a retention count.
//
// This is a collaborator of the store, not part of it: it copies the file
// from outside and has no interface back into the transaction core. With WAL
// mode a point-in-time file copy is a usable snapshot for a disaster-recovery
// backup of this size.
package backup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const filePrefix = "database_backup_"
const fileSuffix = ".sqlite"

// Scheduler copies the database file on an interval and keeps the most
// recent `keep` snapshots.
type Scheduler struct {
	dbPath   string
	dir      string
	interval time.Duration
	keep     int
	logger   *slog.Logger
}

func NewScheduler(dbPath, dir string, interval time.Duration, keep int, logger *slog.Logger) (*Scheduler, error) {
	if keep < 1 {
		keep = 1
	}
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("backup: creating backup dir: %w", err)
	}
	return &Scheduler{
		dbPath:   dbPath,
		dir:      dir,
		interval: interval,
		keep:     keep,
		logger:   logger,
	}, nil
}

// Run blocks, performing a backup every interval until ctx is cancelled.
// Call it in its own goroutine. Failures are logged and the next tick tries
// again — a missed backup must never take the server down.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Backup(); err != nil {
				s.logger.Error("backup failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Backup copies the database file into the backup directory and prunes old
// snapshots.
func (s *Scheduler) Backup() error {
	timestamp := time.Now().UTC().Format("2006-01-02T15-04-05")
	dst := filepath.Join(s.dir, filePrefix+timestamp+fileSuffix)

	if err := copyFile(s.dbPath, dst); err != nil {
		return err
	}

	s.logger.Info("backup created", slog.String("path", dst))
	return s.prune()
}

// prune deletes snapshots beyond the retention count, oldest first. The
// timestamped filenames sort lexicographically by creation time.
func (s *Scheduler) prune() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("backup: reading backup dir: %w", err)
	}

	var snapshots []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix) {
			snapshots = append(snapshots, name)
		}
	}

	if len(snapshots) <= s.keep {
		return nil
	}

	sort.Strings(snapshots)
	for _, name := range snapshots[:len(snapshots)-s.keep] {
		path := filepath.Join(s.dir, name)
		if err := os.Remove(path); err != nil {
			s.logger.Warn("failed to delete old backup",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("backup: opening source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("backup: creating snapshot: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("backup: copying database: %w", err)
	}
	return out.Close()
}
