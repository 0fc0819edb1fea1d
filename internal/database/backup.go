package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shareit/internal/config"

	"github.com/rs/zerolog"
)

const snapshotPrefix = "shareit_"

// SnapshotService periodically copies the live database into
// cfg.StoragePath and prunes copies older than the retention period.
type SnapshotService struct {
	db     *DB
	config config.BackupConfig
	logger *zerolog.Logger
	now    func() time.Time
}

func NewSnapshotService(db *DB, cfg config.BackupConfig, logger *zerolog.Logger) *SnapshotService {
	l := logger.With().Str("component", "snapshot").Logger()
	return &SnapshotService{
		db:     db,
		config: cfg,
		logger: &l,
		now:    time.Now,
	}
}

func (s *SnapshotService) interval() time.Duration {
	if s.config.Schedule == "" {
		return 24 * time.Hour
	}
	d, err := time.ParseDuration(s.config.Schedule)
	if err != nil || d <= 0 {
		s.logger.Warn().Err(err).Str("schedule", s.config.Schedule).Msg("Invalid snapshot schedule, using 24h")
		return 24 * time.Hour
	}
	return d
}

// Start blocks until ctx is done.
func (s *SnapshotService) Start(ctx context.Context) {
	if !s.config.Enabled {
		s.logger.Info().Msg("Snapshot service is disabled")
		return
	}
	if s.db.Path() == ":memory:" {
		s.logger.Warn().Msg("In-memory database, snapshots skipped")
		return
	}

	interval := s.interval()
	s.logger.Info().Dur("interval", interval).Str("path", s.config.StoragePath).Msg("Snapshot service started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Snapshot(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Scheduled snapshot failed")
			}
			s.Prune()
		}
	}
}

// Snapshot writes a consistent copy of the database and returns its path.
func (s *SnapshotService) Snapshot(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.config.StoragePath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	name := snapshotPrefix + s.now().UTC().Format("20060102_150405") + ".db"
	target := filepath.Join(s.config.StoragePath, name)
	if _, err := os.Stat(target); err == nil {
		return "", fmt.Errorf("snapshot %s already exists", target)
	}

	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", target); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	s.logger.Info().Str("path", target).Msg("Snapshot written")
	return target, nil
}

// Prune removes snapshots older than RetentionDays. Other files in the
// directory are left alone.
func (s *SnapshotService) Prune() int {
	if s.config.RetentionDays <= 0 {
		return 0
	}

	files, err := os.ReadDir(s.config.StoragePath)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read snapshot directory")
		return 0
	}

	cutoff := s.now().AddDate(0, 0, -s.config.RetentionDays)
	removed := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasPrefix(file.Name(), snapshotPrefix) {
			continue
		}
		info, err := file.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.config.StoragePath, file.Name())); err != nil {
			s.logger.Warn().Err(err).Str("file", file.Name()).Msg("Failed to remove old snapshot")
			continue
		}
		removed++
	}
	return removed
}
