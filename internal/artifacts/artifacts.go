// Package artifacts manages the temporary files a pipeline run produces:
// narration audio, the rendered frame, and the muxed video. Names are
// derived from random UUIDs so concurrent processes can never collide, and
// a sweep removes anything a crashed run left behind.
package artifacts

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Store hands out artifact paths inside a single working directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates the working directory if needed and returns a store.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("artifact directory required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the working directory.
func (s *Store) Dir() string { return s.dir }

// NewPath returns a fresh collision-resistant path with the given
// extension (without the dot). The file is not created.
func (s *Store) NewPath(ext string) string {
	return filepath.Join(s.dir, uuid.NewString()+"."+ext)
}

// Remove deletes an artifact, logging rather than escalating failures.
// Removing a path that is already gone is not an error.
func (s *Store) Remove(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove artifact", slog.String("path", path), slog.String("error", err.Error()))
	}
}

// Sweep deletes regular files in the working directory older than maxAge
// and returns how many were removed. Subdirectories are left alone.
func (s *Store) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read artifact directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			s.logger.Warn("failed to sweep artifact", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info("swept stale artifacts", slog.Int("removed", removed), slog.String("dir", s.dir))
	}
	return removed, nil
}
