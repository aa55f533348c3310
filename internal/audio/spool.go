package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Spool owns the directory that per-request audio files are written to.
// Callers get a scoped cleanup function for each file; a background sweeper
// removes anything a crashed request left behind.
type Spool struct {
	dir      string
	logger   *zap.Logger
	stopChan chan struct{}
}

// NewSpool creates the spool directory if needed. An empty dir defaults to a
// subdirectory of the system temp dir.
func NewSpool(dir string, logger *zap.Logger) (*Spool, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "audio-translator")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create spool directory: %w", err)
	}
	return &Spool{
		dir:      dir,
		logger:   logger,
		stopChan: make(chan struct{}),
	}, nil
}

// Dir returns the spool directory path.
func (s *Spool) Dir() string {
	return s.dir
}

// Write stores an uploaded clip under a unique name and returns the path
// together with a cleanup function that removes the file and any derived
// files sharing its stem. The cleanup function is safe to call on every
// exit path.
func (s *Spool) Write(data []byte, ext string) (string, func(), error) {
	if ext == "" {
		ext = ".wav"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	stem := uuid.New().String()
	path := filepath.Join(s.dir, stem+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", nil, fmt.Errorf("failed to spool audio clip: %w", err)
	}

	cleanup := func() {
		matches, err := filepath.Glob(filepath.Join(s.dir, stem+"*"))
		if err != nil {
			return
		}
		for _, m := range matches {
			if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
				s.logger.Warn("Failed to remove spooled file",
					zap.String("path", m),
					zap.Error(err))
			}
		}
	}

	return path, cleanup, nil
}

// Start begins the background sweep process
func (s *Spool) Start(interval, maxAge time.Duration) {
	go s.sweepLoop(interval, maxAge)
	s.logger.Info("Spool sweeper started",
		zap.String("dir", s.dir),
		zap.Duration("interval", interval),
		zap.Duration("maxAge", maxAge))
}

// Stop gracefully stops the sweeper
func (s *Spool) Stop() {
	close(s.stopChan)
	s.logger.Info("Spool sweeper stopped")
}

func (s *Spool) sweepLoop(interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.Sweep(maxAge)
		}
	}
}

// Sweep removes spooled files older than maxAge and returns how many were
// deleted. Requests in flight hold files far younger than any sane maxAge.
func (s *Spool) Sweep(maxAge time.Duration) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Error("Failed to read spool directory", zap.Error(err))
		return 0
	}

	removed := 0
	cutoff := time.Now().Add(-maxAge)
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
			s.logger.Warn("Failed to sweep stale file",
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info("Swept stale spooled files", zap.Int("removed", removed))
	}
	return removed
}
