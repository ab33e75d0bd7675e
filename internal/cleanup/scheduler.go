// Package cleanup removes stale job workspaces and retained clips from the temp directory.
package cleanup

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/codebuildervaibhav/topic-clipper/internal/logger"
)

// Scheduler periodically sweeps the temp directory
type Scheduler struct {
	tempDir  string
	clipsDir string
	interval time.Duration
	maxAge   time.Duration
	now      func() time.Time

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewScheduler creates a new cleanup scheduler. clipsDir holds one staging
// directory per job.
func NewScheduler(tempDir, clipsDir string, intervalMinutes, maxAgeHours int) *Scheduler {
	return &Scheduler{
		tempDir:  tempDir,
		clipsDir: clipsDir,
		interval: time.Duration(intervalMinutes) * time.Minute,
		maxAge:   time.Duration(maxAgeHours) * time.Hour,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
}

// Start runs an initial sweep, then sweeps every interval until Stop
func (s *Scheduler) Start() {
	logger.Info("Running initial temp directory cleanup...")
	s.Sweep()

	if s.interval <= 0 {
		logger.Warn("Cleanup interval is zero, periodic cleanup disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()

	logger.Infof("Cleanup scheduler started (interval: %s, max age: %s)", s.interval, s.maxAge)
}

// Stop stops the cleanup scheduler
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		logger.Info("Cleanup scheduler stopped")
	})
}

// Sweep removes job workspaces and clip staging directories older than the
// max age and returns how many entries were deleted. Workspaces of running
// jobs are younger than any sensible max age and are left alone.
func (s *Scheduler) Sweep() int {
	cutoff := s.now().Add(-s.maxAge)
	deleted := 0

	deleted += s.sweepDir(s.tempDir, cutoff, func(e os.DirEntry) bool {
		return e.IsDir() && strings.HasPrefix(e.Name(), "job-")
	})
	deleted += s.sweepDir(s.clipsDir, cutoff, func(e os.DirEntry) bool {
		return true
	})

	if deleted > 0 {
		logger.Infof("Cleanup complete: %d stale entries deleted", deleted)
	}
	return deleted
}

func (s *Scheduler) sweepDir(dir string, cutoff time.Time, match func(os.DirEntry) bool) int {
	if dir == "" {
		return 0
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warnf("Error during cleanup of %s: %v", dir, err)
		}
		return 0
	}

	deleted := 0
	for _, e := range entries {
		if !match(e) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(dir, e.Name())
		if err := os.RemoveAll(path); err != nil {
			logger.Warnf("Failed to delete %s: %v", path, err)
			continue
		}
		deleted++
		logger.Debugf("Deleted stale entry: %s (age: %s)", path, s.now().Sub(info.ModTime()).Round(time.Minute))
	}
	return deleted
}

// EnsureDirs creates the given directories if they don't exist
func EnsureDirs(dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		logger.Debugf("Directory ready: %s", dir)
	}
	return nil
}
