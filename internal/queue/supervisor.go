package queue

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/codebuildervaibhav/topic-clipper/internal/logger"
	"github.com/codebuildervaibhav/topic-clipper/internal/types"
)

// JobRunner executes one job to a terminal state
type JobRunner interface {
	Run(ctx context.Context, jobID string)
}

// Supervisor accepts submissions and runs each job on its own goroutine
type Supervisor struct {
	store    *Store
	runner   JobRunner
	prefixes []string
	sem      *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSupervisor creates a supervisor accepting URLs that start with one of
// prefixes. maxConcurrent <= 0 means every job starts immediately.
func NewSupervisor(store *Store, runner JobRunner, prefixes []string, maxConcurrent int) *Supervisor {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Supervisor{
		store:    store,
		runner:   runner,
		prefixes: append([]string(nil), prefixes...),
		ctx:      ctx,
		cancel:   cancel,
	}
	if maxConcurrent > 0 {
		s.sem = semaphore.NewWeighted(int64(maxConcurrent))
	}
	return s
}

// Submit validates sourceURL, creates a queued job and starts processing it
// in the background. Invalid sources are rejected before any job exists.
func (s *Supervisor) Submit(sourceURL string) (string, error) {
	sourceURL = strings.TrimSpace(sourceURL)
	if !s.accepts(sourceURL) {
		return "", fmt.Errorf("%w: %q", types.ErrInvalidSource, sourceURL)
	}

	id := s.store.Create(sourceURL)
	logger.WithJob(id).Infof("Job submitted (source: %s)", sourceURL)

	s.wg.Add(1)
	go s.run(id)
	return id, nil
}

func (s *Supervisor) run(id string) {
	defer s.wg.Done()

	if s.sem != nil {
		if err := s.sem.Acquire(s.ctx, 1); err != nil {
			// shutting down before a slot freed up
			if failErr := s.store.Fail(id, types.ErrCancelled.Error()); failErr != nil {
				logger.WithJob(id).Warnf("Failed to cancel queued job: %v", failErr)
			}
			return
		}
		defer s.sem.Release(1)
	}

	s.runner.Run(s.ctx, id)
}

func (s *Supervisor) accepts(sourceURL string) bool {
	if sourceURL == "" {
		return false
	}
	for _, p := range s.prefixes {
		if strings.HasPrefix(sourceURL, p) && len(sourceURL) > len(p) {
			return true
		}
	}
	return false
}

// Status returns the current snapshot of a job
func (s *Supervisor) Status(id string) (types.Job, error) {
	return s.store.Get(id)
}

// Jobs returns every known job, newest first
func (s *Supervisor) Jobs() []types.Job {
	return s.store.List()
}

// Shutdown cancels running jobs and waits for their goroutines to exit or ctx to expire
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
