package queue

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codebuildervaibhav/topic-clipper/internal/types"
)

// Store is the concurrency-safe registry of jobs. It is the only state shared
// between pipeline goroutines and request handlers.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*types.Job
	now  func() time.Time
}

// NewStore creates an empty job store
func NewStore() *Store {
	return &Store{
		jobs: make(map[string]*types.Job),
		now:  time.Now,
	}
}

// Create inserts a new queued job for sourceURL and returns its id
func (s *Store) Create(sourceURL string) string {
	id := uuid.New().String()
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[id] = &types.Job{
		ID:        id,
		SourceURL: sourceURL,
		Status:    types.StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
		Clips:     []types.ClipRef{},
	}
	return id
}

// Get returns a snapshot of the job
func (s *Store) Get(id string) (types.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return types.Job{}, types.ErrNotFound
	}
	return job.Clone(), nil
}

// Update applies mutate to a copy of the job and commits it atomically.
// Nothing is written when mutate returns an error or the result breaks
// the state machine.
func (s *Store) Update(id string, mutate func(*types.Job) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.jobs[id]
	if !ok {
		return types.ErrNotFound
	}

	next := current.Clone()
	if err := mutate(&next); err != nil {
		return err
	}
	if err := checkTransition(current, &next); err != nil {
		return err
	}

	next.UpdatedAt = s.now()
	s.jobs[id] = &next
	return nil
}

// checkTransition enforces the job invariants between two versions of a record
func checkTransition(prev, next *types.Job) error {
	if next.ID != prev.ID || !next.CreatedAt.Equal(prev.CreatedAt) || next.SourceURL != prev.SourceURL {
		return fmt.Errorf("%w: identity fields are immutable", types.ErrInvalidTransition)
	}
	if next.Status != prev.Status && !prev.Status.CanTransitionTo(next.Status) {
		return fmt.Errorf("%w: %s -> %s", types.ErrInvalidTransition, prev.Status, next.Status)
	}
	if prev.Status.IsTerminal() {
		return fmt.Errorf("%w: job is already %s", types.ErrInvalidTransition, prev.Status)
	}
	if (next.Status == types.StatusFailed) != (next.Error != "") {
		return fmt.Errorf("%w: error must be set exactly when failed", types.ErrInvalidTransition)
	}
	if len(next.Clips) > 0 && next.Status != types.StatusCompleted {
		return fmt.Errorf("%w: clips may only be set on completion", types.ErrInvalidTransition)
	}
	return nil
}

// Advance moves the job to a later non-terminal stage
func (s *Store) Advance(id string, status types.JobStatus) error {
	if status.IsTerminal() {
		return fmt.Errorf("%w: use Complete or Fail for %s", types.ErrInvalidTransition, status)
	}
	return s.Update(id, func(j *types.Job) error {
		j.Status = status
		return nil
	})
}

// Complete marks the job completed with its clips in a single step
func (s *Store) Complete(id string, clips []types.ClipRef) error {
	return s.Update(id, func(j *types.Job) error {
		j.Status = types.StatusCompleted
		j.Clips = append([]types.ClipRef{}, clips...)
		return nil
	})
}

// Fail marks the job failed with a diagnostic in a single step
func (s *Store) Fail(id string, diagnostic string) error {
	if diagnostic == "" {
		diagnostic = "unknown error"
	}
	return s.Update(id, func(j *types.Job) error {
		j.Status = types.StatusFailed
		j.Error = diagnostic
		j.Clips = []types.ClipRef{}
		return nil
	})
}

// List returns snapshots of all jobs, newest first
func (s *Store) List() []types.Job {
	s.mu.RLock()
	out := make([]types.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Len returns the number of jobs
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
