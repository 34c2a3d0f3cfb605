package inmemory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dvloznov/edufin/internal/jobs"
)

// ErrJobNotFound is returned for unknown job ids.
var ErrJobNotFound = errors.New("job not found")

// Store is an in-memory JobStore. Values are copied in and out so callers
// never share state with the store.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*jobs.Job
}

// NewStore creates a new in-memory job store.
func NewStore() *Store {
	return &Store{
		jobs: make(map[string]*jobs.Job),
	}
}

func clone(j *jobs.Job) *jobs.Job {
	c := *j
	c.Payload = append([]byte(nil), j.Payload...)
	return &c
}

// SaveJob implements the JobStore interface.
func (s *Store) SaveJob(ctx context.Context, job *jobs.Job) error {
	if job.JobID == "" {
		return fmt.Errorf("job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[job.JobID] = clone(job)
	return nil
}

// GetJob implements the JobStore interface.
func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("GetJob %s: %w", jobID, ErrJobNotFound)
	}
	return clone(job), nil
}

// ListJobs implements the JobStore interface. Results are ordered by creation time.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*jobs.Job
	for _, job := range s.jobs {
		if filter.Type != "" && job.Type != filter.Type {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		result = append(result, clone(job))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*jobs.Job{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

// UpdateJobStatus implements the JobStore interface.
func (s *Store) UpdateJobStatus(ctx context.Context, jobID string, status jobs.JobStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return fmt.Errorf("UpdateJobStatus %s: %w", jobID, ErrJobNotFound)
	}

	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}
	return nil
}

var _ jobs.JobStore = (*Store)(nil)
