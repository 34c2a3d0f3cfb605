package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeRecordPayment writes a settled payment to the payment ledger.
	JobTypeRecordPayment JobType = "record_payment"
	// JobTypeNotifyPayment announces a settled payment on the notification channel.
	JobTypeNotifyPayment JobType = "notify_payment"
	// JobTypeArchiveSlip stores a generated salary slip in the archive bucket.
	JobTypeArchiveSlip JobType = "archive_slip"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is being retried.
	JobStatusRetrying JobStatus = "retrying"
)

// DefaultMaxRetries applies when a job is published without MaxRetries.
const DefaultMaxRetries = 3

// Job is a unit of background work with a JSON payload.
type Job struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// Type selects the handler.
	Type JobType `json:"type"`

	// Payload is the type-specific body, decoded by the handler.
	Payload json.RawMessage `json:"payload"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the job started processing.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the job completed (success or failure).
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	// RetryCount is the number of times this job has been retried.
	RetryCount int `json:"retry_count"`

	// MaxRetries is the maximum number of retries allowed.
	MaxRetries int `json:"max_retries"`
}

// NewJob marshals payload into a pending job of type t.
func NewJob(t JobType, payload any) (*Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("NewJob: marshal %s payload: %w", t, err)
	}
	return &Job{Type: t, Payload: raw, Status: JobStatusPending}, nil
}

// Decode unmarshals the payload into v.
func (j *Job) Decode(v any) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return fmt.Errorf("Decode: %s payload of job %s: %w", j.Type, j.JobID, err)
	}
	return nil
}

// Publisher defines the interface for publishing jobs to a queue.
// This abstraction allows for different queue implementations (in-memory, Pub/Sub).
type Publisher interface {
	// Publish enqueues a job.
	Publish(ctx context.Context, job *Job) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler is a function that processes a job.
// It should return an error if the job failed and should be retried.
type JobHandler func(ctx context.Context, job *Job) error

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *Job) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*Job, error)

	// ListJobs retrieves jobs with optional filtering.
	ListJobs(ctx context.Context, filter JobFilter) ([]*Job, error)

	// UpdateJobStatus updates the status of a job.
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// Type filters jobs by type.
	Type JobType

	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
