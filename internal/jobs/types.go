package jobs

import (
	"context"
	"time"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeProcessObligation represents processing of one due obligation.
	JobTypeProcessObligation JobType = "process_obligation"
)

// ObligationKind distinguishes the two obligation sources.
type ObligationKind string

const (
	// ObligationRecurring is a recurring payment occurrence.
	ObligationRecurring ObligationKind = "recurring"
	// ObligationBill is a bill reminder payment.
	ObligationBill ObligationKind = "bill"
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

// ObligationJob represents processing one due obligation for one owner.
type ObligationJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// OwnerID scopes the job to one owner's ledger.
	OwnerID string `json:"owner_id"`

	// Kind says whether ObligationID names a recurring payment or a bill.
	Kind ObligationKind `json:"kind"`

	// ObligationID is the remote id of the obligation to process.
	ObligationID string `json:"obligation_id"`

	// DueDate is the occurrence date the job was enqueued for. Processing
	// skips a recurring payment whose NextDate has already moved past it,
	// so a duplicate enqueue of the same occurrence is a no-op. Zero means
	// process unconditionally (explicit user trigger).
	DueDate time.Time `json:"due_date,omitempty"`

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

// Job is a generic interface for all job types.
type Job interface {
	// GetID returns the unique job identifier.
	GetID() string

	// GetType returns the job type.
	GetType() JobType

	// GetStatus returns the current job status.
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *ObligationJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *ObligationJob) GetType() JobType {
	return JobTypeProcessObligation
}

// GetStatus implements the Job interface.
func (j *ObligationJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	// PublishObligation publishes an obligation processing job.
	PublishObligation(ctx context.Context, job *ObligationJob) error

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
type JobHandler func(ctx context.Context, job Job) error

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *ObligationJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*ObligationJob, error)

	// ListJobs retrieves jobs with optional filtering.
	ListJobs(ctx context.Context, filter JobFilter) ([]*ObligationJob, error)
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// OwnerID filters jobs by owner.
	OwnerID string

	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
