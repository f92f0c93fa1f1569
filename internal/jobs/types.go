// Package jobs defines the background-job contracts for directory syncs.
// The abstractions allow swapping the in-memory queue for Cloud Tasks or
// Pub/Sub without touching handlers.
package jobs

import (
	"context"
	"time"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// SyncStocksJob refreshes the stock directory for one market.
type SyncStocksJob struct {
	JobID string `json:"job_id"`

	// Market is "krx" or "us".
	Market string `json:"market"`

	Status JobStatus `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Count is the number of directory rows written by a completed run.
	Count int `json:"count"`

	Error string `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Publisher enqueues sync jobs.
type Publisher interface {
	PublishSyncStocks(ctx context.Context, job *SyncStocksJob) error
	Close() error
}

// Consumer processes sync jobs.
type Consumer interface {
	Start(ctx context.Context, handler JobHandler) error
	Stop(ctx context.Context) error
}

// JobHandler processes one job. A returned error marks the job failed and
// eligible for retry.
type JobHandler func(ctx context.Context, job *SyncStocksJob) error

// JobStore tracks job state for status queries.
type JobStore interface {
	SaveJob(ctx context.Context, job *SyncStocksJob) error
	GetJob(ctx context.Context, jobID string) (*SyncStocksJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*SyncStocksJob, error)
}

// JobFilter narrows ListJobs results.
type JobFilter struct {
	Market string
	Status JobStatus
	Limit  int
	Offset int
}
