// Package jobs tracks asynchronous research work so HTTP requests return in
// milliseconds and clients poll for progress. The job table is the only
// shared mutable state in the service; every mutation goes through the
// queue's state-transition methods under one lock.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/aggregate"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/source"
)

// Status is a job lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

var (
	// ErrNotFound means the job id is unknown or the job was evicted.
	ErrNotFound = errors.New("job not found")
	// ErrNotReady means the result was requested before completion.
	ErrNotReady = errors.New("job not completed")
	// ErrInvalidState means a transition was attempted on a terminal job.
	ErrInvalidState = errors.New("job in terminal state")
	// ErrFailed wraps the stored cause of a failed job.
	ErrFailed = errors.New("job failed")
)

// Result is the payload of a completed job.
type Result struct {
	Response string          `json:"response"`
	Sources  []source.Source `json:"sources"`
	Metadata Metadata        `json:"metadata"`
}

// Metadata summarizes how the result was produced.
type Metadata struct {
	SourceCount       int              `json:"sourceCount"`
	AverageRelevance  float64          `json:"averageRelevance"`
	ProviderBreakdown aggregate.Counts `json:"providerBreakdown,omitempty"`
	ProcessingTime    string           `json:"processingTime,omitempty"`
}

// Job is one asynchronous unit of research+completion work.
type Job struct {
	ID        string
	Status    Status
	Progress  int
	Message   string
	Result    *Result
	Err       string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StatusView is the poll response: enough to drive a progress bar, nothing
// more.
type StatusView struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	Progress  int       `json:"progress"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Stats counts jobs by state for the monitoring endpoint.
type Stats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// Queue is the in-memory job table.
type Queue struct {
	mu        sync.Mutex
	jobs      map[string]*Job
	retention time.Duration
	log       *slog.Logger
}

func NewQueue(retention time.Duration, log *slog.Logger) *Queue {
	if retention <= 0 {
		retention = 15 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &Queue{
		jobs:      make(map[string]*Job),
		retention: retention,
		log:       log,
	}
}

// Create registers a new pending job and returns its id.
func (q *Queue) Create() string {
	id := uuid.NewString()
	now := time.Now()

	q.mu.Lock()
	q.jobs[id] = &Job{
		ID:        id,
		Status:    StatusPending,
		Message:   "Job created, waiting to start",
		CreatedAt: now,
		UpdatedAt: now,
	}
	q.mu.Unlock()

	q.log.Info("job created", "job", id)
	return id
}

// UpdateProgress records fractional progress. The first update moves a
// pending job to processing. Progress never regresses: an out-of-order
// update is clamped to the current value rather than applied.
func (q *Queue) UpdateProgress(id string, percent int, message string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if job.Status.Terminal() {
		return fmt.Errorf("updating %s job: %w", job.Status, ErrInvalidState)
	}

	if job.Status == StatusPending {
		job.Status = StatusProcessing
	}
	if percent > 100 {
		percent = 100
	}
	if percent > job.Progress {
		job.Progress = percent
	}
	job.Message = message
	job.UpdatedAt = time.Now()
	return nil
}

// Complete stores the result and moves the job to its terminal completed
// state. Completing a terminal job is a programming defect.
func (q *Queue) Complete(id string, result Result) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if job.Status.Terminal() {
		return fmt.Errorf("completing %s job: %w", job.Status, ErrInvalidState)
	}

	job.Status = StatusCompleted
	job.Progress = 100
	job.Message = "Job completed successfully"
	job.Result = &result
	job.UpdatedAt = time.Now()

	q.log.Info("job completed", "job", id,
		"duration", job.UpdatedAt.Sub(job.CreatedAt).Round(time.Millisecond))
	return nil
}

// Fail moves the job to failed from any non-terminal state. Failing an
// already-failed job is a no-op; failing a completed one is invalid.
func (q *Queue) Fail(id string, cause string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if job.Status == StatusFailed {
		return nil
	}
	if job.Status == StatusCompleted {
		return fmt.Errorf("failing completed job: %w", ErrInvalidState)
	}

	job.Status = StatusFailed
	job.Message = "Job failed"
	job.Err = cause
	job.UpdatedAt = time.Now()

	q.log.Warn("job failed", "job", id, "error", cause)
	return nil
}

// Status returns the poll view for a job.
func (q *Queue) Status(id string) (StatusView, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return StatusView{}, ErrNotFound
	}
	return StatusView{
		ID:        job.ID,
		Status:    job.Status,
		Progress:  job.Progress,
		Message:   job.Message,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}, nil
}

// Result returns the completed payload, ErrNotReady while the job is still
// running, or the stored failure for failed jobs.
func (q *Queue) Result(id string) (Result, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return Result{}, ErrNotFound
	}
	switch job.Status {
	case StatusCompleted:
		return *job.Result, nil
	case StatusFailed:
		return Result{}, fmt.Errorf("%w: %s", ErrFailed, job.Err)
	default:
		return Result{}, ErrNotReady
	}
}

// Stats returns counts by status.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	s := Stats{Total: len(q.jobs)}
	for _, job := range q.jobs {
		switch job.Status {
		case StatusPending:
			s.Pending++
		case StatusProcessing:
			s.Processing++
		case StatusCompleted:
			s.Completed++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}

// Sweep evicts jobs older than the retention window regardless of status and
// returns how many were removed. Abandoned polls must not grow the table
// forever.
func (q *Queue) Sweep() int {
	cutoff := time.Now().Add(-q.retention)

	q.mu.Lock()
	defer q.mu.Unlock()

	evicted := 0
	for id, job := range q.jobs {
		if job.CreatedAt.Before(cutoff) {
			delete(q.jobs, id)
			evicted++
		}
	}
	if evicted > 0 {
		q.log.Info("evicted old jobs", "count", evicted)
	}
	return evicted
}

// Run sweeps periodically until the context is cancelled.
func (q *Queue) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.Sweep()
		}
	}
}
