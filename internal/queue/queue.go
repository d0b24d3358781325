// Package queue owns job lifecycle: a strictly FIFO, single-lane queue where
// exactly one job is in flight at a time. The pending list and the
// in-flight marker are guarded by one mutex so the submit-time and
// completion-time scheduling triggers are atomic and idempotent.
package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/justintanner/short-video-maker/internal/domain"
	"github.com/justintanner/short-video-maker/internal/metrics"
	"github.com/justintanner/short-video-maker/internal/storage"
	"github.com/justintanner/short-video-maker/internal/tempfiles"
)

// ErrJobNotFound indicates the job id is neither queued, in flight, nor
// present as persisted output.
var ErrJobNotFound = errors.New("queue: job not found")

// ErrJobInFlight indicates the job cannot be deleted while it is processing.
var ErrJobInFlight = errors.New("queue: job is processing")

// Processor runs one dequeued job to completion.
type Processor interface {
	Process(ctx context.Context, job *domain.Job) error
}

// Summary is one row of the job listing.
type Summary struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Queue is the single-lane job queue.
type Queue struct {
	mu       sync.Mutex
	pending  []*domain.Job
	current  *domain.Job
	finished map[string]*domain.Job

	processor Processor
	tracker   *tempfiles.Tracker
	store     *storage.FileStore
	metrics   *metrics.Recorder
	logger    zerolog.Logger
	ctx       context.Context
	wg        sync.WaitGroup
}

// New constructs the queue. ctx bounds the lifetime of job processing; a
// dequeued job otherwise runs to a terminal state.
func New(ctx context.Context, processor Processor, tracker *tempfiles.Tracker, store *storage.FileStore, recorder *metrics.Recorder, logger zerolog.Logger) *Queue {
	return &Queue{
		finished:  make(map[string]*domain.Job),
		processor: processor,
		tracker:   tracker,
		store:     store,
		metrics:   recorder,
		logger:    logger.With().Str("component", "queue").Logger(),
		ctx:       ctx,
	}
}

// Submit validates and enqueues a new job, returning its id immediately.
// Scheduling begins asynchronously when no job is currently processing.
func (q *Queue) Submit(scenes []domain.SceneSpec, cfg domain.RenderConfig) (string, error) {
	if len(scenes) == 0 {
		return "", fmt.Errorf("queue: at least one scene is required")
	}
	for i, scene := range scenes {
		if strings.TrimSpace(scene.Text) == "" {
			return "", fmt.Errorf("queue: scene %d has no narration text", i)
		}
	}
	if cfg.Orientation == "" {
		cfg.Orientation = domain.OrientationPortrait
	}

	job := &domain.Job{
		ID:        uuid.NewString(),
		Scenes:    scenes,
		Config:    cfg,
		Status:    domain.JobStatusQueued,
		CreatedAt: time.Now(),
	}

	q.mu.Lock()
	q.pending = append(q.pending, job)
	q.startNextLocked()
	q.mu.Unlock()

	q.logger.Info().Str("job_id", job.ID).Int("scenes", len(scenes)).Msg("job submitted")
	return job.ID, nil
}

// startNextLocked dequeues and starts the next job if the lane is free. It
// is the only dequeue path and must be called with the mutex held; calling
// it while a job is in flight is a no-op, which makes the submit-time and
// completion-time triggers safely overlapping.
func (q *Queue) startNextLocked() {
	if q.current != nil || len(q.pending) == 0 {
		return
	}
	job := q.pending[0]
	q.pending = q.pending[1:]
	job.Status = domain.JobStatusProcessing
	q.current = job

	q.wg.Add(1)
	go q.run(job)
}

// run drives one job to a terminal state. Temp resources are released at
// this boundary exactly once, success or failure, and the next job starts
// immediately after.
func (q *Queue) run(job *domain.Job) {
	defer q.wg.Done()
	started := time.Now()
	q.logger.Info().Str("job_id", job.ID).Msg("job started")

	err := q.processor.Process(q.ctx, job)
	q.tracker.ReleaseAll(job.ID)

	status := domain.JobStatusReady
	var jobErr *domain.JobError
	if err != nil {
		status = domain.JobStatusFailed
		jobErr = domain.Classify(err)
		q.logger.Error().Err(err).
			Str("job_id", job.ID).
			Str("kind", string(jobErr.Kind)).
			Msg("job failed")
	} else {
		q.logger.Info().
			Str("job_id", job.ID).
			Dur("took", time.Since(started)).
			Msg("job ready")
	}
	q.metrics.JobFinished(string(status), time.Since(started).Seconds())

	q.mu.Lock()
	job.Status = status
	job.Error = jobErr
	q.finished[job.ID] = job
	q.current = nil
	q.startNextLocked()
	q.mu.Unlock()
}

// Status returns the job's status. Jobs from earlier runs of the process are
// discovered through their persisted output.
func (q *Queue) Status(jobID string) (domain.JobStatus, error) {
	status, _, err := q.StatusDetail(jobID)
	return status, err
}

// StatusDetail returns the job's status plus its structured error when the
// job failed. The read is non-blocking.
func (q *Queue) StatusDetail(jobID string) (domain.JobStatus, *domain.JobError, error) {
	q.mu.Lock()
	if q.current != nil && q.current.ID == jobID {
		q.mu.Unlock()
		return domain.JobStatusProcessing, nil, nil
	}
	for _, job := range q.pending {
		if job.ID == jobID {
			q.mu.Unlock()
			return domain.JobStatusQueued, nil, nil
		}
	}
	if job, ok := q.finished[jobID]; ok {
		q.mu.Unlock()
		return job.Status, job.Error, nil
	}
	q.mu.Unlock()

	if q.store.OutputExists(jobID) {
		return domain.JobStatusReady, nil, nil
	}
	return "", nil, ErrJobNotFound
}

// List enumerates queued, in-flight, and completed jobs. Completed jobs are
// discovered by scanning persisted output, so videos from earlier runs of
// the process are included.
func (q *Queue) List() ([]Summary, error) {
	q.mu.Lock()
	seen := make(map[string]struct{})
	var out []Summary
	if q.current != nil {
		out = append(out, Summary{ID: q.current.ID, Status: q.current.Status.External()})
		seen[q.current.ID] = struct{}{}
	}
	for _, job := range q.pending {
		out = append(out, Summary{ID: job.ID, Status: job.Status.External()})
		seen[job.ID] = struct{}{}
	}
	for _, job := range q.finished {
		out = append(out, Summary{ID: job.ID, Status: job.Status.External()})
		seen[job.ID] = struct{}{}
	}
	q.mu.Unlock()

	ids, err := q.store.ListOutputIDs()
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		out = append(out, Summary{ID: id, Status: domain.JobStatusReady.External()})
	}
	return out, nil
}

// Delete removes the persisted output for jobID. In-flight and queued jobs
// cannot be deleted; there is no cancellation.
func (q *Queue) Delete(jobID string) error {
	q.mu.Lock()
	if q.current != nil && q.current.ID == jobID {
		q.mu.Unlock()
		return ErrJobInFlight
	}
	for _, job := range q.pending {
		if job.ID == jobID {
			q.mu.Unlock()
			return ErrJobInFlight
		}
	}
	_, known := q.finished[jobID]
	delete(q.finished, jobID)
	q.mu.Unlock()

	if !known && !q.store.OutputExists(jobID) {
		return ErrJobNotFound
	}
	return q.store.DeleteOutput(jobID)
}

// Wait blocks until the lane is idle. Used by tests and shutdown.
func (q *Queue) Wait() {
	q.wg.Wait()
}
