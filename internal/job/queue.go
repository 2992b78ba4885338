package job

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/idozri/vidto-listen/internal/logging"
)

// JobQueue manages job persistence and dispatching
type JobQueue struct {
	db       *sql.DB
	logger   *logging.Logger
	mu       sync.RWMutex
	pending  chan string // job IDs to process
	cancels  map[string]context.CancelFunc
	waiters  map[string]chan struct{}
	handlers map[JobType]JobHandler
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewJobQueue creates and starts a new job queue
func NewJobQueue(db *sql.DB, logger *logging.Logger) *JobQueue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &JobQueue{
		db:       db,
		logger:   logger.Named("job"),
		pending:  make(chan string, 100),
		cancels:  make(map[string]context.CancelFunc),
		waiters:  make(map[string]chan struct{}),
		handlers: make(map[JobType]JobHandler),
		ctx:      ctx,
		cancel:   cancel,
	}

	// Jobs from a previous run belonged to sessions that no longer exist
	q.abandonJobs()

	go q.worker()

	return q
}

// RegisterHandler registers a handler for a job type
func (q *JobQueue) RegisterHandler(jobType JobType, handler JobHandler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobType] = handler
}

// Enqueue creates a new job and adds it to the queue
func (q *JobQueue) Enqueue(jobType JobType, filePath string, params any) (*Job, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}

	job := &Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Status:    StatusPending,
		FilePath:  filePath,
		Params:    paramsJSON,
		Progress:  0,
		CreatedAt: time.Now(),
	}

	_, err = q.db.Exec(`
		INSERT INTO jobs (id, type, status, file_path, params, progress, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Type, job.Status, job.FilePath, string(job.Params), job.Progress, job.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	select {
	case q.pending <- job.ID:
	default:
		q.failJob(job, "queue full")
		return nil, fmt.Errorf("enqueue job %s: queue full", job.ID)
	}

	return job, nil
}

const jobColumns = `id, type, status, file_path, params, progress, result, error, created_at, started_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(s rowScanner) (*Job, error) {
	job := &Job{}
	var params, result, errMsg sql.NullString
	var startedAt, completedAt sql.NullTime

	if err := s.Scan(&job.ID, &job.Type, &job.Status, &job.FilePath, &params, &job.Progress,
		&result, &errMsg, &job.CreatedAt, &startedAt, &completedAt); err != nil {
		return nil, err
	}

	if params.Valid {
		job.Params = json.RawMessage(params.String)
	}
	if result.Valid {
		job.Result = json.RawMessage(result.String)
	}
	if errMsg.Valid {
		job.Error = errMsg.String
	}
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}
	return job, nil
}

// GetJob retrieves a job by ID
func (q *JobQueue) GetJob(id string) (*Job, error) {
	return scanJob(q.db.QueryRow(`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id))
}

// ListJobs returns all jobs ordered by creation time (newest first)
func (q *JobQueue) ListJobs() ([]*Job, error) {
	rows, err := q.db.Query(`SELECT ` + jobColumns + ` FROM jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Wait blocks until the job reaches a terminal status or ctx is done.
func (q *JobQueue) Wait(ctx context.Context, id string) (*Job, error) {
	q.mu.Lock()
	ch, ok := q.waiters[id]
	if !ok {
		ch = make(chan struct{})
		q.waiters[id] = ch
	}
	q.mu.Unlock()

	job, err := q.GetJob(id)
	if err != nil {
		return nil, err
	}
	if job.Status.Done() {
		q.release(id)
		return job, nil
	}

	select {
	case <-ch:
		return q.GetJob(id)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// CancelJob cancels a pending or running job
func (q *JobQueue) CancelJob(id string) error {
	q.mu.Lock()
	if cancelFn, ok := q.cancels[id]; ok {
		cancelFn()
		delete(q.cancels, id)
	}
	q.mu.Unlock()

	_, err := q.db.Exec(`
		UPDATE jobs SET status = ?, completed_at = ?
		WHERE id = ? AND status IN (?, ?)`,
		StatusCancelled, time.Now(), id, StatusPending, StatusRunning,
	)
	q.release(id)
	return err
}

// UpdateProgress updates the progress of a running job
func (q *JobQueue) UpdateProgress(id string, progress float64) {
	if _, err := q.db.Exec("UPDATE jobs SET progress = ? WHERE id = ?", progress, id); err != nil {
		q.logger.Debugw("progress update failed", "job", id, "error", err)
	}
}

// Stop shuts down the queue
func (q *JobQueue) Stop() {
	q.cancel()
}

// worker processes jobs from the pending channel one at a time
func (q *JobQueue) worker() {
	for {
		select {
		case <-q.ctx.Done():
			return
		case jobID := <-q.pending:
			q.processJob(jobID)
		}
	}
}

// processJob runs a single job
func (q *JobQueue) processJob(jobID string) {
	job, err := q.GetJob(jobID)
	if err != nil {
		q.logger.Errorw("failed to load job", "job", jobID, "error", err)
		return
	}

	// Skip if cancelled while waiting
	if job.Status != StatusPending {
		return
	}

	q.mu.RLock()
	handler, ok := q.handlers[job.Type]
	q.mu.RUnlock()

	if !ok {
		q.failJob(job, fmt.Sprintf("no handler for job type: %s", job.Type))
		return
	}

	// Registered before the status flips so a cancel in between still
	// reaches the handler.
	ctx, cancelFn := context.WithCancel(q.ctx)
	q.mu.Lock()
	q.cancels[job.ID] = cancelFn
	q.mu.Unlock()

	started, err := q.start(job)
	if !started {
		if err != nil {
			q.logger.Errorw("failed to start job", "job", job.ID, "error", err)
		}
		q.mu.Lock()
		delete(q.cancels, job.ID)
		q.mu.Unlock()
		cancelFn()
		return
	}

	updateProgress := func(progress float64) {
		q.UpdateProgress(job.ID, progress)
	}

	type outcome struct {
		result any
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := handler(ctx, job, updateProgress)
		done <- outcome{result, err}
	}()

	select {
	case <-ctx.Done():
		q.logger.Infow("job cancelled", "job", job.ID)
	case out := <-done:
		if ctx.Err() != nil {
			q.logger.Infow("job cancelled", "job", job.ID)
		} else if out.err != nil {
			q.failJob(job, out.err.Error())
		} else {
			q.completeJob(job, out.result)
		}
	}

	q.mu.Lock()
	delete(q.cancels, job.ID)
	q.mu.Unlock()
	cancelFn()
}

// start moves a pending job to running. It reports false when the job is no
// longer pending, e.g. it was cancelled after being picked up.
func (q *JobQueue) start(job *Job) (bool, error) {
	now := time.Now()
	res, err := q.db.Exec("UPDATE jobs SET status = ?, started_at = ? WHERE id = ? AND status = ?",
		StatusRunning, now, job.ID, StatusPending)
	if err != nil {
		return false, err
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return false, err
	}
	job.StartedAt = &now
	job.Status = StatusRunning
	return true, nil
}

func (q *JobQueue) completeJob(job *Job, result any) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		q.failJob(job, fmt.Sprintf("marshal result: %v", err))
		return
	}
	now := time.Now()
	q.db.Exec("UPDATE jobs SET status = ?, progress = 1.0, result = ?, completed_at = ? WHERE id = ? AND status = ?",
		StatusCompleted, string(resultJSON), now, job.ID, StatusRunning)
	q.logger.Infow("job completed", "job", job.ID, "type", job.Type)
	q.release(job.ID)
}

func (q *JobQueue) failJob(job *Job, errMsg string) {
	now := time.Now()
	q.db.Exec("UPDATE jobs SET status = ?, error = ?, completed_at = ? WHERE id = ? AND status IN (?, ?)",
		StatusFailed, errMsg, now, job.ID, StatusPending, StatusRunning)
	q.logger.Warnw("job failed", "job", job.ID, "error", errMsg)
	q.release(job.ID)
}

// release wakes everyone waiting on the job.
func (q *JobQueue) release(id string) {
	q.mu.Lock()
	if ch, ok := q.waiters[id]; ok {
		close(ch)
		delete(q.waiters, id)
	}
	q.mu.Unlock()
}

// abandonJobs cancels jobs left unfinished by a previous run
func (q *JobQueue) abandonJobs() {
	res, err := q.db.Exec(`
		UPDATE jobs SET status = ?, error = ?, completed_at = ?
		WHERE status IN (?, ?)`,
		StatusCancelled, "interrupted by restart", time.Now(), StatusPending, StatusRunning,
	)
	if err != nil {
		q.logger.Errorw("failed to abandon stale jobs", "error", err)
		return
	}
	if n, _ := res.RowsAffected(); n > 0 {
		q.logger.Infow("abandoned stale jobs", "count", n)
	}
}
