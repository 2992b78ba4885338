package processing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/idozri/vidto-listen/internal/job"
	"github.com/idozri/vidto-listen/internal/track"
)

var ErrCancelled = errors.New("extraction cancelled")

// Queued runs extractions through the persisted job queue so each one is
// recorded with its status and progress.
type Queued struct {
	queue *job.JobQueue
}

func NewQueued(queue *job.JobQueue) *Queued {
	return &Queued{queue: queue}
}

// Extract enqueues an extract job and waits for it. Cancelling ctx cancels
// the job.
func (e *Queued) Extract(ctx context.Context, req Request) ([]track.Track, error) {
	j, err := e.queue.Enqueue(job.JobExtract, req.Path, job.ExtractParams{
		SessionID:          req.SessionID,
		FileID:             req.FileID,
		Language:           req.Language,
		TranslateToEnglish: req.TranslateToEnglish,
	})
	if err != nil {
		return nil, err
	}

	done, err := e.queue.Wait(ctx, j.ID)
	if err != nil {
		if ctx.Err() != nil {
			e.queue.CancelJob(j.ID)
		}
		return nil, err
	}

	switch done.Status {
	case job.StatusCompleted:
	case job.StatusCancelled:
		return nil, ErrCancelled
	default:
		return nil, fmt.Errorf("extract job %s: %s", j.ID, done.Error)
	}

	var result job.ExtractResult
	if err := json.Unmarshal(done.Result, &result); err != nil {
		return nil, fmt.Errorf("decode extract result: %w", err)
	}
	return result.Tracks, nil
}
