package job

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/idozri/vidto-listen/internal/db"
	"github.com/idozri/vidto-listen/internal/logging"
)

func newTestQueue(t *testing.T) *JobQueue {
	t.Helper()
	d, err := db.NewSQLite(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	q := NewJobQueue(d.DB(), logging.Nop())
	t.Cleanup(func() {
		q.Stop()
		d.Close()
	})
	return q
}

func waitCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestEnqueueAndWait(t *testing.T) {
	q := newTestQueue(t)
	q.RegisterHandler(JobExtract, func(ctx context.Context, j *Job, progress func(float64)) (any, error) {
		var p ExtractParams
		if err := json.Unmarshal(j.Params, &p); err != nil {
			return nil, err
		}
		progress(0.5)
		return map[string]string{"file": p.FileID}, nil
	})

	j, err := q.Enqueue(JobExtract, "/tmp/a.mp4", ExtractParams{SessionID: "s", FileID: "f1", Language: "auto"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	done, err := q.Wait(waitCtx(t), j.ID)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if done.Status != StatusCompleted || done.Progress != 1 {
		t.Fatalf("job = %+v", done)
	}
	var result map[string]string
	if err := json.Unmarshal(done.Result, &result); err != nil || result["file"] != "f1" {
		t.Errorf("result = %s, %v", done.Result, err)
	}

	// Waiting again on a finished job returns immediately.
	if again, err := q.Wait(waitCtx(t), j.ID); err != nil || again.Status != StatusCompleted {
		t.Errorf("second Wait = %+v, %v", again, err)
	}
}

func TestHandlerError(t *testing.T) {
	q := newTestQueue(t)
	q.RegisterHandler(JobExtract, func(ctx context.Context, j *Job, progress func(float64)) (any, error) {
		return nil, errors.New("boom")
	})

	j, _ := q.Enqueue(JobExtract, "", ExtractParams{})
	done, err := q.Wait(waitCtx(t), j.ID)
	if err != nil {
		t.Fatal(err)
	}
	if done.Status != StatusFailed || done.Error != "boom" {
		t.Errorf("job = %+v", done)
	}
}

func TestMissingHandler(t *testing.T) {
	q := newTestQueue(t)
	j, _ := q.Enqueue(JobExtract, "", ExtractParams{})
	done, err := q.Wait(waitCtx(t), j.ID)
	if err != nil {
		t.Fatal(err)
	}
	if done.Status != StatusFailed {
		t.Errorf("status = %s, want failed", done.Status)
	}
}

func TestCancelRunningJob(t *testing.T) {
	q := newTestQueue(t)
	started := make(chan struct{})
	q.RegisterHandler(JobExtract, func(ctx context.Context, j *Job, progress func(float64)) (any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})

	j, _ := q.Enqueue(JobExtract, "", ExtractParams{})
	<-started
	if err := q.CancelJob(j.ID); err != nil {
		t.Fatal(err)
	}
	done, err := q.Wait(waitCtx(t), j.ID)
	if err != nil {
		t.Fatal(err)
	}
	if done.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", done.Status)
	}
}

func TestWaitHonoursContext(t *testing.T) {
	q := newTestQueue(t)
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	q.RegisterHandler(JobExtract, func(ctx context.Context, j *Job, progress func(float64)) (any, error) {
		<-block
		return nil, nil
	})

	j, _ := q.Enqueue(JobExtract, "", ExtractParams{})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := q.Wait(ctx, j.ID); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait err = %v, want deadline exceeded", err)
	}
}

func TestAbandonOnRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.db")
	d, err := db.NewSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	if _, err := d.DB().Exec(
		`INSERT INTO jobs (id, type, status, file_path, params) VALUES ('old', 'extract', 'running', '', '{}')`,
	); err != nil {
		t.Fatal(err)
	}

	q := NewJobQueue(d.DB(), logging.Nop())
	defer q.Stop()

	j, err := q.GetJob("old")
	if err != nil {
		t.Fatal(err)
	}
	if j.Status != StatusCancelled || j.Error == "" {
		t.Errorf("stale job = %+v", j)
	}
}

func TestStartOnlyClaimsPendingJobs(t *testing.T) {
	tests := []struct {
		name       string
		status     JobStatus
		wantStart  bool
		wantStatus JobStatus
	}{
		{"pending", StatusPending, true, StatusRunning},
		{"cancelled after pickup", StatusCancelled, false, StatusCancelled},
		{"already running", StatusRunning, false, StatusRunning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := newTestQueue(t)
			if _, err := q.db.Exec(
				`INSERT INTO jobs (id, type, status, file_path, params) VALUES ('j', 'extract', ?, '', '{}')`,
				tt.status,
			); err != nil {
				t.Fatal(err)
			}

			// The worker saw the job as pending before its row changed.
			j := &Job{ID: "j", Type: JobExtract, Status: StatusPending}
			started, err := q.start(j)
			if err != nil {
				t.Fatalf("start: %v", err)
			}
			if started != tt.wantStart {
				t.Errorf("started = %v, want %v", started, tt.wantStart)
			}

			got, err := q.GetJob("j")
			if err != nil {
				t.Fatal(err)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", got.Status, tt.wantStatus)
			}
		})
	}
}
