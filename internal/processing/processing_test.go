package processing

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/idozri/vidto-listen/internal/db"
	"github.com/idozri/vidto-listen/internal/job"
	"github.com/idozri/vidto-listen/internal/logging"
)

func TestFixtures(t *testing.T) {
	tracks, err := Fixtures()
	if err != nil {
		t.Fatal(err)
	}
	if len(tracks) != 2 || tracks[0].Code != "pt" || tracks[1].Code != "en" {
		t.Fatalf("tracks = %+v", tracks)
	}
	for _, tr := range tracks {
		if !tr.Enabled || len(tr.Subtitles) != 5 {
			t.Errorf("track %s: enabled=%v subs=%d", tr.Code, tr.Enabled, len(tr.Subtitles))
		}
	}
	if tracks[0].Name != "Portuguese" || tracks[0].Subtitles[0].Text != "Fica aqui!" {
		t.Errorf("pt = %+v", tracks[0])
	}
	last := tracks[1].Subtitles[4]
	if last.ID != "5" || last.Start != 8 || last.End != 10 || last.Text != "Perfect!" {
		t.Errorf("en last = %+v", last)
	}

	// Callers get independent copies.
	tracks[0].Subtitles[0].Text = "changed"
	again, _ := Fixtures()
	if again[0].Subtitles[0].Text != "Fica aqui!" {
		t.Error("fixture mutated through a previous result")
	}
}

func TestMockWaitsForDelay(t *testing.T) {
	m := NewMock(30 * time.Millisecond)
	start := time.Now()
	tracks, err := m.Extract(context.Background(), Request{Path: "a.mp4"})
	if err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("returned after %v", elapsed)
	}
	if len(tracks) != 2 {
		t.Errorf("got %d tracks", len(tracks))
	}
}

func TestMockCancel(t *testing.T) {
	m := NewMock(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Extract(ctx, Request{}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func newQueue(t *testing.T, m *Mock) *job.JobQueue {
	t.Helper()
	d, err := db.NewSQLite(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	q := job.NewJobQueue(d.DB(), logging.Nop())
	q.RegisterHandler(job.JobExtract, m.HandleJob)
	t.Cleanup(func() {
		q.Stop()
		d.Close()
	})
	return q
}

func TestQueuedExtract(t *testing.T) {
	q := newQueue(t, NewMock(10*time.Millisecond))
	e := NewQueued(q)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tracks, err := e.Extract(ctx, Request{SessionID: "s1", FileID: "f1", Path: "/x.mp4", Language: "auto"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(tracks) != 2 || tracks[1].Subtitles[2].Text != "Let's continue!" {
		t.Errorf("tracks = %+v", tracks)
	}

	jobs, err := q.ListJobs()
	if err != nil || len(jobs) != 1 || jobs[0].Status != job.StatusCompleted {
		t.Errorf("jobs = %+v, %v", jobs, err)
	}
}

func TestQueuedExtractCancel(t *testing.T) {
	q := newQueue(t, NewMock(time.Hour))
	e := NewQueued(q)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := e.Extract(ctx, Request{FileID: "f1"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}

	jobs, _ := q.ListJobs()
	if len(jobs) != 1 || jobs[0].Status != job.StatusCancelled {
		t.Errorf("job after cancel = %+v", jobs)
	}
}
