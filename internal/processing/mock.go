// Package processing turns an uploaded media file into subtitle tracks.
// Only a mock extractor exists: it waits out a fixed delay and returns the
// same Portuguese and English tracks for every file.
package processing

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/idozri/vidto-listen/internal/job"
	"github.com/idozri/vidto-listen/internal/timeline"
	"github.com/idozri/vidto-listen/internal/track"
)

// DefaultDelay is how long the mock extractor pretends to work.
const DefaultDelay = 3 * time.Second

const progressSteps = 10

//go:embed fixtures/*.vtt
var fixtureFS embed.FS

// fixtureOrder is the order tracks are returned in.
var fixtureOrder = []string{"pt", "en"}

// Request describes one extraction.
type Request struct {
	SessionID          string
	FileID             string
	Path               string
	Language           string
	TranslateToEnglish bool
}

// Extractor produces tracks for a stored file.
type Extractor interface {
	Extract(ctx context.Context, req Request) ([]track.Track, error)
}

// Mock is the stand-in extractor.
type Mock struct {
	delay time.Duration
}

func NewMock(delay time.Duration) *Mock {
	if delay < 0 {
		delay = 0
	}
	return &Mock{delay: delay}
}

// Extract waits for the configured delay, then returns the fixture tracks.
// The request's language options do not change the result.
func (m *Mock) Extract(ctx context.Context, req Request) ([]track.Track, error) {
	if err := m.wait(ctx, nil); err != nil {
		return nil, err
	}
	return Fixtures()
}

// HandleJob runs the mock as a job queue handler.
func (m *Mock) HandleJob(ctx context.Context, j *job.Job, updateProgress func(float64)) (any, error) {
	if err := m.wait(ctx, updateProgress); err != nil {
		return nil, err
	}
	tracks, err := Fixtures()
	if err != nil {
		return nil, err
	}
	return job.ExtractResult{Tracks: tracks}, nil
}

func (m *Mock) wait(ctx context.Context, progress func(float64)) error {
	if m.delay == 0 {
		return ctx.Err()
	}
	step := m.delay / progressSteps
	timer := time.NewTimer(step)
	defer timer.Stop()
	for i := 1; i <= progressSteps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		if progress != nil {
			progress(float64(i) / progressSteps)
		}
		timer.Reset(step)
	}
	return nil
}

// Fixtures returns fresh copies of the mock tracks, all enabled.
func Fixtures() ([]track.Track, error) {
	tracks := make([]track.Track, 0, len(fixtureOrder))
	for _, code := range fixtureOrder {
		data, err := fixtureFS.ReadFile("fixtures/" + code + ".vtt")
		if err != nil {
			return nil, fmt.Errorf("fixture %s: %w", code, err)
		}
		subs, err := timeline.ParseVTT(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("fixture %s: %w", code, err)
		}
		tracks = append(tracks, track.New(code, subs))
	}
	return tracks, nil
}
