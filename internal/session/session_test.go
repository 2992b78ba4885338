package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/idozri/vidto-listen/internal/playback"
	"github.com/idozri/vidto-listen/internal/processing"
	"github.com/idozri/vidto-listen/internal/timeline"
	"github.com/idozri/vidto-listen/internal/track"
	"github.com/idozri/vidto-listen/internal/upload"
)

// gatedExtractor returns tracks for a file only once its gate is opened,
// whether or not the request was cancelled.
type gatedExtractor struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
	err   error
}

func newGated() *gatedExtractor {
	return &gatedExtractor{gates: make(map[string]chan struct{})}
}

func (g *gatedExtractor) gate(id string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[id]
	if !ok {
		ch = make(chan struct{})
		g.gates[id] = ch
	}
	return ch
}

func (g *gatedExtractor) open(id string) { close(g.gate(id)) }

func (g *gatedExtractor) Extract(ctx context.Context, req processing.Request) ([]track.Track, error) {
	<-g.gate(req.FileID)
	if g.err != nil {
		return nil, g.err
	}
	return []track.Track{
		track.New("pt", []timeline.Subtitle{{ID: "1", Start: 0, End: 2, Text: "from " + req.FileID}}),
		track.New("en", []timeline.Subtitle{{ID: "1", Start: 0, End: 2, Text: "from " + req.FileID}}),
	}, nil
}

func mediaFile(id, name string) *upload.File {
	v := upload.Check(name, "")
	return &upload.File{ID: id, Name: name, Kind: v.Kind, Mismatch: v.TypeMismatch, Path: "/uploads/" + id}
}

func waitForState(t *testing.T, s *Session, want State) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if s.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state = %s, want %s", s.State(), want)
}

func TestSelectMP4ProducesPortugueseAndEnglish(t *testing.T) {
	s := New("s1", Config{Extractor: processing.NewMock(20 * time.Millisecond)})
	if s.State() != StateIdle {
		t.Fatalf("initial state = %s", s.State())
	}

	if err := s.SelectFile(mediaFile("f1", "clip.mp4"), Options{Language: "auto"}); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateProcessing {
		t.Errorf("state after select = %s, want processing", s.State())
	}

	waitForState(t, s, StateReady)
	snap := s.Snapshot()
	if len(snap.Tracks) != 2 || snap.Tracks[0].Code != "pt" || snap.Tracks[1].Code != "en" {
		t.Fatalf("tracks = %+v", snap.Tracks)
	}
	if snap.Tracks[0].Current != "Fica aqui!" {
		t.Errorf("pt current at 0 = %q", snap.Tracks[0].Current)
	}
}

func TestStaleResultDiscarded(t *testing.T) {
	g := newGated()
	s := New("s1", Config{Extractor: g})

	s.SelectFile(mediaFile("a", "a.mp4"), Options{})
	s.SelectFile(mediaFile("b", "b.mp4"), Options{})

	g.open("a")
	time.Sleep(20 * time.Millisecond)
	if s.State() != StateProcessing {
		t.Fatalf("stale result changed state to %s", s.State())
	}

	g.open("b")
	waitForState(t, s, StateReady)
	tr, err := s.Track("pt")
	if err != nil {
		t.Fatal(err)
	}
	if tr.Subtitles[0].Text != "from b" {
		t.Errorf("tracks came from %q, want file b", tr.Subtitles[0].Text)
	}
}

func TestReplacingFileReleasesPreviousMedia(t *testing.T) {
	var mu sync.Mutex
	var released []string
	g := newGated()
	s := New("s1", Config{
		Extractor: g,
		Release: func(f *upload.File) error {
			mu.Lock()
			released = append(released, f.ID)
			mu.Unlock()
			return nil
		},
	})

	s.SelectFile(mediaFile("a", "a.mp4"), Options{})
	s.SelectFile(mediaFile("b", "b.wav"), Options{})

	mu.Lock()
	if len(released) != 1 || released[0] != "a" {
		t.Errorf("released = %v, want [a]", released)
	}
	mu.Unlock()

	s.Close()
	mu.Lock()
	defer mu.Unlock()
	if len(released) != 2 || released[1] != "b" {
		t.Errorf("released after Close = %v", released)
	}
}

func TestMismatchedFileIsStillProcessed(t *testing.T) {
	s := New("s1", Config{Extractor: processing.NewMock(0)})
	f := mediaFile("f1", "notes.txt")
	if !f.Mismatch {
		t.Fatal("expected a type mismatch")
	}
	if err := s.SelectFile(f, Options{}); err != nil {
		t.Fatal(err)
	}
	waitForState(t, s, StateReady)
}

func TestToggleTrack(t *testing.T) {
	s := New("s1", Config{Extractor: processing.NewMock(0)})
	if err := s.SetTrackEnabled("en", false); !errors.Is(err, ErrNotReady) {
		t.Errorf("toggle before ready err = %v", err)
	}

	s.SelectFile(mediaFile("f1", "a.mp4"), Options{})
	waitForState(t, s, StateReady)

	if err := s.SetTrackEnabled("en", false); err != nil {
		t.Fatal(err)
	}
	pt, _ := s.Track("pt")
	en, _ := s.Track("en")
	if !pt.Enabled || en.Enabled {
		t.Errorf("pt enabled=%v en enabled=%v", pt.Enabled, en.Enabled)
	}
	if err := s.SetTrackEnabled("xx", true); !errors.Is(err, track.ErrUnknownTrack) {
		t.Errorf("unknown track err = %v", err)
	}
}

type longExtractor struct{}

func (longExtractor) Extract(ctx context.Context, req processing.Request) ([]track.Track, error) {
	subs := make([]timeline.Subtitle, 8)
	for i := range subs {
		subs[i] = timeline.Subtitle{ID: fmt.Sprint(i + 1), Start: float64(i * 2), End: float64(i*2 + 2), Text: fmt.Sprintf("line %d", i+1)}
	}
	return []track.Track{track.New("en", subs)}, nil
}

func TestSeekBeyondVisibleEntries(t *testing.T) {
	s := New("s1", Config{Extractor: longExtractor{}})
	s.SelectFile(mediaFile("f1", "a.mp4"), Options{})
	waitForState(t, s, StateReady)

	st, err := s.SeekToEntry("en", "7")
	if err != nil {
		t.Fatal(err)
	}
	if st.CurrentTime != 12 {
		t.Errorf("returned time = %v, want 12", st.CurrentTime)
	}
	if got := s.Player().State().CurrentTime; got != 12 {
		t.Errorf("playback time = %v, want 12", got)
	}

	snap := s.Snapshot()
	view := snap.Tracks[0]
	if view.Current != "line 7" {
		t.Errorf("current = %q, want line 7", view.Current)
	}
	if len(view.Entries) != track.VisibleLimit {
		t.Fatalf("entries = %d", len(view.Entries))
	}
	for _, e := range view.Entries {
		if e.Status == track.StatusActive {
			t.Errorf("entry %s marked active", e.ID)
		}
	}

	if _, err := s.SeekToEntry("en", "99"); !errors.Is(err, track.ErrUnknownEntry) {
		t.Errorf("unknown entry err = %v", err)
	}
}

func TestSeekAfterCloseIsNotReady(t *testing.T) {
	s := New("s1", Config{Extractor: longExtractor{}})
	s.SelectFile(mediaFile("f1", "a.mp4"), Options{})
	waitForState(t, s, StateReady)
	s.Close()

	st, err := s.SeekToEntry("en", "7")
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("err = %v, want ErrNotReady", err)
	}
	if st != (playback.State{}) {
		t.Errorf("state = %+v, want zero", st)
	}
	if s.Player() != nil {
		t.Error("player kept after close")
	}
}

func TestProcessingFailureKeepsProcessing(t *testing.T) {
	g := newGated()
	g.err = errors.New("queue unavailable")
	s := New("s1", Config{Extractor: g})

	done := make(chan struct{})
	unsub := s.Subscribe(func(ev Event) {
		if ev.Kind == EventError {
			close(done)
		}
	})
	defer unsub()

	s.SelectFile(mediaFile("f1", "a.mp4"), Options{})
	g.open("f1")

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("no error event")
	}
	if s.State() != StateProcessing || s.LastError() != "queue unavailable" {
		t.Errorf("state=%s last_error=%q", s.State(), s.LastError())
	}
}

func TestExport(t *testing.T) {
	s := New("s1", Config{Extractor: processing.NewMock(0)})
	if _, err := s.Export(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Export while idle err = %v", err)
	}
	s.SelectFile(mediaFile("f1", "a.mp4"), Options{})
	waitForState(t, s, StateReady)

	ack, err := s.Export()
	if err != nil || ack.Status != "acknowledged" {
		t.Errorf("Export = %+v, %v", ack, err)
	}
}

func TestOnReadyAndClockElement(t *testing.T) {
	ready := make(chan []track.Track, 1)
	var clock *playback.Clock
	s := New("s1", Config{
		Extractor: processing.NewMock(0),
		Element: func(f *upload.File) playback.Element {
			clock = playback.NewClock(10)
			return clock
		},
		OnReady: func(s *Session, f *upload.File, tracks []track.Track) {
			ready <- tracks
		},
	})

	s.SelectFile(mediaFile("f1", "a.mp4"), Options{})
	if d := s.Player().State().Duration; d != 10 {
		t.Errorf("duration = %v, want 10", d)
	}

	select {
	case tracks := <-ready:
		if len(tracks) != 2 {
			t.Errorf("OnReady got %d tracks", len(tracks))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("OnReady not called")
	}

	var events []Event
	var mu sync.Mutex
	unsub := s.Subscribe(func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})
	defer unsub()

	s.Player().TogglePlay()
	clock.Advance(4.5)

	snap := s.Snapshot()
	if snap.Playback.CurrentTime != 4.5 || snap.Tracks[1].Current != "Let's continue!" {
		t.Errorf("at 4.5: time=%v en=%q", snap.Playback.CurrentTime, snap.Tracks[1].Current)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(events) != 2 || events[0].Kind != EventPlayback || events[1].PlaybackKind != playback.EventTimeUpdate {
		t.Errorf("events = %+v", events)
	}
}

func TestManager(t *testing.T) {
	m := NewManager(time.Minute, func(id string) Config {
		return Config{Extractor: processing.NewMock(0)}
	}, nil)

	s := m.Create()
	got, err := m.Get(s.ID())
	if err != nil || got != s {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if _, err := m.Get("missing"); !errors.Is(err, ErrNoSession) {
		t.Errorf("Get(missing) err = %v", err)
	}

	if n := m.Sweep(time.Now()); n != 0 {
		t.Errorf("fresh session swept")
	}
	if n := m.Sweep(time.Now().Add(2 * time.Minute)); n != 1 || m.Len() != 0 {
		t.Errorf("Sweep removed %d, %d left", n, m.Len())
	}
	if err := s.SelectFile(mediaFile("f", "a.mp4"), Options{}); !errors.Is(err, ErrNoSession) {
		t.Errorf("select on expired session err = %v", err)
	}
}

func TestManagerExpiresOnInactivity(t *testing.T) {
	const ttl = 200 * time.Millisecond
	m := NewManager(ttl, func(id string) Config {
		return Config{Extractor: processing.NewMock(0)}
	}, nil)
	s := m.Create()

	// Activity keeps the session alive well past one TTL.
	for i := 0; i < 8; i++ {
		time.Sleep(ttl / 4)
		if _, err := m.Get(s.ID()); err != nil {
			t.Fatalf("Get after %d polls: %v", i+1, err)
		}
	}

	time.Sleep(ttl + 50*time.Millisecond)
	if _, err := m.Get(s.ID()); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Get on idle session err = %v, want ErrNoSession", err)
	}
	if m.Len() != 0 {
		t.Errorf("idle session still listed")
	}
}
