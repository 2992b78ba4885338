// Package session holds the per-browser state machine that ties an uploaded
// file, its processing and its playback together.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/idozri/vidto-listen/internal/logging"
	"github.com/idozri/vidto-listen/internal/playback"
	"github.com/idozri/vidto-listen/internal/processing"
	"github.com/idozri/vidto-listen/internal/track"
	"github.com/idozri/vidto-listen/internal/upload"
)

var (
	ErrNoSession = errors.New("session not found")
	ErrNotReady  = errors.New("subtitles are not ready")
	ErrNoMedia   = errors.New("no media selected")
)

// State is the session's position in the Idle → Processing → Ready flow.
type State string

const (
	StateIdle       State = "idle"
	StateProcessing State = "processing"
	StateReady      State = "ready"
)

// Options carries the language choices made alongside a file selection.
type Options struct {
	Language           string `json:"language"`
	TranslateToEnglish bool   `json:"translate_to_english"`
}

// Config wires a session to its collaborators.
type Config struct {
	Extractor processing.Extractor
	// Element returns the media element that plays f.
	Element func(f *upload.File) playback.Element
	// MediaURL derives the playable URL for f.
	MediaURL func(f *upload.File) string
	// Release frees the stored media once f is replaced or the session ends.
	Release func(f *upload.File) error
	// OnReady runs after tracks for f become available.
	OnReady func(s *Session, f *upload.File, tracks []track.Track)
	// OnClose runs once when the session is closed.
	OnClose func(s *Session)
	Logger  *logging.Logger
}

// Binder is implemented by elements that report their own events, such as
// playback.Clock.
type Binder interface {
	Bind(sink playback.Sink)
}

// Session is one user's workspace. All methods are safe for concurrent use.
type Session struct {
	id  string
	cfg Config
	log *logging.Logger

	mu        sync.Mutex
	state     State
	file      *upload.File
	opts      Options
	source    *playback.Source
	player    *playback.Adapter
	playerSub *playback.Subscription
	tracks    *track.Set
	cancel    context.CancelFunc
	lastError string
	lastSeen  time.Time
	closed    bool

	events eventHub
}

// New returns an idle session.
func New(id string, cfg Config) *Session {
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	if cfg.MediaURL == nil {
		cfg.MediaURL = func(f *upload.File) string { return f.Path }
	}
	return &Session{
		id:       id,
		cfg:      cfg,
		log:      cfg.Logger.Named("session").With("session", id),
		state:    StateIdle,
		lastSeen: time.Now(),
	}
}

func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// File returns the current selection, or nil while idle.
func (s *Session) File() *upload.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file
}

// Player returns the adapter for the current media, or nil while idle.
func (s *Session) Player() *playback.Adapter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player
}

// LastError returns the most recent processing failure for the current file.
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// SelectFile replaces whatever the session holds with f and starts
// processing it. Any earlier processing is cancelled and its result will be
// ignored; the previous media is released.
func (s *Session) SelectFile(f *upload.File, opts Options) error {
	if f == nil {
		return upload.ErrNoFile
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrNoSession
	}
	prevSource, prevPlayer, prevSub := s.detachLocked()

	var el playback.Element = nopElement{}
	if s.cfg.Element != nil {
		el = s.cfg.Element(f)
	}
	player := playback.NewAdapter(el)
	ctx, cancel := context.WithCancel(context.Background())

	s.state = StateProcessing
	s.file = f
	s.opts = opts
	s.tracks = nil
	s.lastError = ""
	s.cancel = cancel
	s.player = player
	s.source = playback.NewSource(s.cfg.MediaURL(f), s.releaser(f))
	s.playerSub = player.Subscribe(s.forwardPlayback)
	s.lastSeen = time.Now()
	s.mu.Unlock()

	s.cleanup(prevSource, prevPlayer, prevSub)

	if b, ok := el.(Binder); ok {
		b.Bind(player)
	} else if f.Duration > 0 {
		player.LoadedMetadata(f.Duration)
	}

	s.log.Infow("file selected", "file", f.Name, "kind", f.Kind, "type_mismatch", f.Mismatch)
	s.events.emit(Event{Kind: EventState, State: StateProcessing})
	s.events.emit(Event{Kind: EventMedia, URL: s.cfg.MediaURL(f)})

	go s.process(ctx, f, opts)
	return nil
}

func (s *Session) process(ctx context.Context, f *upload.File, opts Options) {
	tracks, err := s.cfg.Extractor.Extract(ctx, processing.Request{
		SessionID:          s.id,
		FileID:             f.ID,
		Path:               f.Path,
		Language:           opts.Language,
		TranslateToEnglish: opts.TranslateToEnglish,
	})

	s.mu.Lock()
	if ctx.Err() != nil || s.file == nil || s.file.ID != f.ID {
		s.mu.Unlock()
		s.log.Debugw("discarding stale processing result", "file", f.ID)
		return
	}
	if err != nil {
		s.lastError = err.Error()
		s.mu.Unlock()
		s.log.Errorw("processing failed", "file", f.Name, "error", err)
		s.events.emit(Event{Kind: EventError, Error: err.Error()})
		return
	}
	s.tracks = track.NewSet(tracks)
	s.state = StateReady
	s.cancel = nil
	snapshot := s.tracks.Tracks()
	s.mu.Unlock()

	s.log.Infow("subtitles extracted", "file", f.Name, "tracks", len(tracks))
	s.events.emit(Event{Kind: EventState, State: StateReady})
	if s.cfg.OnReady != nil {
		s.cfg.OnReady(s, f, snapshot)
	}
}

// SetTrackEnabled toggles one track's visibility. Other tracks are never
// touched.
func (s *Session) SetTrackEnabled(code string, enabled bool) error {
	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return ErrNotReady
	}
	ok := s.tracks.SetEnabled(code, enabled)
	s.mu.Unlock()
	if !ok {
		return track.ErrUnknownTrack
	}
	s.events.emit(Event{Kind: EventTracks})
	return nil
}

// SeekToEntry moves playback to the start of a subtitle entry. The entry
// need not be among the visible ones, and a disabled track stays disabled.
func (s *Session) SeekToEntry(code, id string) (playback.State, error) {
	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return playback.State{}, ErrNotReady
	}
	target, err := s.tracks.SeekTarget(code, id)
	player := s.player
	s.mu.Unlock()
	if err != nil {
		return playback.State{}, err
	}
	if err := player.Seek(target); err != nil {
		return playback.State{}, err
	}
	return player.State(), nil
}

// Track returns one track of a ready session.
func (s *Session) Track(code string) (track.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return track.Track{}, ErrNotReady
	}
	t, ok := s.tracks.Get(code)
	if !ok {
		return track.Track{}, track.ErrUnknownTrack
	}
	return t, nil
}

// Views renders every track at time now. It is empty until ready.
func (s *Session) Views(now float64) []track.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracks.RenderAll(now)
}

// Acknowledgement is the reply to an export request.
type Acknowledgement struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Export acknowledges an export request. No file is produced.
func (s *Session) Export() (Acknowledgement, error) {
	if s.State() != StateReady {
		return Acknowledgement{}, ErrNotReady
	}
	s.log.Infow("export requested")
	return Acknowledgement{
		Status:  "acknowledged",
		Message: "Your subtitles are being prepared for download.",
	}, nil
}

// Snapshot is a read-only view of the whole session.
type Snapshot struct {
	ID        string          `json:"id"`
	State     State           `json:"state"`
	File      *upload.File    `json:"file,omitempty"`
	MediaURL  string          `json:"media_url,omitempty"`
	Options   Options         `json:"options"`
	Playback  *playback.State `json:"playback,omitempty"`
	Tracks    []track.View    `json:"tracks"`
	LastError string          `json:"last_error,omitempty"`
}

// Snapshot captures the session with tracks rendered at the current
// playback time.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:        s.id,
		State:     s.state,
		File:      s.file,
		Options:   s.opts,
		Tracks:    []track.View{},
		LastError: s.lastError,
	}
	if s.source != nil {
		snap.MediaURL = s.source.URL
	}
	now := 0.0
	if s.player != nil {
		st := s.player.State()
		snap.Playback = &st
		now = st.CurrentTime
	}
	if views := s.tracks.RenderAll(now); views != nil {
		snap.Tracks = views
	}
	return snap
}

// Subscribe registers fn for session events. The returned func removes it.
func (s *Session) Subscribe(fn func(Event)) (unsubscribe func()) {
	return s.events.add(fn)
}

// Touch records activity for expiry.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// LastSeen returns the time of the last recorded activity.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Close cancels processing, releases media and drops all subscribers.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	prevSource, prevPlayer, prevSub := s.detachLocked()
	s.state = StateIdle
	s.file = nil
	s.tracks = nil
	s.mu.Unlock()

	s.cleanup(prevSource, prevPlayer, prevSub)
	s.events.clear()
	if s.cfg.OnClose != nil {
		s.cfg.OnClose(s)
	}
}

// detachLocked cancels processing and hands back the resources of the
// current media for cleanup outside the lock.
func (s *Session) detachLocked() (*playback.Source, *playback.Adapter, *playback.Subscription) {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	src, player, sub := s.source, s.player, s.playerSub
	s.source, s.player, s.playerSub = nil, nil, nil
	return src, player, sub
}

func (s *Session) cleanup(src *playback.Source, player *playback.Adapter, sub *playback.Subscription) {
	sub.Unsubscribe()
	if player != nil {
		player.Close()
	}
	if err := src.Release(); err != nil {
		s.log.Warnw("failed to release media", "error", err)
	}
}

func (s *Session) releaser(f *upload.File) func() error {
	if s.cfg.Release == nil {
		return nil
	}
	return func() error { return s.cfg.Release(f) }
}

func (s *Session) forwardPlayback(ev playback.Event) {
	st := ev.State
	s.events.emit(Event{Kind: EventPlayback, Playback: &st, PlaybackKind: ev.Kind})
}

// nopElement stands in when no element factory is configured.
type nopElement struct{}

func (nopElement) Play() error                  { return nil }
func (nopElement) Pause() error                 { return nil }
func (nopElement) SetCurrentTime(float64) error { return nil }
func (nopElement) SetVolume(float64) error      { return nil }
