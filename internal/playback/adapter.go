// Package playback wraps a media element behind play/pause/seek/volume
// controls and publishes its timing events to subscribers.
package playback

import (
	"sync"
)

// Element is the media element being driven: a browser <video> reached over
// a WebSocket, or a simulated Clock.
type Element interface {
	Play() error
	Pause() error
	SetCurrentTime(seconds float64) error
	SetVolume(v float64) error
}

// Sink receives notifications from an element.
type Sink interface {
	TimeUpdate(seconds float64)
	LoadedMetadata(duration float64)
	Ended()
}

// State is the playback state owned by an Adapter.
type State struct {
	CurrentTime float64 `json:"current_time"`
	Duration    float64 `json:"duration"`
	Playing     bool    `json:"playing"`
	Volume      float64 `json:"volume"`
}

// EventKind identifies what changed.
type EventKind string

const (
	EventTimeUpdate    EventKind = "timeupdate"
	EventDurationKnown EventKind = "durationknown"
	EventStateChanged  EventKind = "statechanged"
)

// Event is delivered to subscribers with a copy of the state after the change.
type Event struct {
	Kind  EventKind `json:"kind"`
	State State     `json:"state"`
}

// Adapter owns the PlaybackState for one media resource.
type Adapter struct {
	el Element

	// ctl serialises controls so each one reads the state, drives the
	// element and records the result without another control in between.
	ctl sync.Mutex

	mu     sync.Mutex
	state  State
	subs   map[uint64]func(Event)
	nextID uint64
	closed bool
}

var _ Sink = (*Adapter)(nil)

// NewAdapter wraps el. Playback starts paused at full volume.
func NewAdapter(el Element) *Adapter {
	return &Adapter{
		el:    el,
		state: State{Volume: 1},
		subs:  make(map[uint64]func(Event)),
	}
}

// State returns a snapshot of the current playback state.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// TogglePlay starts playback when paused and pauses it when playing.
func (a *Adapter) TogglePlay() error {
	a.ctl.Lock()
	defer a.ctl.Unlock()
	playing := a.State().Playing

	var err error
	if playing {
		err = a.el.Pause()
	} else {
		err = a.el.Play()
	}
	if err != nil {
		return err
	}

	a.update(EventStateChanged, func(s *State) { s.Playing = !playing })
	return nil
}

// Pause stops playback if it is running.
func (a *Adapter) Pause() error {
	a.ctl.Lock()
	defer a.ctl.Unlock()
	if !a.State().Playing {
		return nil
	}
	if err := a.el.Pause(); err != nil {
		return err
	}
	a.update(EventStateChanged, func(s *State) { s.Playing = false })
	return nil
}

// Seek moves to seconds without clamping; range handling is left to the
// element. The new time is published immediately.
func (a *Adapter) Seek(seconds float64) error {
	a.ctl.Lock()
	defer a.ctl.Unlock()
	return a.seek(seconds)
}

func (a *Adapter) seek(seconds float64) error {
	if err := a.el.SetCurrentTime(seconds); err != nil {
		return err
	}
	a.update(EventTimeUpdate, func(s *State) { s.CurrentTime = seconds })
	return nil
}

// Skip moves by delta seconds, clamped to [0, duration].
func (a *Adapter) Skip(delta float64) error {
	a.ctl.Lock()
	defer a.ctl.Unlock()
	st := a.State()
	return a.seek(clamp(st.CurrentTime+delta, 0, st.Duration))
}

// SetVolume applies v immediately, clamped to [0, 1].
func (a *Adapter) SetVolume(v float64) error {
	v = clamp(v, 0, 1)
	a.ctl.Lock()
	defer a.ctl.Unlock()
	if err := a.el.SetVolume(v); err != nil {
		return err
	}
	a.update(EventStateChanged, func(s *State) { s.Volume = v })
	return nil
}

// Sync pushes the adapter's state to the element, e.g. after a browser
// reconnects.
func (a *Adapter) Sync() error {
	a.ctl.Lock()
	defer a.ctl.Unlock()
	st := a.State()
	if err := a.el.SetCurrentTime(st.CurrentTime); err != nil {
		return err
	}
	if err := a.el.SetVolume(st.Volume); err != nil {
		return err
	}
	if st.Playing {
		return a.el.Play()
	}
	return a.el.Pause()
}

// TimeUpdate records a timing tick from the element.
func (a *Adapter) TimeUpdate(seconds float64) {
	a.update(EventTimeUpdate, func(s *State) { s.CurrentTime = seconds })
}

// LoadedMetadata records the media duration once the element knows it.
func (a *Adapter) LoadedMetadata(duration float64) {
	if duration < 0 {
		duration = 0
	}
	a.update(EventDurationKnown, func(s *State) { s.Duration = duration })
}

// Ended marks playback as stopped when the element reaches the end.
func (a *Adapter) Ended() {
	a.update(EventStateChanged, func(s *State) {
		s.Playing = false
		if s.Duration > 0 {
			s.CurrentTime = s.Duration
		}
	})
}

// Subscribe registers fn for every subsequent event. fn runs on the
// goroutine that caused the change and must not call back into Subscribe.
func (a *Adapter) Subscribe(fn func(Event)) *Subscription {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return &Subscription{}
	}
	id := a.nextID
	a.nextID++
	a.subs[id] = fn
	return &Subscription{adapter: a, id: id}
}

// Close drops all subscribers. Later events are not delivered.
func (a *Adapter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	a.subs = make(map[uint64]func(Event))
}

func (a *Adapter) update(kind EventKind, fn func(*State)) {
	a.mu.Lock()
	fn(&a.state)
	ev := Event{Kind: kind, State: a.state}
	listeners := make([]func(Event), 0, len(a.subs))
	for _, l := range a.subs {
		listeners = append(listeners, l)
	}
	a.mu.Unlock()

	for _, l := range listeners {
		l(ev)
	}
}

func (a *Adapter) unsubscribe(id uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.subs, id)
}

// Subscription is returned by Subscribe.
type Subscription struct {
	adapter *Adapter
	id      uint64
	once    sync.Once
}

// Unsubscribe stops delivery. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.adapter == nil {
		return
	}
	s.once.Do(func() { s.adapter.unsubscribe(s.id) })
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
