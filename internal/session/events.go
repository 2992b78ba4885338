package session

import (
	"sync"

	"github.com/idozri/vidto-listen/internal/playback"
)

// EventKind identifies a session event.
type EventKind string

const (
	EventState    EventKind = "state"
	EventMedia    EventKind = "media"
	EventTracks   EventKind = "tracks"
	EventPlayback EventKind = "playback"
	EventError    EventKind = "error"
)

// Event is pushed to session subscribers, e.g. the browser's WebSocket.
type Event struct {
	Kind         EventKind          `json:"kind"`
	State        State              `json:"state,omitempty"`
	URL          string             `json:"url,omitempty"`
	Playback     *playback.State    `json:"playback,omitempty"`
	PlaybackKind playback.EventKind `json:"playback_kind,omitempty"`
	Error        string             `json:"error,omitempty"`
}

type eventHub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]func(Event)
}

func (h *eventHub) add(fn func(Event)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs == nil {
		h.subs = make(map[uint64]func(Event))
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

func (h *eventHub) emit(ev Event) {
	h.mu.Lock()
	listeners := make([]func(Event), 0, len(h.subs))
	for _, fn := range h.subs {
		listeners = append(listeners, fn)
	}
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

func (h *eventHub) clear() {
	h.mu.Lock()
	h.subs = nil
	h.mu.Unlock()
}
