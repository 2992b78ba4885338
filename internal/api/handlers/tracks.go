package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/idozri/vidto-listen/internal/api/middleware"
	"github.com/idozri/vidto-listen/internal/timeline"
)

type TracksHandler struct{}

func NewTracksHandler() *TracksHandler {
	return &TracksHandler{}
}

// List renders every track at ?t=, or at the current playback time.
func (h *TracksHandler) List(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSession(r)

	now, ok, err := floatParam(r, "t")
	if err != nil {
		jsonError(w, "t must be a number of seconds", http.StatusBadRequest)
		return
	}
	if !ok {
		if p := s.Player(); p != nil {
			now = p.State().CurrentTime
		}
	}

	jsonResponse(w, map[string]any{
		"state":  s.State(),
		"time":   now,
		"clock":  timeline.FormatClock(now),
		"tracks": s.Views(now),
	}, http.StatusOK)
}

// Toggle sets one track's enabled flag.
func (h *TracksHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Enabled == nil {
		jsonError(w, "enabled is required", http.StatusBadRequest)
		return
	}

	s := middleware.GetSession(r)
	code := chi.URLParam(r, "code")
	if err := s.SetTrackEnabled(code, *req.Enabled); err != nil {
		domainError(w, err)
		return
	}
	t, _ := s.Track(code)
	jsonResponse(w, t, http.StatusOK)
}

// Seek moves playback to the start of a subtitle entry.
func (h *TracksHandler) Seek(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSession(r)
	st, err := s.SeekToEntry(chi.URLParam(r, "code"), chi.URLParam(r, "id"))
	if err != nil {
		domainError(w, err)
		return
	}
	jsonResponse(w, map[string]any{
		"time":     st.CurrentTime,
		"playback": st,
	}, http.StatusOK)
}

// VTT serves a track as WebVTT for a <track> element.
func (h *TracksHandler) VTT(w http.ResponseWriter, r *http.Request) {
	t, err := middleware.GetSession(r).Track(chi.URLParam(r, "code"))
	if err != nil {
		domainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/vtt; charset=utf-8")
	timeline.WriteVTT(w, t.Subtitles)
}
