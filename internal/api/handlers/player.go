package handlers

import (
	"net/http"

	"github.com/idozri/vidto-listen/internal/api/middleware"
	"github.com/idozri/vidto-listen/internal/playback"
	"github.com/idozri/vidto-listen/internal/session"
)

type PlayerHandler struct{}

func NewPlayerHandler() *PlayerHandler {
	return &PlayerHandler{}
}

// control runs fn against the current player and replies with its state.
func control(w http.ResponseWriter, r *http.Request, fn func(p *playback.Adapter) error) {
	p := middleware.GetSession(r).Player()
	if p == nil {
		domainError(w, session.ErrNoMedia)
		return
	}
	if err := fn(p); err != nil {
		jsonError(w, "player unavailable: "+err.Error(), http.StatusBadGateway)
		return
	}
	jsonResponse(w, p.State(), http.StatusOK)
}

func (h *PlayerHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	control(w, r, (*playback.Adapter).TogglePlay)
}

func (h *PlayerHandler) Seek(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Time *float64 `json:"time"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Time == nil {
		jsonError(w, "time is required", http.StatusBadRequest)
		return
	}
	control(w, r, func(p *playback.Adapter) error { return p.Seek(*req.Time) })
}

func (h *PlayerHandler) Skip(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Delta *float64 `json:"delta"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Delta == nil {
		jsonError(w, "delta is required", http.StatusBadRequest)
		return
	}
	control(w, r, func(p *playback.Adapter) error { return p.Skip(*req.Delta) })
}

func (h *PlayerHandler) Volume(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Volume *float64 `json:"volume"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Volume == nil {
		jsonError(w, "volume is required", http.StatusBadRequest)
		return
	}
	control(w, r, func(p *playback.Adapter) error { return p.SetVolume(*req.Volume) })
}
