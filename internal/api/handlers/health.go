package handlers

import (
	"net/http"

	"github.com/idozri/vidto-listen/internal/session"
)

type HealthHandler struct {
	sessions *session.Manager
}

func NewHealthHandler(sessions *session.Manager) *HealthHandler {
	return &HealthHandler{sessions: sessions}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]any{
		"status":   "ok",
		"sessions": h.sessions.Len(),
	}, http.StatusOK)
}
