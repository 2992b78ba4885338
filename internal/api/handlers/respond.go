package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/idozri/vidto-listen/internal/session"
	"github.com/idozri/vidto-listen/internal/track"
	"github.com/idozri/vidto-listen/internal/upload"
)

func jsonResponse(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// domainError maps package errors to HTTP statuses.
func domainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, track.ErrUnknownTrack), errors.Is(err, track.ErrUnknownEntry):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, session.ErrNotReady), errors.Is(err, session.ErrNoMedia):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, session.ErrNoSession):
		jsonError(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, upload.ErrNoFile), errors.Is(err, upload.ErrMultipleFiles):
		jsonError(w, err.Error(), http.StatusBadRequest)
	default:
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// floatParam parses an optional float query parameter.
func floatParam(r *http.Request, name string) (float64, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	return v, err == nil, err
}
