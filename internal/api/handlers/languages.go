package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/idozri/vidto-listen/internal/catalog"
)

type LanguagesHandler struct {
	prefs *catalog.Preferences
}

func NewLanguagesHandler(prefs *catalog.Preferences) *LanguagesHandler {
	return &LanguagesHandler{prefs: prefs}
}

// List searches the catalog with ?q=; without it the whole catalog is
// returned in order.
func (h *LanguagesHandler) List(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, catalog.Search(r.URL.Query().Get("q")), http.StatusOK)
}

// Suggestions lists the last-used language first, then the defaults.
func (h *LanguagesHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, catalog.Suggestions(h.prefs.LastUsedLanguage()), http.StatusOK)
}

func (h *LanguagesHandler) Get(w http.ResponseWriter, r *http.Request) {
	l, ok := catalog.Find(chi.URLParam(r, "code"))
	if !ok {
		jsonError(w, "language not found", http.StatusNotFound)
		return
	}
	jsonResponse(w, l, http.StatusOK)
}
