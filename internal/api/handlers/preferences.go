package handlers

import (
	"net/http"

	"github.com/idozri/vidto-listen/internal/catalog"
)

type PreferencesHandler struct {
	prefs *catalog.Preferences
}

func NewPreferencesHandler(prefs *catalog.Preferences) *PreferencesHandler {
	return &PreferencesHandler{prefs: prefs}
}

type languagePreference struct {
	Language string            `json:"language"`
	Label    string            `json:"label"`
	Entry    *catalog.Language `json:"entry,omitempty"`
}

func preferenceFor(code string) languagePreference {
	p := languagePreference{Language: code, Label: "Select Language"}
	if l, ok := catalog.Find(code); ok {
		p.Label = l.Name
		p.Entry = &l
	}
	return p
}

// GetLanguage returns the last-used language; "auto" when none was chosen.
func (h *PreferencesHandler) GetLanguage(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, preferenceFor(h.prefs.LastUsedLanguage()), http.StatusOK)
}

// SetLanguage stores the last-used language. Codes and aliases are accepted
// case-insensitively; "auto" resets the choice.
func (h *PreferencesHandler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Language string `json:"language"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	code, ok := catalog.Normalize(req.Language)
	if !ok {
		jsonError(w, "unknown language: "+req.Language, http.StatusBadRequest)
		return
	}
	h.prefs.SetLastUsedLanguage(code)
	jsonResponse(w, preferenceFor(code), http.StatusOK)
}
