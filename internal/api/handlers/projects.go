package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/idozri/vidto-listen/internal/auth"
	"github.com/idozri/vidto-listen/internal/db"
	"github.com/idozri/vidto-listen/internal/logging"
)

type ProjectsHandler struct {
	database *db.Database
	signer   *auth.JWTService
	log      *logging.Logger
}

func NewProjectsHandler(database *db.Database, signer *auth.JWTService, logger *logging.Logger) *ProjectsHandler {
	return &ProjectsHandler{database: database, signer: signer, log: logger.Named("projects")}
}

// List returns the dashboard, newest first.
func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.database.ListProjects()
	if err != nil {
		jsonError(w, "failed to list projects", http.StatusInternalServerError)
		return
	}
	for i := range projects {
		p := &projects[i]
		if !p.HasThumbnail {
			continue
		}
		sig, err := h.signer.SignThumbnail(p.ID)
		if err != nil {
			h.log.Errorw("failed to sign thumbnail", "project", p.ID, "error", err)
			continue
		}
		p.ThumbnailURL = "/api/projects/" + p.ID + "/thumbnail?sig=" + url.QueryEscape(sig)
	}
	jsonResponse(w, projects, http.StatusOK)
}

// Thumbnail serves a project's thumbnail to holders of the signed link
// handed out by List.
func (h *ProjectsHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.signer.VerifyThumbnail(r.URL.Query().Get("sig"), id); err != nil {
		jsonError(w, "invalid thumbnail link", http.StatusForbidden)
		return
	}
	p, err := h.database.GetProject(id)
	if errors.Is(err, sql.ErrNoRows) {
		jsonError(w, "project not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to load project", http.StatusInternalServerError)
		return
	}
	if !p.HasThumbnail {
		jsonError(w, "no thumbnail", http.StatusNotFound)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, p.Thumbnail)
}
