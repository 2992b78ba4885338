package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/idozri/vidto-listen/internal/api/middleware"
	"github.com/idozri/vidto-listen/internal/auth"
	"github.com/idozri/vidto-listen/internal/catalog"
	"github.com/idozri/vidto-listen/internal/ffmpeg"
	"github.com/idozri/vidto-listen/internal/logging"
	"github.com/idozri/vidto-listen/internal/session"
	"github.com/idozri/vidto-listen/internal/storage"
	"github.com/idozri/vidto-listen/internal/upload"
)

// multipart parts above this size spill to temporary files
const multipartMemory = 32 << 20

// Prober reads media metadata from a stored file.
type Prober func(path string) (*ffmpeg.MediaInfo, error)

type SessionHandler struct {
	sessions  *session.Manager
	jwt       *auth.JWTService
	uploads   *storage.Store
	prefs     *catalog.Preferences
	probe     Prober
	maxUpload int64
	log       *logging.Logger
}

func NewSessionHandler(sessions *session.Manager, jwt *auth.JWTService, uploads *storage.Store,
	prefs *catalog.Preferences, probe Prober, maxUpload int64, logger *logging.Logger) *SessionHandler {
	return &SessionHandler{
		sessions:  sessions,
		jwt:       jwt,
		uploads:   uploads,
		prefs:     prefs,
		probe:     probe,
		maxUpload: maxUpload,
		log:       logger.Named("upload"),
	}
}

// Create starts a new session and returns its bearer token.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()
	token, err := h.jwt.GenerateToken(s.ID())
	if err != nil {
		h.sessions.Remove(s.ID())
		jsonError(w, "failed to issue token", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, map[string]string{
		"token":      token,
		"session_id": s.ID(),
	}, http.StatusCreated)
}

// Get returns the session snapshot.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, middleware.GetSession(r).Snapshot(), http.StatusOK)
}

// Upload accepts exactly one file in the "file" field and starts processing
// it. A file whose type looks wrong is still accepted and flagged.
func (h *SessionHandler) Upload(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSession(r)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "file too large", http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	fh, err := upload.Single(r.MultipartForm.File["file"])
	if err != nil {
		domainError(w, err)
		return
	}

	opts, err := h.options(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	src, err := fh.Open()
	if err != nil {
		jsonError(w, "failed to read upload", http.StatusBadRequest)
		return
	}
	defer src.Close()

	file, err := upload.Receive(h.uploads, fh.Filename, fh.Header.Get("Content-Type"), src)
	if err != nil {
		h.log.Errorw("failed to store upload", "file", fh.Filename, "error", err)
		jsonError(w, "failed to store upload", http.StatusInternalServerError)
		return
	}

	if h.probe != nil {
		if info, err := h.probe(file.Path); err == nil {
			file.Duration = info.Duration
		} else {
			h.log.Debugw("probe failed", "file", file.Name, "error", err)
		}
	}

	h.prefs.SetLastUsedLanguage(opts.Language)

	if err := s.SelectFile(file, opts); err != nil {
		h.uploads.Remove(file.Path)
		domainError(w, err)
		return
	}
	jsonResponse(w, s.Snapshot(), http.StatusAccepted)
}

func (h *SessionHandler) options(r *http.Request) (session.Options, error) {
	opts := session.Options{Language: catalog.AutoDetect}
	if v := r.FormValue("language"); v != "" {
		code, ok := catalog.Normalize(v)
		if !ok {
			return opts, errors.New("unknown language: " + v)
		}
		opts.Language = code
	}
	if v := r.FormValue("translate_to_english"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New("translate_to_english must be a boolean")
		}
		opts.TranslateToEnglish = b
	}
	return opts, nil
}

// Media serves the current file with range support for the <video> element.
func (h *SessionHandler) Media(w http.ResponseWriter, r *http.Request) {
	f := middleware.GetSession(r).File()
	if f == nil {
		domainError(w, session.ErrNoMedia)
		return
	}
	if f.ContentType != "" {
		w.Header().Set("Content-Type", f.ContentType)
	}
	http.ServeFile(w, r, f.Path)
}

// Export acknowledges an export request.
func (h *SessionHandler) Export(w http.ResponseWriter, r *http.Request) {
	ack, err := middleware.GetSession(r).Export()
	if err != nil {
		domainError(w, err)
		return
	}
	jsonResponse(w, ack, http.StatusAccepted)
}
