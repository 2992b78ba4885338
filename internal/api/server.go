package api

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/idozri/vidto-listen/internal/api/handlers"
	"github.com/idozri/vidto-listen/internal/auth"
	"github.com/idozri/vidto-listen/internal/catalog"
	"github.com/idozri/vidto-listen/internal/config"
	"github.com/idozri/vidto-listen/internal/db"
	"github.com/idozri/vidto-listen/internal/db/models"
	"github.com/idozri/vidto-listen/internal/ffmpeg"
	"github.com/idozri/vidto-listen/internal/job"
	"github.com/idozri/vidto-listen/internal/logging"
	"github.com/idozri/vidto-listen/internal/playback"
	"github.com/idozri/vidto-listen/internal/processing"
	"github.com/idozri/vidto-listen/internal/session"
	"github.com/idozri/vidto-listen/internal/storage"
	"github.com/idozri/vidto-listen/internal/track"
	"github.com/idozri/vidto-listen/internal/upload"
)

const sweepInterval = 5 * time.Minute

// Server owns everything the HTTP API serves: sessions, stored uploads, the
// job queue and the dashboard.
type Server struct {
	cfg       *config.Config
	database  *db.Database
	queue     *job.JobQueue
	jwt       *auth.JWTService
	uploads   *storage.Store
	prefs     *catalog.Preferences
	sessions  *session.Manager
	bridge    *handlers.Bridge
	extractor processing.Extractor
	log       *logging.Logger

	// Replaced in tests that run without ffmpeg.
	probe     handlers.Prober
	thumbnail func(inputPath, outputPath string, duration float64) error
}

// NewServer wires the API on top of an open database. Uploads left over
// from a previous run are removed, since their sessions are gone.
func NewServer(cfg *config.Config, database *db.Database, logger *logging.Logger) (*Server, error) {
	uploads, err := storage.NewStore(cfg.UploadPath)
	if err != nil {
		return nil, err
	}
	if n, err := uploads.Purge(); err != nil {
		return nil, fmt.Errorf("purge uploads: %w", err)
	} else if n > 0 {
		logger.Infow("removed orphaned uploads", "count", n)
	}
	if err := os.MkdirAll(cfg.ThumbnailPath, 0755); err != nil {
		return nil, fmt.Errorf("create thumbnail dir: %w", err)
	}

	queue := job.NewJobQueue(database.DB(), logger)
	mock := processing.NewMock(cfg.ProcessingDelay)
	queue.RegisterHandler(job.JobExtract, mock.HandleJob)

	s := &Server{
		cfg:       cfg,
		database:  database,
		queue:     queue,
		jwt:       auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL),
		uploads:   uploads,
		prefs:     catalog.NewPreferences(database, logger),
		bridge:    handlers.NewBridge(),
		extractor: processing.NewQueued(queue),
		log:       logger,
		probe:     ffmpeg.Probe,
		thumbnail: ffmpeg.GenerateThumbnail,
	}
	s.sessions = session.NewManager(cfg.SessionTTL, s.sessionConfig, logger)
	return s, nil
}

func (s *Server) sessionConfig(id string) session.Config {
	return session.Config{
		Extractor: s.extractor,
		Element: func(f *upload.File) playback.Element {
			return s.bridge.Element(id)
		},
		MediaURL: func(f *upload.File) string {
			return "/api/session/media?v=" + f.ID
		},
		Release: func(f *upload.File) error {
			return s.uploads.Remove(f.Path)
		},
		OnReady: s.recordProject,
		OnClose: func(sess *session.Session) {
			s.bridge.Forget(sess.ID())
		},
		Logger: s.log,
	}
}

// recordProject adds a finished session to the dashboard, with a thumbnail
// for video files.
func (s *Server) recordProject(sess *session.Session, f *upload.File, tracks []track.Track) {
	p := &models.Project{
		ID:            uuid.New().String(),
		Title:         f.Name,
		Duration:      f.Duration,
		SubtitleCount: track.NewSet(tracks).SubtitleCount(),
	}
	if pl := sess.Player(); pl != nil {
		if d := pl.State().Duration; d > 0 {
			p.Duration = d
		}
	}
	for _, t := range tracks {
		p.Languages = append(p.Languages, t.Code)
	}
	if err := s.database.CreateProject(p); err != nil {
		s.log.Errorw("failed to record project", "file", f.Name, "error", err)
		return
	}

	if f.Kind != upload.KindVideo || s.thumbnail == nil {
		return
	}
	out := filepath.Join(s.cfg.ThumbnailPath, p.ID+".jpg")
	if err := s.thumbnail(f.Path, out, p.Duration); err != nil {
		s.log.Warnw("thumbnail generation failed", "file", f.Name, "error", err)
		return
	}
	if err := s.database.SetProjectThumbnail(p.ID, out); err != nil {
		s.log.Errorw("failed to save thumbnail", "project", p.ID, "error", err)
	}
}

// Handler returns the HTTP handler. ctx bounds background work such as rate
// limiter cleanup.
func (s *Server) Handler(ctx context.Context) *chi.Mux {
	return NewRouter(ctx, s)
}

// Run sweeps expired sessions until ctx is done, then stops the queue.
func (s *Server) Run(ctx context.Context) {
	s.sessions.Run(ctx, sweepInterval)
	s.queue.Stop()
}

// Sessions exposes the session manager.
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}
