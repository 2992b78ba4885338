package api

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/idozri/vidto-listen/internal/api/handlers"
	"github.com/idozri/vidto-listen/internal/api/middleware"
)

// maxJSONBody caps non-upload request bodies.
const maxJSONBody = 1 << 20

func NewRouter(ctx context.Context, s *Server) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(s.log))
	r.Use(middleware.CORS(s.cfg.CORSOrigins))

	// Handlers
	sessionHandler := handlers.NewSessionHandler(s.sessions, s.jwt, s.uploads, s.prefs, s.probe, s.cfg.MaxUploadBytes, s.log)
	tracksHandler := handlers.NewTracksHandler()
	playerHandler := handlers.NewPlayerHandler()
	socketHandler := handlers.NewSocketHandler(s.bridge, s.cfg.CORSOrigins, s.log)
	languagesHandler := handlers.NewLanguagesHandler(s.prefs)
	preferencesHandler := handlers.NewPreferencesHandler(s.prefs)
	projectsHandler := handlers.NewProjectsHandler(s.database, s.jwt, s.log)
	jobHandler := handlers.NewJobHandler(s.queue)
	healthHandler := handlers.NewHealthHandler(s.sessions)

	sessionLimiter := middleware.NewRateLimiter(ctx, 20, time.Minute)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.Health)

		// Public catalog and dashboard
		r.Group(func(r chi.Router) {
			r.Use(middleware.MaxBodySize(maxJSONBody))

			r.With(sessionLimiter.Handler).Post("/sessions", sessionHandler.Create)

			r.Get("/languages", languagesHandler.List)
			r.Get("/languages/suggestions", languagesHandler.Suggestions)
			r.Get("/languages/{code}", languagesHandler.Get)

			r.Get("/preferences/language", preferencesHandler.GetLanguage)
			r.Put("/preferences/language", preferencesHandler.SetLanguage)

			r.Get("/projects", projectsHandler.List)
			r.Get("/projects/{id}/thumbnail", projectsHandler.Thumbnail)
		})

		// Session-scoped routes
		r.Route("/session", func(r chi.Router) {
			r.Use(middleware.SessionAuth(s.jwt, s.sessions))

			// Upload sets its own, larger limit
			r.Post("/upload", sessionHandler.Upload)
			r.Get("/media", sessionHandler.Media)
			r.Get("/player/ws", socketHandler.Serve)

			r.Group(func(r chi.Router) {
				r.Use(middleware.MaxBodySize(maxJSONBody))

				r.Get("/", sessionHandler.Get)
				r.Post("/export", sessionHandler.Export)

				r.Get("/tracks", tracksHandler.List)
				r.Put("/tracks/{code}", tracksHandler.Toggle)
				r.Post("/tracks/{code}/seek/{id}", tracksHandler.Seek)
				r.Get("/tracks/{code}/vtt", tracksHandler.VTT)

				r.Post("/player/toggle", playerHandler.Toggle)
				r.Post("/player/seek", playerHandler.Seek)
				r.Post("/player/skip", playerHandler.Skip)
				r.Post("/player/volume", playerHandler.Volume)

				r.Get("/jobs", jobHandler.ListJobs)
				r.Get("/jobs/{id}", jobHandler.GetJob)
			})
		})
	})

	return r
}
