package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/paceline/internal/plan"
	"github.com/meltforce/paceline/internal/storage"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db            *storage.DB
	log           *slog.Logger
	apiKey        string
	defaultScheme plan.ZoneScheme
	router        chi.Router
}

// New creates a new Server with all routes configured.
func New(db *storage.DB, defaultScheme plan.ZoneScheme, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		db:            db,
		log:           log,
		apiKey:        apiKey,
		defaultScheme: defaultScheme,
		router:        chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	// Builder preview: pure flatten + estimate, no persistence.
	s.router.Post("/api/v1/preview", s.handlePreview)

	// Workout templates
	s.router.Route("/api/v1/workouts", func(r chi.Router) {
		r.Get("/", s.handleListTemplates)
		r.Post("/", s.handleCreateTemplate)
		r.Get("/{id}", s.handleGetTemplate)
		r.Put("/{id}", s.handleUpdateTemplate)
		r.Delete("/{id}", s.handleDeleteTemplate)
	})

	// Athlete calendar
	s.router.Route("/api/v1/schedule", func(r chi.Router) {
		r.Get("/", s.handleQuerySchedule)
		r.Post("/", s.handleCreateScheduled)
		r.Get("/load", s.handleWeeklyLoad)
		r.Get("/{id}", s.handleGetScheduled)
		r.Get("/{id}/segments", s.handleScheduledSegments)
		r.Put("/{id}/structure", s.handleSetOverride)
		r.Delete("/{id}", s.handleDeleteScheduled)
	})

	// Athletes and zone configuration
	s.router.Route("/api/v1/athletes", func(r chi.Router) {
		r.Get("/", s.handleListAthletes)
		r.Post("/", s.handleCreateAthlete)
		r.Get("/{id}", s.handleGetAthlete)
		r.Get("/{id}/zones", s.handleGetZones)
		r.Put("/{id}/zones", s.handleSetZones)
	})

	// Import (API key required)
	s.router.Route("/api/v1/import", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/", s.handleImport)
	})
}
