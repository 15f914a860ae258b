package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/trace-spatial/trace-app/internal/insight"
	"github.com/trace-spatial/trace-app/internal/state"
	"github.com/trace-spatial/trace-app/internal/store"
)

// Server is the trace HTTP API server.
type Server struct {
	db        *store.DB
	state     *state.Container
	explainer insight.Explainer
	router    chi.Router
	version   string
	started   time.Time
}

// New creates a new Server around the given database, live session
// container, and explainer. A nil explainer disables query recaps.
func New(db *store.DB, st *state.Container, explainer insight.Explainer, version string) *Server {
	s := &Server{
		db:        db,
		state:     st,
		explainer: explainer,
		version:   version,
		started:   time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Ingest: the sensing shim posts here
		r.Post("/episodes", s.handleIngestEpisode)
		r.Post("/zones", s.handleObserveZone)
		r.Post("/transitions", s.handleRecordTransition)
		r.Post("/queries", s.handleCreateQuery)

		// Read side
		r.Get("/graph", s.handleGetGraph)
		r.Get("/zones", s.handleListZones)
		r.Get("/zones/{zoneID}/neighbors", s.handleNeighbors)
		r.Get("/scores", s.handleGetScores)
		r.Get("/queries/recent", s.handleRecentQueries)
		r.Get("/priors", s.handleGetPriors)
		r.Put("/priors", s.handlePutPriors)
		r.Get("/context", s.handleGetContext)

		// Maintenance
		r.Post("/graph/decay", s.handleDecay)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
		"ready":   s.state.Ready(),
	})
}
