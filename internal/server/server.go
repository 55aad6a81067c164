// Package server exposes the roster and the simulators over HTTP and streams
// live matches over WebSocket.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/maxncode/darthub/internal/random"
	"github.com/maxncode/darthub/internal/roster"
	"github.com/maxncode/darthub/pkg/sim"
)

// Limits applied to client supplied parameters
const (
	maxTrials       = 200_000
	maxPacingDelay  = 10 * time.Second
	defaultTopLines = 10
)

// Options configure a Server.
type Options struct {
	AllowedOrigins []string
	RequestTimeout time.Duration

	// Seed returns the seed for requests that do not carry one.
	Seed func() uint64
}

// Server holds the handlers' dependencies.
type Server struct {
	roster *roster.Roster
	cal    sim.Calibration
	seed   func() uint64
	router chi.Router
}

// New builds the router.
func New(r *roster.Roster, cal sim.Calibration, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.Seed == nil {
		opts.Seed = random.MustSeed
	}

	s := &Server{roster: r, cal: cal, seed: opts.Seed}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	router.Get("/health", s.HealthCheck)

	// Live matches run for minutes; keep them out of the request timeout.
	router.Get("/api/v1/matches/live", s.LiveMatch)

	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(opts.RequestTimeout))
		r.Get("/api/v1/players", s.ListPlayers)
		r.Get("/api/v1/players/{id}", s.GetPlayer)
		r.Post("/api/v1/matches", s.PlayMatch)
		r.Post("/api/v1/simulations", s.Simulate)
	})

	s.router = router
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
