/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address from X-Forwarded-For / X-Real-IP
  3. Logger:     Request logging
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for frontends
  6. instrument: Prometheus request count and latency per route

ROUTE GROUPS:
  /api/pillars, /api/daeun,    Chart computations
  /api/saeun, /api/analysis
  /api/locations               Named places for true solar time
  /api/terms/*                 Solar terms
  /api/almanac/*               Almanac search and seeding
  /metrics                     Prometheus scrape endpoint
  /health                      Liveness

SECURITY NOTE:
  No authentication middleware. The seed endpoint writes to the almanac
  store and should not be exposed publicly.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultAllowedOrigins is used when NewRouter is given no origins.
var DefaultAllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins ...string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(instrument)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Chart routes
		r.Get("/pillars", h.GetPillars)
		r.Get("/daeun", h.GetDaeun)
		r.Get("/saeun", h.GetSaeun)
		r.Get("/analysis", h.GetAnalysis)
		r.Get("/locations", h.GetLocations)

		// Solar term routes
		r.Route("/terms", func(r chi.Router) {
			r.Get("/", h.GetTerms)
			r.Get("/current", h.GetCurrentTerm)
		})

		// Almanac routes
		r.Route("/almanac", func(r chi.Router) {
			r.Get("/ganzhi", h.FindByGanzhi)
			r.Post("/seed", h.SeedAlmanac)
			r.Get("/seed/runs", h.ListSeedRuns)
			r.Get("/seed/runs/{id}", h.GetSeedRun)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", h.Health)

	return r
}
