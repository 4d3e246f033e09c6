package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.metrics.Middleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.MethodNotAllowed(handleMethodNotAllowed)
	r.NotFound(handleNotFound)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Get(s.wsPath(), s.handleWebSocket)

	r.Group(s.mountRoutes)
	r.Route("/api", s.mountRoutes)

	return r
}

// mountRoutes registers the dashboard and ingestion routes on r.
func (s *Server) mountRoutes(r chi.Router) {
	r.Route("/bin", func(r chi.Router) {
		r.Post("/update", s.handleIngest)
		r.Get("/status", s.handleStatus)
		r.Get("/history", s.handleHistory)
	})

	r.Route("/registry", func(r chi.Router) {
		r.Get("/list", s.handleRegistryList)
		r.Post("/add", s.handleRegistryAdd)
		r.Put("/update", s.handleRegistryUpdate)
		r.Delete("/delete", s.handleRegistryDelete)
		r.Get("/audit", s.handleRegistryAudit)
	})
}

func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return "/ws"
	}
	return s.wsCfg.Path
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
