package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)

		// Hand state and commands
		r.Route("/hand", func(r chi.Router) {
			r.Get("/snapshot", s.handleSnapshot)
			r.Get("/tactile/{region}", s.handleTactileRegion)
			r.Get("/pose", s.handlePose)
			r.Get("/shape", s.handleShape)
			r.Get("/contacts", s.handleContacts)

			r.Get("/joints", s.handleGetJoints)
			r.Put("/joints", s.handleSetJoints)
			r.Put("/speed", s.handleSetSpeed)
			r.Put("/force", s.handleSetForce)
		})

		// External tracking state
		r.Get("/tracking", s.handleTracking)

		// Pose presets
		r.Route("/poses", func(r chi.Router) {
			r.Get("/", s.handleListPoses)
			r.Post("/", s.handleCreatePose)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetPose)
				r.Patch("/", s.handleUpdatePose)
				r.Delete("/", s.handleDeletePose)
				r.Post("/apply", s.handleApplyPose)
			})
		})

		// WebSocket stream
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   s.version,
		"connected": s.deviceConnected(),
	})
}
