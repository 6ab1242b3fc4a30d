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
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Session endpoints (no auth required)
		r.Post("/auth/signup", s.handleSignup)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.sessionMiddleware)

			r.Get("/auth/me", s.handleMe)

			// Location and membership endpoints
			r.Route("/locations", func(r chi.Router) {
				r.Get("/my", s.handleMyLocations)
				r.Post("/", s.handleCreateLocation)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetLocation)
					r.Post("/select", s.handleSelectLocation)
					r.Get("/members", s.handleListMembers)
					r.Put("/members/{userID}", s.handleGrantMember)
					r.Delete("/members/{userID}", s.handleRevokeMember)
				})
			})

			// Customer endpoints (scoped to the active location)
			r.Route("/customers", func(r chi.Router) {
				r.Get("/", s.handleListCustomers)
				r.Post("/", s.handleCreateCustomer)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetCustomer)
					r.Patch("/", s.handleUpdateCustomer)
					r.Post("/archive", s.handleArchiveCustomer)
				})
			})

			r.Get("/dashboard", s.handleDashboard)

			// Audit trail (superadmin, checked in handler)
			r.Get("/audit", s.handleListAudit)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
