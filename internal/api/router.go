// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/snapvault/internal/middleware"
)

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler *Handler
	chi     *ChiMiddleware
}

// NewRouter creates a Router. A nil middleware config uses the defaults.
func NewRouter(handler *Handler, cfg *ChiMiddlewareConfig) *Router {
	return &Router{
		handler: handler,
		chi:     NewChiMiddleware(cfg),
	}
}

// Setup builds the HTTP handler.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()
	h := router.handler

	// Global middleware, outermost first
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chi.CORS())
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(APISecurityHeaders())

		r.Route("/health", func(r chi.Router) {
			r.Get("/", h.Health)
			r.Get("/live", h.HealthLive)
			r.Get("/ready", h.HealthReady)
		})

		r.Route("/backups", func(r chi.Router) {
			r.Use(router.chi.RateLimit("backups"))

			r.Post("/tenants/{tenantID}/run", h.HandleForceBackup)
			r.Get("/storage", h.HandleStorageStats)
			r.Get("/failures", h.HandleFailureStats)
			r.Get("/logs", h.HandleRecentLogs)
			r.Get("/logs/stats", h.HandleLogStats)
			r.Get("/validations", h.HandleValidations)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(router.chi.RateLimit("notifications"))

			r.Get("/recipients", h.HandleListRecipients)
			r.Post("/recipients", h.HandleAddRecipient)
			r.Delete("/recipients/{id}", h.HandleRemoveRecipient)
			r.Get("/email", h.HandleGetEmailConfig)
			r.Put("/email", h.HandleUpdateEmailConfig)
			r.Get("/status", h.HandleNotificationStatus)
		})
	})

	return r
}
