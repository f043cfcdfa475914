// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/wacrm/internal/middleware"
)

// Authenticator attaches an auth.AuthSubject to authenticated requests.
type Authenticator interface {
	Authenticate(next http.Handler) http.Handler
}

// Authorizer rejects requests the subject's roles do not permit.
type Authorizer interface {
	AuthorizeRequest(next http.Handler) http.Handler
}

// Router wires handlers, authentication, authorization and Chi middleware.
type Router struct {
	handler       *Handler
	authn         Authenticator
	authz         Authorizer
	chiMiddleware *ChiMiddleware
	metrics       http.Handler
}

// NewRouter creates a router. A nil chiMw uses DefaultChiMiddlewareConfig.
func NewRouter(handler *Handler, authn Authenticator, authz Authorizer, chiMw *ChiMiddleware) *Router {
	if chiMw == nil {
		chiMw = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		authn:         authn,
		authz:         authz,
		chiMiddleware: chiMw,
		metrics:       promhttp.Handler(),
	}
}

// Setup builds the HTTP handler.
//
// Middleware order on /api/v1/system:
//
//	RateLimit -> APISecurityHeaders -> PrometheusMetrics -> Authenticate -> AuthorizeRequest
//
// install and restore additionally pass RateLimitUpdate.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()
	h := router.handler

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "Resource not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Method(http.MethodGet, "/metrics", router.metrics)

	r.Route("/api/v1/system", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.authn.Authenticate)
		r.Use(router.authz.AuthorizeRequest)

		r.Get("/version", h.Version)

		r.Route("/update", func(r chi.Router) {
			r.Get("/check", h.CheckUpdate)
			r.Get("/backups", h.ListBackups)
			r.Get("/status", h.UpdateStatus)
			r.Get("/history", h.UpdateHistory)

			r.Group(func(r chi.Router) {
				r.Use(router.chiMiddleware.RateLimitUpdate())
				r.Post("/install", h.InstallUpdate)
				r.Post("/restore", h.RestoreBackup)
			})
		})
	})

	return r
}
