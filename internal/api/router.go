// Reelfeed - Personalized Trailer Feed Service
// Copyright 2026 Reelfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelfeed/reelfeed

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig configures the HTTP surface.
type RouterConfig struct {
	CORSOrigins     []string
	RateLimitReqs   int
	RateLimitWindow time.Duration
}

// NewRouter assembles the service's HTTP routes.
func NewRouter(cfg RouterConfig, handler *Handler) http.Handler {
	if cfg.RateLimitReqs <= 0 {
		cfg.RateLimitReqs = 120
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Minute
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", userIDHeader},
		MaxAge:         300,
	}))

	// Health endpoints: permissive rate limiting so monitors can poll.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(httprate.LimitByIP(1000, time.Minute))
		r.Get("/", handler.Health)
		r.Get("/live", handler.HealthLive)
	})

	// Feed endpoint: per-caller rate limiting keyed by user, falling back
	// to IP for anonymous traffic.
	r.Route("/api/v1/feed", func(r chi.Router) {
		r.Use(httprate.Limit(
			cfg.RateLimitReqs,
			cfg.RateLimitWindow,
			httprate.WithKeyFuncs(keyByUserOrIP),
		))
		r.Use(PrometheusMetrics)
		r.Get("/", handler.Feed)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

func keyByUserOrIP(r *http.Request) (string, error) {
	if uid := r.Header.Get(userIDHeader); uid != "" {
		return uid, nil
	}
	return httprate.KeyByIP(r)
}
