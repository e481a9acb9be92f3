// Reelfeed - Personalized Trailer Feed Service
// Copyright 2026 Reelfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelfeed/reelfeed

// Package api provides HTTP routing and handlers for the feed service using
// the Chi router. Identity arrives pre-resolved: the upstream gateway
// authenticates and passes the caller as X-User-ID.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/reelfeed/reelfeed/internal/feed"
	"github.com/reelfeed/reelfeed/internal/hydrate"
	"github.com/reelfeed/reelfeed/internal/logging"
	"github.com/reelfeed/reelfeed/internal/models"
	"github.com/reelfeed/reelfeed/internal/usercontext"
)

// userIDHeader carries the authenticated caller, set by the gateway.
const userIDHeader = "X-User-ID"

// Limits bound the limit query parameter.
type Limits struct {
	Default int
	Max     int
}

// Handler serves the feed API.
type Handler struct {
	generator *feed.Generator
	hydrator  *hydrate.Hydrator
	users     usercontext.Loader
	limits    Limits
}

// NewHandler creates a Handler. users may be nil; every request then runs
// with an anonymous cold-start context.
func NewHandler(generator *feed.Generator, hydrator *hydrate.Hydrator, users usercontext.Loader, limits Limits) *Handler {
	if limits.Default <= 0 {
		limits.Default = 10
	}
	if limits.Max <= 0 || limits.Max > 100 {
		limits.Max = 100
	}
	return &Handler{
		generator: generator,
		hydrator:  hydrator,
		users:     users,
		limits:    limits,
	}
}

// Feed handles GET /api/v1/feed.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logging.Ctx(ctx)

	feedType := models.FeedType(r.URL.Query().Get("feed_type"))
	if feedType == "" {
		feedType = models.FeedTypeForYou
	}
	if !feedType.Valid() {
		respondError(w, http.StatusBadRequest, "invalid_feed_type",
			"feed_type must be one of trending, for_you, following", nil)
		return
	}
	if feedType == models.FeedTypeFollowing {
		// The social activity feed is served by the social service.
		respondError(w, http.StatusNotImplemented, "feed_type_unsupported",
			"the following feed is not served by this endpoint", nil)
		return
	}

	limit := h.parseLimit(r.URL.Query().Get("limit"))
	cursor := r.URL.Query().Get("cursor")
	userID := r.Header.Get(userIDHeader)

	user := h.loadUser(r, userID)

	log.Info().
		Str("user_id", user.UserID).
		Str("feed_type", string(feedType)).
		Int("limit", limit).
		Bool("has_cursor", cursor != "").
		Msg("feed request")

	result := h.generator.Generate(ctx, user, feedType, limit, cursor)
	items := h.hydrator.Hydrate(ctx, result.IDs, result.Sources)
	if items == nil {
		items = []models.FeedItem{}
	}

	latency := time.Since(start)
	resp := models.FeedResponse{
		Items: items,
		Meta: models.FeedMeta{
			Count:      len(items),
			HasMore:    len(items) >= limit,
			NextCursor: result.NextCursor,
			FeedType:   string(feedType),
			LatencyMS:  latency.Milliseconds(),
		},
	}

	log.Info().
		Str("user_id", user.UserID).
		Int("items", len(items)).
		Dur("latency", latency).
		Bool("plan_hit", result.PlanHit).
		Msg("feed response")

	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) parseLimit(raw string) int {
	limit := h.limits.Default
	if raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > h.limits.Max {
		limit = h.limits.Max
	}
	return limit
}

// loadUser resolves the caller's context, degrading to anonymous cold start
// when no ID is presented or the profile service cannot answer.
func (h *Handler) loadUser(r *http.Request, userID string) *models.UserContext {
	if userID == "" {
		return usercontext.Anonymous("anonymous")
	}
	if h.users == nil {
		return usercontext.Anonymous(userID)
	}
	user, err := h.users.Load(r.Context(), userID)
	if err != nil {
		logging.Ctx(r.Context()).Warn().
			Str("user_id", userID).
			Err(err).
			Msg("user context degraded to cold start")
		return usercontext.Anonymous(userID)
	}
	return user
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"service":   "reelfeed",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthLive handles GET /api/v1/health/live.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "live"})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(body)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write JSON response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", code).Err(err).Msg("api error")
	}
	respondJSON(w, status, models.ErrorResponse{
		Status:  "error",
		Code:    code,
		Message: message,
	})
}
