// Reelfeed - Personalized Trailer Feed Service
// Copyright 2026 Reelfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelfeed/reelfeed

// Package usercontext loads the per-request user snapshot (preferences,
// friends, history sample) from the profile service. The engine treats the
// snapshot as read-only; a load failure yields an anonymous cold-start
// context so the feed still serves.
package usercontext

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/reelfeed/reelfeed/internal/cache"
	"github.com/reelfeed/reelfeed/internal/models"
)

// ErrNotFound is returned when the profile service has no record of the user.
var ErrNotFound = errors.New("usercontext: user not found")

// Loader produces the user snapshot for a request.
type Loader interface {
	Load(ctx context.Context, userID string) (*models.UserContext, error)
}

// Anonymous returns the cold-start context used when no user ID is presented
// or the profile service cannot answer.
func Anonymous(userID string) *models.UserContext {
	return &models.UserContext{UserID: userID}
}

// Static serves fixed contexts, for development and tests.
type Static struct {
	Users map[string]*models.UserContext
}

// Load returns the fixed context for userID, or ErrNotFound.
func (s *Static) Load(_ context.Context, userID string) (*models.UserContext, error) {
	if u, ok := s.Users[userID]; ok {
		return u, nil
	}
	return nil, ErrNotFound
}

// HTTPConfig configures the HTTP loader.
type HTTPConfig struct {
	// BaseURL of the profile service.
	BaseURL string

	// Timeout bounds one profile fetch. Default 2s.
	Timeout time.Duration
}

// HTTPLoader fetches contexts from the profile service.
type HTTPLoader struct {
	cfg    HTTPConfig
	http   *http.Client
	logger zerolog.Logger
}

// NewHTTP creates an HTTPLoader.
func NewHTTP(cfg HTTPConfig, logger zerolog.Logger) *HTTPLoader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	return &HTTPLoader{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("component", "usercontext").Logger(),
	}
}

// Load fetches the user's snapshot.
func (l *HTTPLoader) Load(ctx context.Context, userID string) (*models.UserContext, error) {
	url := fmt.Sprintf("%s/api/v1/users/%s/context", l.cfg.BaseURL, userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := l.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile fetch: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("profile fetch: unexpected status %d", resp.StatusCode)
	}

	var u models.UserContext
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("profile decode: %w", err)
	}
	if u.UserID == "" {
		u.UserID = userID
	}
	return &u, nil
}

// Cached wraps a Loader with a short TTL cache so one user's scroll burst
// loads the profile once, not once per page.
type Cached struct {
	inner Loader
	lru   *cache.LRU[*models.UserContext]
}

// NewCached wraps inner with a cache of the given size and TTL.
func NewCached(inner Loader, size int, ttl time.Duration) *Cached {
	return &Cached{inner: inner, lru: cache.NewLRU[*models.UserContext](size, ttl)}
}

// Load returns the cached context when fresh, loading through otherwise.
// Errors are not cached.
func (c *Cached) Load(ctx context.Context, userID string) (*models.UserContext, error) {
	if u, ok := c.lru.Get(userID); ok {
		return u, nil
	}
	u, err := c.inner.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.lru.Add(userID, u)
	return u, nil
}
