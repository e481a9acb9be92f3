// Reelfeed - Personalized Trailer Feed Service
// Copyright 2026 Reelfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelfeed/reelfeed

// Package friends queries the social service for content a user's friends
// recently engaged with. The friend bucket is the smallest slice of the mixed
// feed, so failures here degrade to community-hot substitution upstream
// rather than erroring the request.
package friends

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
)

// ErrUnavailable is returned when the social service cannot answer.
var ErrUnavailable = errors.New("friends: social service unavailable")

// ActivitySource yields content IDs from friend activity.
type ActivitySource interface {
	Activity(ctx context.Context, friendIDs []string, limit int) ([]string, error)
}

// Config configures the Client.
type Config struct {
	// BaseURL of the social service, e.g. http://social.internal:8080
	BaseURL string

	// Timeout bounds one activity query. Default 2s: the friend bucket is
	// not worth stalling a page for.
	Timeout time.Duration
}

// Client queries the social service over HTTP.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]string]
	logger  zerolog.Logger
}

// New creates a Client.
func New(cfg Config, logger zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}

	settings := gobreaker.Settings{
		Name:     "friends",
		Interval: time.Minute,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[[]string](settings),
		logger:  logger.With().Str("component", "friends").Logger(),
	}
}

type activityResponse struct {
	ItemIDs []string `json:"itemIds"`
}

// Activity returns up to limit content IDs from the given friends' recent
// engagement, most recent first.
func (c *Client) Activity(ctx context.Context, friendIDs []string, limit int) ([]string, error) {
	if len(friendIDs) == 0 || limit <= 0 {
		return nil, nil
	}
	if c.cfg.BaseURL == "" {
		return nil, ErrUnavailable
	}

	ids, err := c.breaker.Execute(func() ([]string, error) {
		return c.fetch(ctx, friendIDs, limit)
	})
	if err != nil {
		c.logger.Warn().Int("friends", len(friendIDs)).Err(err).Msg("activity query failed")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (c *Client) fetch(ctx context.Context, friendIDs []string, limit int) ([]string, error) {
	url := fmt.Sprintf("%s/api/v1/activity?users=%s&limit=%d",
		c.cfg.BaseURL, strings.Join(friendIDs, ","), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var out activityResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.ItemIDs, nil
}
