// Reelfeed - Personalized Trailer Feed Service
// Copyright 2026 Reelfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelfeed/reelfeed

// Package objectstore fetches JSON documents (index files, the master content
// dictionary) from the public object store that the ingestion pipeline writes
// to, with a local snapshot directory as fallback for development and outage
// rides.
//
// Failure policy: fetches degrade, they do not fail the caller's request. The
// circuit breaker keeps a flapping store from stalling every page load on
// timeouts, and the rate limiter keeps cache-miss storms from hammering it.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// ErrUnavailable is returned when neither the remote store nor the local
// snapshot can produce the document.
var ErrUnavailable = errors.New("objectstore: document unavailable")

// maxDocumentBytes bounds a single fetched document. Index files are a few
// hundred KB; the master dictionary tops out well under this.
const maxDocumentBytes = 32 << 20

// Fetcher retrieves one JSON document into v.
type Fetcher interface {
	FetchJSON(ctx context.Context, bucket, name string, v any) error
}

// Config configures the HTTP client.
type Config struct {
	// BaseURL is the public object root, e.g.
	// https://store.example.com/storage/v1/object/public
	BaseURL string

	// SnapshotDir is a local directory mirroring <bucket>/<name>.json,
	// consulted when the remote fetch fails. Empty disables the fallback.
	SnapshotDir string

	// Timeout bounds a single remote fetch. Default 5s.
	Timeout time.Duration

	// RefreshPerSecond caps remote fetch attempts. Default 5.
	RefreshPerSecond float64
}

// Client fetches documents over HTTP with snapshot fallback.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// New creates a Client.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg Config, logger zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RefreshPerSecond <= 0 {
		cfg.RefreshPerSecond = 5
	}

	settings := gobreaker.Settings{
		Name:     "objectstore",
		Interval: time.Minute,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
		limiter: rate.NewLimiter(rate.Limit(cfg.RefreshPerSecond), 1),
		logger:  logger.With().Str("component", "objectstore").Logger(),
	}
}

// FetchJSON retrieves <bucket>/<name>.json and decodes it into v. The remote
// store is tried first, then the snapshot directory; ErrUnavailable means
// both failed.
func (c *Client) FetchJSON(ctx context.Context, bucket, name string, v any) error {
	data, err := c.fetchRemote(ctx, bucket, name)
	if err != nil {
		c.logger.Warn().
			Str("bucket", bucket).
			Str("name", name).
			Err(err).
			Msg("remote fetch failed, trying snapshot")
		data, err = c.readSnapshot(bucket, name)
	}
	if err != nil {
		return fmt.Errorf("%w: %s/%s", ErrUnavailable, bucket, name)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s/%s: %w", bucket, name, err)
	}
	return nil
}

func (c *Client) fetchRemote(ctx context.Context, bucket, name string) ([]byte, error) {
	if c.cfg.BaseURL == "" {
		return nil, errors.New("no base url configured")
	}
	if !c.limiter.Allow() {
		return nil, errors.New("refresh rate exceeded")
	}

	url := fmt.Sprintf("%s/%s/%s.json", c.cfg.BaseURL, bucket, name)

	return c.breaker.Execute(func() ([]byte, error) {
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
		return io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	})
}

func (c *Client) readSnapshot(bucket, name string) ([]byte, error) {
	if c.cfg.SnapshotDir == "" {
		return nil, errors.New("no snapshot dir configured")
	}
	path := filepath.Join(c.cfg.SnapshotDir, bucket, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return data, nil
}
