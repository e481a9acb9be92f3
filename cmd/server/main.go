// Reelfeed - Personalized Trailer Feed Service
// Copyright 2026 Reelfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelfeed/reelfeed

// Package main is the entry point for the Reelfeed server.
//
// Reelfeed serves personalized, infinitely scrollable trailer feeds. Each
// page mixes trending, personalized, and friend-activity content, deduplicated
// per session, padded with image posts, and hydrated into full content records
// before it goes out the door.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered defaults, YAML file, environment (Koanf v2)
//  2. Session store: BadgerDB (or in-memory) for seen-sets and feed plans
//  3. Object store client: circuit-broken fetcher for index and content documents
//  4. Index pool: cached trending, genre, and community indexes
//  5. Feed generator: mixing, deduplication, and cursor management
//  6. Hydrator: ID-to-record resolution via the shared content dictionary
//  7. HTTP server: REST API with rate limiting and Prometheus metrics
//
// Long-running work (index refresh, store maintenance, the HTTP listener)
// runs under a suture supervisor tree that restarts failed services with
// exponential backoff.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (REELFEED_ prefix, see internal/config)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// Common settings:
//   - REELFEED_HTTP_PORT: listen port (default 8080)
//   - REELFEED_OBJECT_STORE_URL: public object root serving index documents
//   - REELFEED_SESSION_STORE: "badger" (default) or "memory"
//   - REELFEED_FRIENDS_URL: social activity service (optional)
//   - REELFEED_PROFILE_URL: user profile service (optional)
//
// The friends and profile services are optional: without them the feed
// degrades to community-hot content and anonymous profiles rather than
// failing.
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Stops the refresh and maintenance workers
//   - Closes the session store
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reelfeed/reelfeed/internal/api"
	"github.com/reelfeed/reelfeed/internal/config"
	"github.com/reelfeed/reelfeed/internal/dedup"
	"github.com/reelfeed/reelfeed/internal/fallback"
	"github.com/reelfeed/reelfeed/internal/feed"
	"github.com/reelfeed/reelfeed/internal/friends"
	"github.com/reelfeed/reelfeed/internal/hydrate"
	"github.com/reelfeed/reelfeed/internal/indexpool"
	"github.com/reelfeed/reelfeed/internal/kvstore"
	"github.com/reelfeed/reelfeed/internal/logging"
	"github.com/reelfeed/reelfeed/internal/objectstore"
	"github.com/reelfeed/reelfeed/internal/supervisor"
	"github.com/reelfeed/reelfeed/internal/supervisor/services"
	"github.com/reelfeed/reelfeed/internal/usercontext"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("object_store", cfg.ObjectStore.BaseURL).
		Str("session_store", cfg.Sessions.Store).
		Bool("friends_enabled", cfg.Friends.BaseURL != "").
		Bool("profile_enabled", cfg.Profile.BaseURL != "").
		Msg("Configuration loaded")

	// Session KV arena: seen-sets, feed plans, and the shared content
	// dictionary all live here.
	var store kvstore.Store
	var badgerStore *kvstore.Badger
	switch cfg.Sessions.Store {
	case "badger":
		badgerStore, err = kvstore.OpenBadger(
			kvstore.Options{Path: cfg.Sessions.Path},
			logging.WithComponent("kvstore"),
		)
		if err != nil {
			logging.Fatal().Err(err).Str("path", cfg.Sessions.Path).Msg("Failed to open session store")
		}
		store = badgerStore
	default:
		store = kvstore.NewMemory()
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing session store")
		}
	}()
	logging.Info().Str("backend", cfg.Sessions.Store).Msg("Session store ready")

	fetcher := objectstore.New(objectstore.Config{
		BaseURL:          cfg.ObjectStore.BaseURL,
		SnapshotDir:      cfg.ObjectStore.SnapshotDir,
		Timeout:          cfg.ObjectStore.Timeout,
		RefreshPerSecond: cfg.ObjectStore.RefreshPerSecond,
	}, logging.WithComponent("objectstore"))

	pool := indexpool.New(
		indexpool.Config{TTL: cfg.IndexPool.TTL},
		fetcher,
		logging.WithComponent("indexpool"),
	)
	provider := fallback.New(pool, logging.WithComponent("fallback"))

	// Friend activity is optional. A nil source routes the friend bucket
	// through the community-hot fallback.
	var social friends.ActivitySource
	if cfg.Friends.BaseURL != "" {
		social = friends.New(friends.Config{
			BaseURL: cfg.Friends.BaseURL,
			Timeout: cfg.Friends.Timeout,
		}, logging.WithComponent("friends"))
		logging.Info().Str("url", cfg.Friends.BaseURL).Msg("Friend activity service enabled")
	}

	// Profile lookups are optional too. Without them every request is
	// served an anonymous cold-start context.
	var users usercontext.Loader
	if cfg.Profile.BaseURL != "" {
		users = usercontext.NewCached(
			usercontext.NewHTTP(usercontext.HTTPConfig{
				BaseURL: cfg.Profile.BaseURL,
				Timeout: cfg.Profile.Timeout,
			}, logging.WithComponent("usercontext")),
			cfg.Profile.CacheSize,
			cfg.Profile.CacheTTL,
		)
		logging.Info().Str("url", cfg.Profile.BaseURL).Msg("Profile service enabled")
	}

	tracker := dedup.New(store, cfg.Feed.SessionTTL, logging.WithComponent("dedup"))
	hydrator := hydrate.New(store, fetcher, cfg.ObjectStore.DictionaryTTL, logging.WithComponent("hydrate"))

	generator := feed.New(
		feed.Config{
			Ratios: feed.Ratios{
				Trending:     cfg.Feed.TrendingRatio,
				Personalized: cfg.Feed.PersonalizedRatio,
			},
			SessionTTL: cfg.Feed.SessionTTL,
			MinBatch:   cfg.Feed.MinBatch,
		},
		pool,
		provider,
		social,
		tracker,
		store,
		logging.WithComponent("feed"),
	)

	handler := api.NewHandler(generator, hydrator, users, api.Limits{
		Default: cfg.Feed.DefaultLimit,
		Max:     cfg.Feed.MaxLimit,
	})
	router := api.NewRouter(api.RouterConfig{
		CORSOrigins:     cfg.Server.CORSOrigins,
		RateLimitReqs:   cfg.Server.RateLimitReqs,
		RateLimitWindow: cfg.Server.RateLimitWindow,
	}, handler)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	if badgerStore != nil {
		tree.AddStorageService(services.NewStoreMaintenanceService(
			badgerStore,
			cfg.Sessions.MaintenanceInterval,
			logging.WithComponent("maintenance"),
		))
	}
	tree.AddWorkerService(services.NewIndexRefreshService(
		pool,
		cfg.IndexPool.RefreshInterval,
		logging.WithComponent("refresh"),
	))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain until the supervisor closes the channel.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	logging.Info().Msg("Server stopped gracefully")
}
