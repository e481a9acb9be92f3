// Reelfeed - Personalized Trailer Feed Service
// Copyright 2026 Reelfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelfeed/reelfeed

// Package config loads and validates service configuration from layered
// sources: built-in defaults, an optional YAML file, and environment
// variables, in increasing priority.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the feed service.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Feed        FeedConfig        `koanf:"feed"`
	IndexPool   IndexPoolConfig   `koanf:"index_pool"`
	ObjectStore ObjectStoreConfig `koanf:"object_store"`
	Sessions    SessionsConfig    `koanf:"sessions"`
	Friends     FriendsConfig     `koanf:"friends"`
	Profile     ProfileConfig     `koanf:"profile"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout         time.Duration `koanf:"timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"min=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// FeedConfig configures feed mixing and pagination.
type FeedConfig struct {
	TrendingRatio     float64       `koanf:"trending_ratio" validate:"gt=0,lt=1"`
	PersonalizedRatio float64       `koanf:"personalized_ratio" validate:"gt=0,lt=1"`
	SessionTTL        time.Duration `koanf:"session_ttl"`
	MinBatch          int           `koanf:"min_batch" validate:"min=1"`
	DefaultLimit      int           `koanf:"default_limit" validate:"min=1,max=100"`
	MaxLimit          int           `koanf:"max_limit" validate:"min=1,max=100"`
}

// IndexPoolConfig configures index caching and refresh.
type IndexPoolConfig struct {
	TTL             time.Duration `koanf:"ttl"`
	RefreshInterval time.Duration `koanf:"refresh_interval"`
}

// ObjectStoreConfig configures the index and content document source.
type ObjectStoreConfig struct {
	BaseURL          string        `koanf:"base_url"`
	SnapshotDir      string        `koanf:"snapshot_dir"`
	Timeout          time.Duration `koanf:"timeout"`
	RefreshPerSecond float64       `koanf:"refresh_per_second"`
	DictionaryTTL    time.Duration `koanf:"dictionary_ttl"`
}

// SessionsConfig configures the session KV arena.
type SessionsConfig struct {
	// Store selects the backend: "badger" or "memory".
	Store string `koanf:"store" validate:"oneof=badger memory"`

	// Path is the badger directory. Empty runs badger in memory.
	Path string `koanf:"path"`

	// MaintenanceInterval spaces value-log GC runs.
	MaintenanceInterval time.Duration `koanf:"maintenance_interval"`
}

// FriendsConfig configures the social activity service client.
type FriendsConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

// ProfileConfig configures the user profile service client.
type ProfileConfig struct {
	BaseURL   string        `koanf:"base_url"`
	Timeout   time.Duration `koanf:"timeout"`
	CacheTTL  time.Duration `koanf:"cache_ttl"`
	CacheSize int           `koanf:"cache_size" validate:"min=1"`
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Validate checks field constraints and cross-field invariants.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return err
	}

	if sum := c.Feed.TrendingRatio + c.Feed.PersonalizedRatio; sum >= 1 {
		return fmt.Errorf("feed ratios: trending (%.2f) + personalized (%.2f) must leave a friend share below 1.0",
			c.Feed.TrendingRatio, c.Feed.PersonalizedRatio)
	}
	if c.Feed.DefaultLimit > c.Feed.MaxLimit {
		return fmt.Errorf("feed: default_limit %d exceeds max_limit %d", c.Feed.DefaultLimit, c.Feed.MaxLimit)
	}
	return nil
}
