// Reelfeed - Personalized Trailer Feed Service
// Copyright 2026 Reelfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelfeed/reelfeed

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/reelfeed/config.yaml",
	"/etc/reelfeed/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all defaults applied. Defaults load
// first, then the config file, then environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   120,
			RateLimitWindow: time.Minute,
		},
		Feed: FeedConfig{
			TrendingRatio:     0.5,
			PersonalizedRatio: 0.3,
			SessionTTL:        10 * time.Minute,
			MinBatch:          50,
			DefaultLimit:      10,
			MaxLimit:          100,
		},
		IndexPool: IndexPoolConfig{
			TTL:             5 * time.Minute,
			RefreshInterval: 4 * time.Minute,
		},
		ObjectStore: ObjectStoreConfig{
			BaseURL:          "",
			SnapshotDir:      "indexes",
			Timeout:          5 * time.Second,
			RefreshPerSecond: 5,
			DictionaryTTL:    10 * time.Minute,
		},
		Sessions: SessionsConfig{
			Store:               "badger",
			Path:                "/data/sessions",
			MaintenanceInterval: 5 * time.Minute,
		},
		Friends: FriendsConfig{
			BaseURL: "",
			Timeout: 2 * time.Second,
		},
		Profile: ProfileConfig{
			BaseURL:   "",
			Timeout:   2 * time.Second,
			CacheTTL:  30 * time.Second,
			CacheSize: 4096,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// REELFEED_FEED_TRENDING_RATIO -> feed.trending_ratio
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first config file that exists, or empty.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists paths parsed as comma-separated slices when they
// arrive from the environment.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated env strings into slices for
// known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envPrefix namespaces the service's environment variables.
const envPrefix = "REELFEED_"

// envTransformFunc maps environment variable names to koanf config paths.
//
// Examples:
//   - REELFEED_HTTP_PORT -> server.port
//   - REELFEED_FEED_TRENDING_RATIO -> feed.trending_ratio
//   - REELFEED_SESSION_STORE_PATH -> sessions.path
func envTransformFunc(key string) string {
	if !strings.HasPrefix(key, envPrefix) {
		return ""
	}
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))

	envMappings := map[string]string{
		// Server mappings
		"http_host":         "server.host",
		"http_port":         "server.port",
		"http_timeout":      "server.timeout",
		"cors_origins":      "server.cors_origins",
		"rate_limit":        "server.rate_limit_reqs",
		"rate_limit_window": "server.rate_limit_window",

		// Feed mappings
		"feed_trending_ratio":     "feed.trending_ratio",
		"feed_personalized_ratio": "feed.personalized_ratio",
		"feed_session_ttl":        "feed.session_ttl",
		"feed_min_batch":          "feed.min_batch",
		"feed_default_limit":      "feed.default_limit",
		"feed_max_limit":          "feed.max_limit",

		// Index pool mappings
		"index_ttl":              "index_pool.ttl",
		"index_refresh_interval": "index_pool.refresh_interval",

		// Object store mappings
		"object_store_url":       "object_store.base_url",
		"object_store_snapshots": "object_store.snapshot_dir",
		"object_store_timeout":   "object_store.timeout",
		"object_store_rate":      "object_store.refresh_per_second",
		"content_dictionary_ttl": "object_store.dictionary_ttl",

		// Session store mappings
		"session_store":      "sessions.store",
		"session_store_path": "sessions.path",
		"session_store_gc":   "sessions.maintenance_interval",

		// Collaborator services
		"friends_url":        "friends.base_url",
		"friends_timeout":    "friends.timeout",
		"profile_url":        "profile.base_url",
		"profile_timeout":    "profile.timeout",
		"profile_cache_ttl":  "profile.cache_ttl",
		"profile_cache_size": "profile.cache_size",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	// Unmapped keys are skipped so stray environment variables cannot
	// pollute the config.
	return ""
}
