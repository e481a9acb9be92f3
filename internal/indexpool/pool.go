// Reelfeed - Personalized Trailer Feed Service
// Copyright 2026 Reelfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelfeed/reelfeed

// Package indexpool caches the lightweight candidate indexes the ingestion
// pipeline publishes (trending, per-genre, community hot) and answers ID
// selection queries from them without touching the object store on every
// request.
package indexpool

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelfeed/reelfeed/internal/cache"
	"github.com/reelfeed/reelfeed/internal/metrics"
	"github.com/reelfeed/reelfeed/internal/models"
	"github.com/reelfeed/reelfeed/internal/objectstore"
)

// Genres lists the per-genre indexes the pipeline publishes.
var Genres = []string{
	"action", "comedy", "drama", "horror", "thriller",
	"romance", "scifi", "fantasy", "documentary", "animation",
}

const (
	indexBucket   = "indexes"
	contentBucket = "content"

	trendingIndex     = "global_trending"
	communityHotIndex = "community_hot"
	masterContent     = "master_content"

	defaultTTL       = 5 * time.Minute
	maxCachedIndexes = 64
)

// Config configures the Pool.
type Config struct {
	// TTL is how long a loaded index stays fresh. Default 5 minutes.
	TTL time.Duration
}

// Pool loads and caches candidate indexes.
type Pool struct {
	fetcher objectstore.Fetcher
	cache   *cache.LRU[[]models.IndexItem]
	logger  zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Pool backed by the given fetcher.
func New(cfg Config, fetcher objectstore.Fetcher, logger zerolog.Logger) *Pool {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Pool{
		fetcher: fetcher,
		cache:   cache.NewLRU[[]models.IndexItem](maxCachedIndexes, ttl),
		logger:  logger.With().Str("component", "indexpool").Logger(),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Load returns the named index, from cache when fresh. A missing or
// unreachable index yields an empty slice, never an error: feed assembly
// degrades to other buckets instead of failing.
func (p *Pool) Load(ctx context.Context, name string) []models.IndexItem {
	if items, ok := p.cache.Get(name); ok {
		return items
	}

	var items []models.IndexItem
	if err := p.fetcher.FetchJSON(ctx, indexBucket, name, &items); err != nil {
		metrics.IndexPoolRefreshes.WithLabelValues(name, "empty").Inc()
		p.logger.Warn().Str("index", name).Err(err).Msg("index load failed")
		return nil
	}

	p.cache.Add(name, items)
	// The fetcher absorbs the snapshot fallback, so "loaded" covers both
	// remote and snapshot-served documents.
	metrics.IndexPoolRefreshes.WithLabelValues(name, "loaded").Inc()
	metrics.IndexPoolSize.WithLabelValues(name).Set(float64(len(items)))
	p.logger.Debug().Str("index", name).Int("count", len(items)).Msg("index loaded")
	return items
}

// TrendingIDs returns the top trending IDs by score.
func (p *Pool) TrendingIDs(ctx context.Context, limit int) []string {
	return topIDs(p.Load(ctx, trendingIndex), limit)
}

// CommunityHotIDs returns the top community post IDs by score.
func (p *Pool) CommunityHotIDs(ctx context.Context, limit int) []string {
	return topIDs(p.Load(ctx, communityHotIndex), limit)
}

// GenreIDs returns up to limit IDs drawn evenly across the given genres,
// highest score first within each genre, deduplicated across genres.
func (p *Pool) GenreIDs(ctx context.Context, genres []string, limit int) []string {
	if len(genres) == 0 || limit <= 0 {
		return nil
	}

	perGenre := limit / len(genres)
	if perGenre < 1 {
		perGenre = 1
	}

	ids := make([]string, 0, limit)
	seen := make(map[string]struct{}, limit)

	for _, genre := range genres {
		items := sortedByScore(p.Load(ctx, genreIndexName(genre)))

		taken := 0
		for _, item := range items {
			if _, dup := seen[item.ID]; dup {
				continue
			}
			ids = append(ids, item.ID)
			seen[item.ID] = struct{}{}
			if len(ids) >= limit {
				return ids
			}
			taken++
			if taken >= perGenre {
				break
			}
		}
	}
	return ids
}

// ImageIDs returns up to limit IDs of image content from the master content
// dictionary, shuffled for variety.
func (p *Pool) ImageIDs(ctx context.Context, limit int) []string {
	if limit <= 0 {
		return nil
	}

	records, ok := p.cache.Get(masterContent)
	if !ok {
		var raw []models.ContentRecord
		if err := p.fetcher.FetchJSON(ctx, contentBucket, masterContent, &raw); err != nil {
			metrics.IndexPoolRefreshes.WithLabelValues(masterContent, "empty").Inc()
			p.logger.Warn().Err(err).Msg("master content load failed")
			return nil
		}
		records = make([]models.IndexItem, 0, len(raw))
		for _, rec := range raw {
			if rec.ContentType != models.ContentTypeImage || rec.ID == "" {
				continue
			}
			records = append(records, models.IndexItem{ID: rec.ID})
		}
		p.cache.Add(masterContent, records)
		metrics.IndexPoolRefreshes.WithLabelValues(masterContent, "loaded").Inc()
	}

	ids := make([]string, len(records))
	for i, item := range records {
		ids[i] = item.ID
	}

	p.mu.Lock()
	p.rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	p.mu.Unlock()

	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}

// Refresh reloads the core indexes, bypassing the cache. Used by the
// background refresh worker to keep hot indexes warm.
func (p *Pool) Refresh(ctx context.Context) {
	names := []string{trendingIndex, communityHotIndex}
	for _, g := range Genres {
		names = append(names, genreIndexName(g))
	}
	for _, name := range names {
		p.cache.Remove(name)
		p.Load(ctx, name)
	}
}

// Invalidate drops every cached index so the next query reloads.
func (p *Pool) Invalidate() {
	p.cache.Clear()
	p.logger.Info().Msg("index cache cleared")
}

func genreIndexName(genre string) string {
	g := strings.ReplaceAll(strings.ToLower(genre), " ", "_")
	return "genre_" + g
}

// sortedByScore returns a score-descending copy. Cached slices are shared
// across requests and must not be reordered in place.
func sortedByScore(items []models.IndexItem) []models.IndexItem {
	out := make([]models.IndexItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func topIDs(items []models.IndexItem, limit int) []string {
	if limit <= 0 {
		return nil
	}
	items = sortedByScore(items)
	if len(items) > limit {
		items = items[:limit]
	}
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}
