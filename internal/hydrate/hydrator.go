// Reelfeed - Personalized Trailer Feed Service
// Copyright 2026 Reelfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelfeed/reelfeed

// Package hydrate expands selected content IDs into full display records via
// the master content dictionary. Only final selections are hydrated, never
// candidates. The contract to callers is one output record per requested ID,
// always: unknown IDs get stub records instead of dropping out.
package hydrate

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/reelfeed/reelfeed/internal/kvstore"
	"github.com/reelfeed/reelfeed/internal/metrics"
	"github.com/reelfeed/reelfeed/internal/models"
	"github.com/reelfeed/reelfeed/internal/objectstore"
)

const (
	contentBucket = "content"
	contentName   = "master_content"

	// dictionaryKey is the shared-cache key for the dictionary blob.
	dictionaryKey = "content_dictionary"

	// DefaultTTL bounds dictionary staleness in both cache tiers.
	DefaultTTL = 10 * time.Minute

	imageIDPrefix = "img_"
)

// Hydrator resolves content IDs against the dictionary. Dictionary lookups
// check the in-process copy, then the shared KV cache, then the object store.
type Hydrator struct {
	store   kvstore.Store
	fetcher objectstore.Fetcher
	ttl     time.Duration
	logger  zerolog.Logger

	mu       sync.RWMutex
	dict     map[string]models.ContentRecord
	loadedAt time.Time
}

// New creates a Hydrator. A nil store disables the shared cache tier.
func New(store kvstore.Store, fetcher objectstore.Fetcher, ttl time.Duration, logger zerolog.Logger) *Hydrator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Hydrator{
		store:   store,
		fetcher: fetcher,
		ttl:     ttl,
		logger:  logger.With().Str("component", "hydrate").Logger(),
	}
}

// Hydrate resolves each ID into a FeedItem, in input order. sources maps IDs
// to the bucket that selected them; IDs absent from the dictionary come back
// as minimal stubs.
func (h *Hydrator) Hydrate(ctx context.Context, ids []string, sources map[string]string) []models.FeedItem {
	if len(ids) == 0 {
		return nil
	}

	dict := h.dictionary(ctx)

	items := make([]models.FeedItem, 0, len(ids))
	missing := 0
	for _, id := range ids {
		rec, ok := dict[id]
		if !ok {
			items = append(items, stubItem(id, sources))
			missing++
			continue
		}
		items = append(items, recordToItem(id, rec, sources))
	}

	if missing > 0 {
		metrics.HydrationStubs.Add(float64(missing))
		h.logger.Warn().
			Int("requested", len(ids)).
			Int("missing", missing).
			Msg("hydration synthesized stubs")
	}
	return items
}

// InvalidateCache drops the in-process dictionary copy so the next request
// reloads.
func (h *Hydrator) InvalidateCache() {
	h.mu.Lock()
	h.dict = nil
	h.loadedAt = time.Time{}
	h.mu.Unlock()
}

// dictionary returns the current ID to record map. An empty map is a valid,
// degraded result; hydration then serves stubs.
func (h *Hydrator) dictionary(ctx context.Context) map[string]models.ContentRecord {
	h.mu.RLock()
	if h.dict != nil && time.Since(h.loadedAt) < h.ttl {
		dict := h.dict
		h.mu.RUnlock()
		return dict
	}
	h.mu.RUnlock()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.dict != nil && time.Since(h.loadedAt) < h.ttl {
		return h.dict
	}

	dict := h.loadShared(ctx)
	if dict == nil {
		dict = h.loadRemote(ctx)
	}
	if dict == nil {
		h.logger.Warn().Msg("no content dictionary available")
		return map[string]models.ContentRecord{}
	}

	h.dict = dict
	h.loadedAt = time.Now()
	metrics.ContentDictionarySize.Set(float64(len(dict)))
	return dict
}

func (h *Hydrator) loadShared(ctx context.Context) map[string]models.ContentRecord {
	if h.store == nil {
		return nil
	}
	blob, err := h.store.Get(ctx, dictionaryKey)
	if err != nil {
		return nil
	}
	var dict map[string]models.ContentRecord
	if err := json.Unmarshal(blob, &dict); err != nil {
		h.logger.Warn().Err(err).Msg("shared dictionary blob corrupt")
		return nil
	}
	return dict
}

func (h *Hydrator) loadRemote(ctx context.Context) map[string]models.ContentRecord {
	var records []models.ContentRecord
	if err := h.fetcher.FetchJSON(ctx, contentBucket, contentName, &records); err != nil {
		h.logger.Warn().Err(err).Msg("remote dictionary fetch failed")
		return nil
	}

	dict := make(map[string]models.ContentRecord, len(records))
	for _, rec := range records {
		if rec.ID != "" {
			dict[rec.ID] = rec
		}
	}

	if h.store != nil {
		if blob, err := json.Marshal(dict); err == nil {
			if err := h.store.Put(ctx, dictionaryKey, blob, h.ttl); err != nil {
				metrics.SessionStoreErrors.WithLabelValues("put").Inc()
				h.logger.Warn().Err(err).Msg("shared dictionary write failed")
			}
		}
	}
	return dict
}

// recordToItem normalizes a dictionary record, defaulting the display fields
// the mobile client requires.
func recordToItem(id string, rec models.ContentRecord, sources map[string]string) models.FeedItem {
	item := models.FeedItem{
		ID:           id,
		TMDBID:       rec.TMDBID,
		MediaType:    rec.MediaType,
		Title:        rec.Title,
		Overview:     rec.Overview,
		PosterPath:   rec.PosterPath,
		BackdropPath: rec.BackdropPath,
		YouTubeKey:   rec.YouTubeKey,
		VideoType:    rec.VideoType,
		ContentType:  rec.ContentType,
		Duration:     rec.Duration,
		ImageURL:     rec.ImageURL,
		ThumbnailURL: rec.ThumbnailURL,
		Poster:       rec.Poster,
		ChannelTitle: rec.ChannelTitle,
		Genres:       rec.Genres,
		Popularity:   rec.Popularity,
		VoteAverage:  rec.VoteAverage,
		ReleaseDate:  rec.ReleaseDate,
		Source:       sourceFor(id, sources, models.SourceTrending),
	}

	if item.YouTubeKey == "" && item.ContentType != models.ContentTypeImage {
		item.YouTubeKey = id
	}
	if item.Title == "" {
		item.Title = "Unknown Title"
	}
	if item.ContentType == "" {
		item.ContentType = models.ContentTypeTrailer
	}
	if item.VideoType == "" {
		item.VideoType = item.ContentType
	}
	if item.Genres == nil {
		item.Genres = []string{}
	}
	return item
}

// stubItem synthesizes a minimal record for an ID the dictionary does not
// know. The img_ prefix convention marks image content.
func stubItem(id string, sources map[string]string) models.FeedItem {
	item := models.FeedItem{
		ID:     id,
		Genres: []string{},
		Source: sourceFor(id, sources, models.SourceUnknown),
	}
	if strings.HasPrefix(id, imageIDPrefix) {
		item.Title = "Image"
		item.ContentType = models.ContentTypeImage
		item.VideoType = models.ContentTypeImage
	} else {
		item.Title = "Video"
		item.ContentType = models.ContentTypeTrailer
		item.VideoType = models.ContentTypeTrailer
		item.YouTubeKey = id
	}
	return item
}

func sourceFor(id string, sources map[string]string, fallback string) string {
	if s, ok := sources[id]; ok {
		return s
	}
	return fallback
}
