// Reelfeed - Personalized Trailer Feed Service
// Copyright 2026 Reelfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelfeed/reelfeed

// Package feed assembles personalized feed pages. The Generator mixes
// trending, personalized and friend-activity candidates into a per-session
// feed plan stored in the KV arena, so the first page pays for batch
// generation and every later page is a plan slice.
package feed

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelfeed/reelfeed/internal/dedup"
	"github.com/reelfeed/reelfeed/internal/friends"
	"github.com/reelfeed/reelfeed/internal/kvstore"
	"github.com/reelfeed/reelfeed/internal/metrics"
	"github.com/reelfeed/reelfeed/internal/models"
)

// Ratios splits a mixed batch across buckets. Trending and personalized are
// truncated shares; friend takes the remainder so the three always sum to
// the batch size.
type Ratios struct {
	Trending     float64
	Personalized float64
}

// DefaultRatios is the 50/30/20 mix.
var DefaultRatios = Ratios{Trending: 0.5, Personalized: 0.3}

// Config configures the Generator.
type Config struct {
	Ratios Ratios

	// SessionTTL bounds plan and session-set lifetime. Default 10 minutes.
	SessionTTL time.Duration

	// MinBatch is the smallest batch generated on the slow path. Default 50.
	MinBatch int
}

// IndexSource is the slice of the index pool the Generator draws from.
type IndexSource interface {
	TrendingIDs(ctx context.Context, limit int) []string
	CommunityHotIDs(ctx context.Context, limit int) []string
	ImageIDs(ctx context.Context, limit int) []string
}

// FallbackSource fills buckets for cold-start users.
type FallbackSource interface {
	PersonalizedIDs(ctx context.Context, user *models.UserContext, limit int) []string
	FriendIDs(ctx context.Context, user *models.UserContext, limit int) []string
}

// Result is one generated feed page.
type Result struct {
	IDs        []string
	NextCursor string
	// Sources maps freshly generated IDs to the bucket that selected them.
	// Plan-hit pages carry no attribution; hydration defaults apply.
	Sources map[string]string
	PlanHit bool
}

// Generator orchestrates feed page assembly.
type Generator struct {
	cfg      Config
	pool     IndexSource
	fallback FallbackSource
	social   friends.ActivitySource
	tracker  *dedup.Tracker
	store    kvstore.Store
	logger   zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Generator. social may be nil when no social service is
// configured; users with friends then fall back to community content.
func New(
	cfg Config,
	pool IndexSource,
	fb FallbackSource,
	social friends.ActivitySource,
	tracker *dedup.Tracker,
	store kvstore.Store,
	logger zerolog.Logger,
) *Generator {
	if cfg.Ratios.Trending <= 0 && cfg.Ratios.Personalized <= 0 {
		cfg.Ratios = DefaultRatios
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = dedup.DefaultSessionTTL
	}
	if cfg.MinBatch <= 0 {
		cfg.MinBatch = 50
	}
	return &Generator{
		cfg:      cfg,
		pool:     pool,
		fallback: fb,
		social:   social,
		tracker:  tracker,
		store:    store,
		logger:   logger.With().Str("component", "generator").Logger(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Generate returns the next feed page for the given cursor. Re-issuing the
// same cursor returns the same slice: pages are read from the session's feed
// plan, and the slow path only appends to it.
func (g *Generator) Generate(ctx context.Context, user *models.UserContext, feedType models.FeedType, limit int, cursor string) Result {
	start := time.Now()
	sessionID, offset := g.tracker.DecodeCursor(cursor)

	// Fast path: the plan already covers this window.
	cached := g.planSlice(ctx, sessionID, offset, limit)
	if len(cached) >= limit {
		g.logger.Debug().
			Str("user_id", user.UserID).
			Str("session_id", sessionID).
			Int("offset", offset).
			Msg("feed plan hit")
		metrics.ObserveFeedRequest(string(feedType), true, time.Since(start))
		return Result{
			IDs:        cached,
			NextCursor: dedup.EncodeCursor(sessionID, offset+limit),
			PlanHit:    true,
		}
	}

	// Slow path: generate a batch ahead of the window and append it.
	sessionSeen := g.tracker.SessionSeenIDs(ctx, sessionID)

	batchSize := limit * 3
	if batchSize < g.cfg.MinBatch {
		batchSize = g.cfg.MinBatch
	}

	g.logger.Info().
		Str("user_id", user.UserID).
		Str("feed_type", string(feedType)).
		Int("batch_size", batchSize).
		Msg("generating feed batch")

	batch, sources := g.generateBatch(ctx, user, feedType, batchSize, sessionSeen)

	planOK := true
	if len(batch) > 0 {
		if err := g.store.ListAppend(ctx, planKey(sessionID), g.cfg.SessionTTL, batch...); err != nil {
			metrics.SessionStoreErrors.WithLabelValues("list_append").Inc()
			g.logger.Warn().Str("session_id", sessionID).Err(err).Msg("plan append failed")
			planOK = false
		}
		g.tracker.MarkSent(ctx, sessionID, batch)
	}

	// Re-read the plan so the page is the contiguous window including the
	// fresh batch. Concurrent extensions of one session interleave in
	// append order; same-session concurrent pagination is outside the
	// consistency guarantee.
	var page []string
	if planOK {
		page = g.planSlice(ctx, sessionID, offset, limit)
	}
	if page == nil {
		if len(batch) > limit {
			page = batch[:limit]
		} else {
			page = batch
		}
	}

	metrics.ObserveFeedRequest(string(feedType), false, time.Since(start))
	return Result{
		IDs:        page,
		NextCursor: dedup.EncodeCursor(sessionID, offset+len(page)),
		Sources:    sources,
	}
}

// generateBatch mixes, dedupes and orders one new batch.
func (g *Generator) generateBatch(ctx context.Context, user *models.UserContext, feedType models.FeedType, count int, sessionSeen map[string]struct{}) ([]string, map[string]string) {
	history := dedup.NewSeenSet(user.SeenIDs)
	sources := make(map[string]string)

	var selected []string
	if feedType == models.FeedTypeTrending {
		candidates := g.pool.TrendingIDs(ctx, count*4)
		selected = dedup.FilterSeen(candidates, history, sessionSeen)
		if len(selected) > count {
			selected = selected[:count]
		}
		for _, id := range selected {
			sources[id] = models.SourceTrending
		}
	} else {
		selected = g.mixedBatch(ctx, user, count, history, sessionSeen, sources)
		selected = g.tieredShuffle(selected)
	}

	// The image pool reshuffles on every batch; images pass through the
	// same dedup horizons as the video buckets.
	exclude := make(map[string]struct{}, len(sessionSeen)+len(selected))
	for id := range sessionSeen {
		exclude[id] = struct{}{}
	}
	for _, id := range selected {
		exclude[id] = struct{}{}
	}
	imageIDs := dedup.FilterSeen(g.pool.ImageIDs(ctx, imageBudget(count)), history, exclude)
	for _, id := range imageIDs {
		sources[id] = models.SourceImage
	}
	batch := mixImages(selected, imageIDs)

	for _, id := range batch {
		metrics.FeedItemsServed.WithLabelValues(sourceOrUnknown(sources, id)).Inc()
	}
	return batch, sources
}

// mixedBatch applies the trending/personalized/friend split, with each
// bucket over-fetched 2x to survive dedup, and backfills any shortfall from
// trending surplus.
func (g *Generator) mixedBatch(ctx context.Context, user *models.UserContext, count int, history dedup.SeenSet, sessionSeen map[string]struct{}, sources map[string]string) []string {
	tCount, pCount, fCount := bucketSizes(count, g.cfg.Ratios)

	var (
		wg                             sync.WaitGroup
		trending, personalized, friend []string
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		trending = g.pool.TrendingIDs(ctx, tCount*2)
	}()
	go func() {
		defer wg.Done()
		personalized = g.fallback.PersonalizedIDs(ctx, user, pCount*2)
	}()
	go func() {
		defer wg.Done()
		friend = g.friendCandidates(ctx, user, fCount*2)
	}()
	wg.Wait()

	trending = dedup.FilterSeen(trending, history, sessionSeen)
	personalized = dedup.FilterSeen(personalized, history, sessionSeen)
	friend = dedup.FilterSeen(friend, history, sessionSeen)

	collected := make([]string, 0, count)
	inBatch := make(map[string]struct{}, count)

	take := func(ids []string, target int, source, bucket string) {
		added := 0
		for _, id := range ids {
			if added >= target {
				break
			}
			if _, dup := inBatch[id]; dup {
				continue
			}
			collected = append(collected, id)
			inBatch[id] = struct{}{}
			sources[id] = source
			added++
		}
		if added < target {
			metrics.FeedBucketShortfall.WithLabelValues(bucket).Inc()
		}
	}

	take(trending, tCount, models.SourceTrending, "trending")
	take(personalized, pCount, models.SourcePersonalized, "personalized")
	take(friend, fCount, friendSource(user), "friend")

	// Trending surplus absorbs bucket shortfalls.
	if len(collected) < count {
		for _, id := range trending {
			if len(collected) >= count {
				break
			}
			if _, dup := inBatch[id]; dup {
				continue
			}
			collected = append(collected, id)
			inBatch[id] = struct{}{}
			sources[id] = models.SourceTrending
		}
	}
	return collected
}

// friendCandidates queries the social service for users with friends and
// substitutes community content when they have none or the service is down.
func (g *Generator) friendCandidates(ctx context.Context, user *models.UserContext, limit int) []string {
	if !user.HasFriends() {
		return g.fallback.FriendIDs(ctx, user, limit)
	}
	if g.social != nil {
		ids, err := g.social.Activity(ctx, user.FriendIDs, limit)
		if err == nil && len(ids) > 0 {
			return ids
		}
		if err != nil {
			g.logger.Warn().Str("user_id", user.UserID).Err(err).Msg("friend activity degraded")
		}
	}
	return g.pool.CommunityHotIDs(ctx, limit)
}

// planSlice reads [offset, offset+limit) from the session's feed plan. A KV
// failure reads as an empty plan.
func (g *Generator) planSlice(ctx context.Context, sessionID string, offset, limit int) []string {
	ids, err := g.store.ListRange(ctx, planKey(sessionID), offset, offset+limit-1)
	if err != nil {
		metrics.SessionStoreErrors.WithLabelValues("list_range").Inc()
		g.logger.Warn().Str("session_id", sessionID).Err(err).Msg("plan read failed")
		return nil
	}
	return ids
}

// tieredShuffle adds variety while keeping ranking intent: short lists are
// fully shuffled; longer lists lead with a random pick from the top 5,
// then the shuffled rest of the top 5, then the fully shuffled tail.
func (g *Generator) tieredShuffle(items []string) []string {
	if len(items) <= 1 {
		return items
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if len(items) <= 5 {
		out := make([]string, len(items))
		copy(out, items)
		g.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		return out
	}

	first := g.rng.Intn(5)
	out := make([]string, 0, len(items))
	out = append(out, items[first])

	rest := make([]string, 0, 4)
	for i := 0; i < 5; i++ {
		if i != first {
			rest = append(rest, items[i])
		}
	}
	g.rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	out = append(out, rest...)

	tail := make([]string, len(items)-5)
	copy(tail, items[5:])
	g.rng.Shuffle(len(tail), func(i, j int) { tail[i], tail[j] = tail[j], tail[i] })
	return append(out, tail...)
}

// mixImages inserts one image after every three videos, passing remaining
// videos through once the image supply runs out.
func mixImages(videoIDs, imageIDs []string) []string {
	if len(imageIDs) == 0 {
		return videoIDs
	}

	out := make([]string, 0, len(videoIDs)+len(imageIDs))
	imgIdx := 0
	for i, id := range videoIDs {
		out = append(out, id)
		if (i+1)%3 == 0 && imgIdx < len(imageIDs) {
			out = append(out, imageIDs[imgIdx])
			imgIdx++
		}
	}
	return out
}

func bucketSizes(total int, r Ratios) (trending, personalized, friend int) {
	trending = int(float64(total) * r.Trending)
	personalized = int(float64(total) * r.Personalized)
	friend = total - trending - personalized
	return trending, personalized, friend
}

func imageBudget(count int) int {
	budget := count / 3
	if budget < 10 {
		budget = 10
	}
	return budget
}

func friendSource(user *models.UserContext) string {
	if user.HasFriends() {
		return models.SourceFriend
	}
	return models.SourceCommunity
}

func sourceOrUnknown(sources map[string]string, id string) string {
	if s, ok := sources[id]; ok {
		return s
	}
	return models.SourceUnknown
}

func planKey(sessionID string) string {
	return "feed_plan:" + sessionID
}
