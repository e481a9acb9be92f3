// Reelfeed - Personalized Trailer Feed Service
// Copyright 2026 Reelfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelfeed/reelfeed

// Package fallback fills feed buckets for cold-start users. A user with no
// genre preferences still gets a personalized bucket (default popular genres)
// and a user with no friends still gets a social bucket (community hot posts),
// so the mixed feed never collapses to trending-only.
package fallback

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/reelfeed/reelfeed/internal/models"
)

// DefaultGenres back the personalized bucket when a user has picked none.
var DefaultGenres = []string{"action", "comedy", "drama"}

// Reason strings attached to substituted items.
const (
	ReasonColdStart     = "Popular picks to get you started"
	ReasonDefaultGenres = "Trending in popular categories"
	ReasonCommunityHot  = "Hot in the community"
)

// IndexSource is the slice of the index pool the provider draws from.
type IndexSource interface {
	GenreIDs(ctx context.Context, genres []string, limit int) []string
	CommunityHotIDs(ctx context.Context, limit int) []string
}

// Provider substitutes index-pool content for missing personalization inputs.
type Provider struct {
	pool   IndexSource
	logger zerolog.Logger
}

// New creates a Provider over the given index source.
func New(pool IndexSource, logger zerolog.Logger) *Provider {
	return &Provider{
		pool:   pool,
		logger: logger.With().Str("component", "fallback").Logger(),
	}
}

// PersonalizedIDs returns candidates for the personalized bucket. Cold-start
// users get the default genre mix; everyone else gets their selected genres.
func (p *Provider) PersonalizedIDs(ctx context.Context, user *models.UserContext, limit int) []string {
	if user.IsColdStartGenres() {
		p.logger.Debug().
			Str("user_id", user.UserID).
			Strs("default_genres", DefaultGenres).
			Msg("cold start genres, using defaults")
		return p.pool.GenreIDs(ctx, DefaultGenres, limit)
	}
	return p.pool.GenreIDs(ctx, user.Preferences.SelectedGenres, limit)
}

// FriendIDs returns candidates for the friend-activity bucket of a user with
// no friends. Users with friends are served by the social activity client, so
// this returns nil for them.
func (p *Provider) FriendIDs(ctx context.Context, user *models.UserContext, limit int) []string {
	if user.HasFriends() {
		return nil
	}
	p.logger.Debug().
		Str("user_id", user.UserID).
		Msg("cold start friends, using community hot")
	return p.pool.CommunityHotIDs(ctx, limit)
}

// Reason describes substituted content to the client.
func Reason(genreFallback, friendFallback bool) string {
	switch {
	case genreFallback && friendFallback:
		return ReasonColdStart
	case genreFallback:
		return ReasonDefaultGenres
	case friendFallback:
		return ReasonCommunityHot
	}
	return ""
}
