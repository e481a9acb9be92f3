// Reelfeed - Personalized Trailer Feed Service
// Copyright 2026 Reelfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelfeed/reelfeed

// Package dedup keeps users from seeing the same item twice. It tracks two
// horizons: the pagination session (exact set in the KV arena, 10 minute TTL)
// and the user's long-term history (exact set for small histories, Bloom
// filter above the threshold, trading ~1% false positives for bounded
// memory).
package dedup

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reelfeed/reelfeed/internal/kvstore"
	"github.com/reelfeed/reelfeed/internal/metrics"
)

// BloomThreshold is the history size above which the exact set gives way to a
// Bloom filter.
const BloomThreshold = 5000

const bloomFPRate = 0.01

// DefaultSessionTTL bounds how long a pagination session survives between
// page fetches.
const DefaultSessionTTL = 10 * time.Minute

// Cursor is the opaque pagination token payload.
type Cursor struct {
	SessionID string `json:"session_id"`
	Offset    int    `json:"offset"`
}

// Tracker manages session and history deduplication state.
type Tracker struct {
	store      kvstore.Store
	sessionTTL time.Duration
	logger     zerolog.Logger
}

// New creates a Tracker over the given KV arena.
func New(store kvstore.Store, sessionTTL time.Duration, logger zerolog.Logger) *Tracker {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &Tracker{
		store:      store,
		sessionTTL: sessionTTL,
		logger:     logger.With().Str("component", "dedup").Logger(),
	}
}

// NewSessionID mints a fresh pagination session ID.
func (t *Tracker) NewSessionID() string {
	return uuid.NewString()
}

// EncodeCursor packs a session ID and offset into an opaque token.
func EncodeCursor(sessionID string, offset int) string {
	payload, _ := json.Marshal(Cursor{SessionID: sessionID, Offset: offset})
	return base64.URLEncoding.EncodeToString(payload)
}

// DecodeCursor unpacks a token. A malformed or empty cursor starts a fresh
// session at offset zero rather than failing the request.
func (t *Tracker) DecodeCursor(cursor string) (sessionID string, offset int) {
	if cursor == "" {
		return t.NewSessionID(), 0
	}
	payload, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return t.NewSessionID(), 0
	}
	var c Cursor
	if err := json.Unmarshal(payload, &c); err != nil || c.SessionID == "" || c.Offset < 0 {
		return t.NewSessionID(), 0
	}
	return c.SessionID, c.Offset
}

// SessionSeenIDs returns the IDs already sent in this session. A KV failure
// returns an empty set: a duplicate is better than a dead page.
func (t *Tracker) SessionSeenIDs(ctx context.Context, sessionID string) map[string]struct{} {
	seen, err := t.store.SetMembers(ctx, sessionKey(sessionID))
	if err != nil {
		metrics.SessionStoreErrors.WithLabelValues("set_members").Inc()
		t.logger.Warn().Str("session_id", sessionID).Err(err).Msg("session read failed")
		return map[string]struct{}{}
	}
	return seen
}

// MarkSent records IDs as sent in this session and slides the session TTL.
func (t *Tracker) MarkSent(ctx context.Context, sessionID string, ids []string) {
	if len(ids) == 0 {
		return
	}
	if err := t.store.SetAdd(ctx, sessionKey(sessionID), t.sessionTTL, ids...); err != nil {
		metrics.SessionStoreErrors.WithLabelValues("set_add").Inc()
		t.logger.Warn().Str("session_id", sessionID).Err(err).Msg("session write failed")
	}
}

// FilterSeen drops candidates present in either the user's history or the
// session set, preserving candidate order.
func FilterSeen(candidates []string, history SeenSet, sessionSeen map[string]struct{}) []string {
	out := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if _, inSession := sessionSeen[id]; inSession {
			continue
		}
		if history != nil && history.Contains(id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}
