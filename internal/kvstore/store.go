// Reelfeed - Personalized Trailer Feed Service
// Copyright 2026 Reelfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelfeed/reelfeed

// Package kvstore provides the shared key-value arena that holds per-session
// feed state: the "sent" set and the append-only feed plan, plus the shared
// content-dictionary blob. Every server process serving a session goes through
// this store; no process keeps its own copy of another session's state.
//
// Three primitives cover everything the engine needs: list append/range, set
// add/members, and blob get/put. Every write re-applies the key's TTL, so idle
// sessions expire on their own.
//
// Appends are atomic per call. Two concurrent appends to the same plan both
// land intact; which lands first is unspecified (same-session concurrent
// pagination is outside the consistency guarantee).
package kvstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is the session arena contract. Missing or expired keys read as empty
// lists and sets rather than errors; only blob Get distinguishes absence.
type Store interface {
	// ListAppend appends values to the list at key and resets its TTL.
	// Atomic per call.
	ListAppend(ctx context.Context, key string, ttl time.Duration, values ...string) error

	// ListRange returns elements [start, stop] of the list at key, both
	// bounds inclusive, clamped to the list. A stop of -1 means the end of
	// the list. Missing or expired keys yield an empty slice.
	ListRange(ctx context.Context, key string, start, stop int) ([]string, error)

	// ListLen returns the length of the list at key, 0 if absent.
	ListLen(ctx context.Context, key string) (int, error)

	// SetAdd adds members to the set at key and resets its TTL.
	SetAdd(ctx context.Context, key string, ttl time.Duration, members ...string) error

	// SetMembers returns the members of the set at key. Missing or expired
	// keys yield an empty map.
	SetMembers(ctx context.Context, key string) (map[string]struct{}, error)

	// Put stores a blob value at key with the given TTL.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns the blob at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Close releases the underlying storage.
	Close() error
}

// clampRange maps inclusive [start, stop] bounds onto a list of length n,
// Redis LRANGE style. Returns (0, 0, false) when the window is empty.
func clampRange(start, stop, n int) (lo, hi int, ok bool) {
	if n == 0 {
		return 0, 0, false
	}
	if stop < 0 {
		stop = n + stop
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop {
		return 0, 0, false
	}
	return start, stop, true
}
