// Reelfeed - Personalized Trailer Feed Service
// Copyright 2026 Reelfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelfeed/reelfeed

package kvstore

import (
	"context"
	"sync"
	"time"
)

// Memory implements Store with an in-process map. It exists for tests and
// single-process development runs; production deployments share sessions
// through the Badger store.
type Memory struct {
	mu   sync.Mutex
	data map[string]*memEntry

	// now is swappable so tests can drive TTL expiry.
	now func() time.Time
}

type memEntry struct {
	list      []string
	members   map[string]struct{}
	blob      []byte
	expiresAt time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		data: make(map[string]*memEntry),
		now:  time.Now,
	}
}

// SetClock replaces the store's time source. Test helper.
func (s *Memory) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Close implements Store.
func (s *Memory) Close() error { return nil }

// ListAppend implements Store.
func (s *Memory) ListAppend(ctx context.Context, key string, ttl time.Duration, values ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.liveEntry(key)
	e.list = append(e.list, values...)
	s.touch(e, ttl)
	return nil
}

// ListRange implements Store.
func (s *Memory) ListRange(ctx context.Context, key string, start, stop int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.peek(key)
	if e == nil {
		return []string{}, nil
	}
	lo, hi, ok := clampRange(start, stop, len(e.list))
	if !ok {
		return []string{}, nil
	}
	out := make([]string, hi-lo+1)
	copy(out, e.list[lo:hi+1])
	return out, nil
}

// ListLen implements Store.
func (s *Memory) ListLen(ctx context.Context, key string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if e := s.peek(key); e != nil {
		return len(e.list), nil
	}
	return 0, nil
}

// SetAdd implements Store.
func (s *Memory) SetAdd(ctx context.Context, key string, ttl time.Duration, members ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(members) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.liveEntry(key)
	if e.members == nil {
		e.members = make(map[string]struct{}, len(members))
	}
	for _, m := range members {
		e.members[m] = struct{}{}
	}
	s.touch(e, ttl)
	return nil
}

// SetMembers implements Store.
func (s *Memory) SetMembers(ctx context.Context, key string) (map[string]struct{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]struct{})
	if e := s.peek(key); e != nil {
		for m := range e.members {
			out[m] = struct{}{}
		}
	}
	return out, nil
}

// Put implements Store.
func (s *Memory) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.liveEntry(key)
	e.blob = append([]byte(nil), value...)
	s.touch(e, ttl)
	return nil
}

// Get implements Store.
func (s *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.peek(key)
	if e == nil || e.blob == nil {
		return nil, ErrNotFound
	}
	return append([]byte(nil), e.blob...), nil
}

// liveEntry returns the unexpired entry at key, creating one if needed.
// Must be called with mu held.
func (s *Memory) liveEntry(key string) *memEntry {
	if e := s.peek(key); e != nil {
		return e
	}
	e := &memEntry{}
	s.data[key] = e
	return e
}

// peek returns the entry at key if present and unexpired. Must be called
// with mu held.
func (s *Memory) peek(key string) *memEntry {
	e, ok := s.data[key]
	if !ok {
		return nil
	}
	if !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
		delete(s.data, key)
		return nil
	}
	return e
}

func (s *Memory) touch(e *memEntry, ttl time.Duration) {
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	} else {
		e.expiresAt = time.Time{}
	}
}
