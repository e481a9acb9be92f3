// Reelfeed - Personalized Trailer Feed Service
// Copyright 2026 Reelfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelfeed/reelfeed

package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/reelfeed/reelfeed/internal/metrics"
)

// conflictRetries bounds the retry loop for read-modify-write transactions
// that lose a serialization conflict to a concurrent writer.
const conflictRetries = 5

// Badger implements Store on a BadgerDB database. Expired keys become
// invisible to reads immediately; the maintenance loop reclaims their space.
type Badger struct {
	db     *badger.DB
	logger zerolog.Logger
}

// Options configures OpenBadger.
type Options struct {
	// Path is the on-disk location of the database. Empty means in-memory,
	// which is suitable only for a single-process deployment or tests.
	Path string
}

// OpenBadger opens (or creates) the arena database.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func OpenBadger(opts Options, logger zerolog.Logger) (*Badger, error) {
	bopts := badger.DefaultOptions(opts.Path).
		WithLogger(nil).
		WithInMemory(opts.Path == "")

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	return &Badger{
		db:     db,
		logger: logger.With().Str("component", "kvstore").Logger(),
	}, nil
}

// Close flushes and closes the database.
func (s *Badger) Close() error {
	return s.db.Close()
}

// ListAppend appends values to the list at key and resets its TTL.
func (s *Badger) ListAppend(ctx context.Context, key string, ttl time.Duration, values ...string) error {
	if len(values) == 0 {
		return nil
	}
	return s.updateStrings(ctx, key, ttl, func(current []string) []string {
		return append(current, values...)
	})
}

// ListRange returns elements [start, stop] of the list at key.
func (s *Badger) ListRange(ctx context.Context, key string, start, stop int) ([]string, error) {
	list, err := s.readStrings(ctx, key)
	if err != nil {
		return nil, err
	}

	lo, hi, ok := clampRange(start, stop, len(list))
	if !ok {
		return []string{}, nil
	}
	out := make([]string, hi-lo+1)
	copy(out, list[lo:hi+1])
	return out, nil
}

// ListLen returns the length of the list at key.
func (s *Badger) ListLen(ctx context.Context, key string) (int, error) {
	list, err := s.readStrings(ctx, key)
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

// SetAdd adds members to the set at key and resets its TTL.
func (s *Badger) SetAdd(ctx context.Context, key string, ttl time.Duration, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	return s.updateStrings(ctx, key, ttl, func(current []string) []string {
		have := make(map[string]struct{}, len(current))
		for _, m := range current {
			have[m] = struct{}{}
		}
		for _, m := range members {
			if _, ok := have[m]; !ok {
				current = append(current, m)
				have[m] = struct{}{}
			}
		}
		return current
	})
}

// SetMembers returns the members of the set at key.
func (s *Badger) SetMembers(ctx context.Context, key string) (map[string]struct{}, error) {
	list, err := s.readStrings(ctx, key)
	if err != nil {
		return nil, err
	}
	members := make(map[string]struct{}, len(list))
	for _, m := range list {
		members[m] = struct{}{}
	}
	return members, nil
}

// Put stores a blob value at key with the given TTL.
func (s *Badger) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(entry(key, value, ttl))
	})
}

// Get returns the blob at key, or ErrNotFound.
func (s *Badger) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RunMaintenance reclaims space from expired entries until ctx is cancelled.
// Badger hides expired keys at read time; value log GC actually drops them.
func (s *Badger) RunMaintenance(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// ErrNoRewrite just means there was nothing worth rewriting.
			err := s.db.RunValueLogGC(0.5)
			switch {
			case err == nil:
				metrics.SessionStoreGCRuns.Inc()
			case !errors.Is(err, badger.ErrNoRewrite):
				s.logger.Warn().Err(err).Msg("value log gc failed")
			}
		}
	}
}

// readStrings loads and decodes the []string payload at key. Missing or
// expired keys yield an empty slice.
func (s *Badger) readStrings(ctx context.Context, key string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var list []string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &list)
		})
	})
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

// updateStrings applies fn to the current []string payload at key inside one
// transaction, retrying on serialization conflicts. The TTL is re-applied on
// every write so active sessions keep sliding forward.
func (s *Badger) updateStrings(ctx context.Context, key string, ttl time.Duration, fn func([]string) []string) error {
	var lastErr error

	for attempt := 0; attempt < conflictRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = s.db.Update(func(txn *badger.Txn) error {
			var current []string
			item, err := txn.Get([]byte(key))
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
				// New key.
			case err != nil:
				return fmt.Errorf("get %s: %w", key, err)
			default:
				if err := item.Value(func(val []byte) error {
					return json.Unmarshal(val, &current)
				}); err != nil {
					return fmt.Errorf("decode %s: %w", key, err)
				}
			}

			data, err := json.Marshal(fn(current))
			if err != nil {
				return fmt.Errorf("encode %s: %w", key, err)
			}
			return txn.SetEntry(entry(key, data, ttl))
		})

		if !errors.Is(lastErr, badger.ErrConflict) {
			return lastErr
		}
	}
	return fmt.Errorf("update %s: %w", key, lastErr)
}

func entry(key string, value []byte, ttl time.Duration) *badger.Entry {
	e := badger.NewEntry([]byte(key), value)
	if ttl > 0 {
		e = e.WithTTL(ttl)
	}
	return e
}
