// Reelfeed - Personalized Trailer Feed Service
// Copyright 2026 Reelfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelfeed/reelfeed

package dedup

import "github.com/reelfeed/reelfeed/internal/cache"

// SeenSet answers membership queries over a user's long-term history.
// Implementations may report false positives but never false negatives.
type SeenSet interface {
	Contains(id string) bool
	Len() int
}

// NewSeenSet builds the appropriate set for the given history. Small
// histories use an exact set; above BloomThreshold a Bloom filter bounds
// memory at the cost of ~1% false positives.
func NewSeenSet(ids []string) SeenSet {
	if len(ids) > BloomThreshold {
		bf := cache.NewBloomFilter(len(ids), bloomFPRate)
		for _, id := range ids {
			bf.Add(id)
		}
		return &bloomSet{filter: bf, n: len(ids)}
	}

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return exactSet(set)
}

type exactSet map[string]struct{}

func (s exactSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

func (s exactSet) Len() int { return len(s) }

type bloomSet struct {
	filter *cache.BloomFilter
	n      int
}

func (s *bloomSet) Contains(id string) bool { return s.filter.Test(id) }

func (s *bloomSet) Len() int { return s.n }
