// Reelfeed - Personalized Trailer Feed Service
// Copyright 2026 Reelfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelfeed/reelfeed

package cache

import (
	"hash/fnv"
	"math/bits"
	"sync"
)

// BloomFilter is a probabilistic set-membership structure with a configurable
// false positive rate.
//
//   - No false negatives: if Test returns false, the item was never added
//   - Possible false positives: if Test returns true, the item might have been
//   - ~10 bits per element at a 1% false positive rate
//   - Items cannot be removed
//
// The dedup tracker uses it for user histories too large for an exact set:
// a Test false positive at most hides one already-eligible item, which the
// generator's over-fetch absorbs.
type BloomFilter struct {
	mu      sync.RWMutex
	bitset  []uint64
	size    uint64 // number of bits
	hashFns int
	count   int
}

// NewBloomFilter creates a filter sized for expectedItems at the target
// falsePositiveRate (e.g. 0.01 for 1%).
func NewBloomFilter(expectedItems int, falsePositiveRate float64) *BloomFilter {
	if expectedItems <= 0 {
		expectedItems = 10000
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = 0.01
	}

	// m = -n*ln(p)/ln(2)^2 bits, k = (m/n)*ln(2) hash functions
	const ln2 = 0.693147
	lnP := lnApprox(falsePositiveRate)

	m := int(-float64(expectedItems) * lnP / (ln2 * ln2))
	if m < 64 {
		m = 64
	}

	k := int(float64(m) / float64(expectedItems) * ln2)
	if k < 1 {
		k = 1
	}
	if k > 10 {
		k = 10
	}

	words := (m + 63) / 64

	return &BloomFilter{
		bitset:  make([]uint64, words),
		size:    uint64(words * 64),
		hashFns: k,
	}
}

// Add adds an item to the filter.
func (bf *BloomFilter) Add(key string) {
	bf.mu.Lock()
	defer bf.mu.Unlock()

	for _, h := range bf.hashes(key) {
		idx := h % bf.size
		bf.bitset[idx/64] |= 1 << (idx % 64)
	}
	bf.count++
}

// Test reports whether the item might be in the filter. A false result is
// authoritative; a true result may be a false positive.
func (bf *BloomFilter) Test(key string) bool {
	bf.mu.RLock()
	defer bf.mu.RUnlock()

	for _, h := range bf.hashes(key) {
		idx := h % bf.size
		if bf.bitset[idx/64]&(1<<(idx%64)) == 0 {
			return false
		}
	}
	return true
}

// Count returns the number of Add calls (duplicates included).
func (bf *BloomFilter) Count() int {
	bf.mu.RLock()
	defer bf.mu.RUnlock()
	return bf.count
}

// FillRatio returns the fraction of set bits, a saturation indicator.
func (bf *BloomFilter) FillRatio() float64 {
	bf.mu.RLock()
	defer bf.mu.RUnlock()

	set := 0
	for _, word := range bf.bitset {
		set += bits.OnesCount64(word)
	}
	return float64(set) / float64(bf.size)
}

// hashes produces k hash values via double hashing: h(i) = h1 + i*h2.
// Cheaper than k independent hash functions, same asymptotic behavior.
func (bf *BloomFilter) hashes(key string) []uint64 {
	h1 := fnv.New64a()
	h1.Write([]byte(key)) //nolint:errcheck // hash.Hash.Write never fails

	h2 := fnv.New64()
	h2.Write([]byte(key)) //nolint:errcheck // hash.Hash.Write never fails
	h2.Write([]byte{0xff})

	hash1 := h1.Sum64()
	hash2 := h2.Sum64()

	hs := make([]uint64, bf.hashFns)
	for i := range hs {
		hs[i] = hash1 + uint64(i)*hash2
	}
	return hs
}

// lnApprox returns ln(x) for the false positive rates used in sizing.
// A lookup beats pulling in math for a handful of construction-time values.
func lnApprox(x float64) float64 {
	switch {
	case x >= 0.1:
		return -2.303
	case x >= 0.05:
		return -2.996
	case x >= 0.01:
		return -4.605
	case x >= 0.005:
		return -5.298
	case x >= 0.001:
		return -6.908
	default:
		return -9.210
	}
}
