// Reelfeed - Personalized Trailer Feed Service
// Copyright 2026 Reelfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelfeed/reelfeed

package cache

import (
	"fmt"
	"sync"
	"testing"
)

func TestBloomFilter_BasicOperations(t *testing.T) {
	bf := NewBloomFilter(1000, 0.01)

	bf.Add("hello")
	bf.Add("world")

	if !bf.Test("hello") {
		t.Error("expected 'hello' to be found")
	}
	if !bf.Test("world") {
		t.Error("expected 'world' to be found")
	}
}

func TestBloomFilter_NoFalseNegatives(t *testing.T) {
	bf := NewBloomFilter(10000, 0.01)

	items := make([]string, 1000)
	for i := 0; i < 1000; i++ {
		items[i] = fmt.Sprintf("item-%d", i)
		bf.Add(items[i])
	}

	for _, item := range items {
		if !bf.Test(item) {
			t.Errorf("false negative for item: %s", item)
		}
	}
}

func TestBloomFilter_FalsePositiveRate(t *testing.T) {
	bf := NewBloomFilter(1000, 0.01)

	for i := 0; i < 1000; i++ {
		bf.Add(fmt.Sprintf("item-%d", i))
	}

	falsePositives := 0
	for i := 1000; i < 11000; i++ {
		if bf.Test(fmt.Sprintf("item-%d", i)) {
			falsePositives++
		}
	}

	// 1% target; allow generous headroom to keep the test deterministic.
	rate := float64(falsePositives) / 10000.0
	if rate > 0.05 {
		t.Errorf("false positive rate %.4f exceeds 0.05", rate)
	}
}

func TestBloomFilter_DefaultsOnBadInput(t *testing.T) {
	bf := NewBloomFilter(0, -1)
	bf.Add("x")
	if !bf.Test("x") {
		t.Error("filter with defaulted parameters should still work")
	}
}

func TestBloomFilter_Count(t *testing.T) {
	bf := NewBloomFilter(100, 0.01)
	for i := 0; i < 7; i++ {
		bf.Add(fmt.Sprintf("i%d", i))
	}
	if bf.Count() != 7 {
		t.Errorf("Count = %d, want 7", bf.Count())
	}
}

func TestBloomFilter_FillRatioGrows(t *testing.T) {
	bf := NewBloomFilter(1000, 0.01)

	before := bf.FillRatio()
	for i := 0; i < 500; i++ {
		bf.Add(fmt.Sprintf("item-%d", i))
	}
	after := bf.FillRatio()

	if after <= before {
		t.Errorf("fill ratio did not grow: before=%f after=%f", before, after)
	}
	if after >= 1.0 {
		t.Errorf("fill ratio saturated: %f", after)
	}
}

func TestBloomFilter_ConcurrentAccess(t *testing.T) {
	bf := NewBloomFilter(10000, 0.01)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				key := fmt.Sprintf("g%d-i%d", g, i)
				bf.Add(key)
				if !bf.Test(key) {
					t.Errorf("false negative under concurrency: %s", key)
				}
			}
		}(g)
	}
	wg.Wait()
}
