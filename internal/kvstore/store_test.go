// Reelfeed - Personalized Trailer Feed Service
// Copyright 2026 Reelfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelfeed/reelfeed

package kvstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// openStores builds one instance of every Store implementation so the
// conformance tests below run against both.
func openStores(t *testing.T) map[string]Store {
	t.Helper()

	b, err := OpenBadger(Options{Path: t.TempDir()}, zerolog.Nop())
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { b.Close() })

	return map[string]Store{
		"badger": b,
		"memory": NewMemory(),
	}
}

func TestStore_ListAppendAndRange(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := s.ListAppend(ctx, "plan:s1", time.Minute, "a", "b", "c"); err != nil {
				t.Fatalf("append: %v", err)
			}
			if err := s.ListAppend(ctx, "plan:s1", time.Minute, "d"); err != nil {
				t.Fatalf("append: %v", err)
			}

			got, err := s.ListRange(ctx, "plan:s1", 1, 2)
			if err != nil {
				t.Fatalf("range: %v", err)
			}
			if len(got) != 2 || got[0] != "b" || got[1] != "c" {
				t.Errorf("range(1,2) = %v, want [b c]", got)
			}

			// Inclusive stop past the end clamps.
			got, err = s.ListRange(ctx, "plan:s1", 2, 99)
			if err != nil {
				t.Fatalf("range: %v", err)
			}
			if len(got) != 2 || got[1] != "d" {
				t.Errorf("range(2,99) = %v, want [c d]", got)
			}

			// -1 stop means end of list.
			got, err = s.ListRange(ctx, "plan:s1", 0, -1)
			if err != nil {
				t.Fatalf("range: %v", err)
			}
			if len(got) != 4 {
				t.Errorf("range(0,-1) = %v, want 4 elements", got)
			}

			n, err := s.ListLen(ctx, "plan:s1")
			if err != nil || n != 4 {
				t.Errorf("ListLen = %d, %v, want 4", n, err)
			}
		})
	}
}

func TestStore_ListRangeMissingKey(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			got, err := s.ListRange(context.Background(), "plan:none", 0, 9)
			if err != nil {
				t.Fatalf("range: %v", err)
			}
			if len(got) != 0 {
				t.Errorf("range on missing key = %v, want empty", got)
			}
		})
	}
}

func TestStore_ListRangeEmptyWindow(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.ListAppend(ctx, "plan:s2", time.Minute, "a", "b"); err != nil {
				t.Fatalf("append: %v", err)
			}
			got, err := s.ListRange(ctx, "plan:s2", 5, 9)
			if err != nil {
				t.Fatalf("range: %v", err)
			}
			if len(got) != 0 {
				t.Errorf("out-of-bounds range = %v, want empty", got)
			}
		})
	}
}

func TestStore_SetAddAndMembers(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := s.SetAdd(ctx, "sent:s1", time.Minute, "x", "y"); err != nil {
				t.Fatalf("setadd: %v", err)
			}
			// Duplicates collapse.
			if err := s.SetAdd(ctx, "sent:s1", time.Minute, "y", "z"); err != nil {
				t.Fatalf("setadd: %v", err)
			}

			members, err := s.SetMembers(ctx, "sent:s1")
			if err != nil {
				t.Fatalf("members: %v", err)
			}
			if len(members) != 3 {
				t.Errorf("members = %v, want 3 entries", members)
			}
			for _, m := range []string{"x", "y", "z"} {
				if _, ok := members[m]; !ok {
					t.Errorf("missing member %s", m)
				}
			}
		})
	}
}

func TestStore_BlobRoundTrip(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, err := s.Get(ctx, "dict"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get missing = %v, want ErrNotFound", err)
			}

			if err := s.Put(ctx, "dict", []byte(`{"a":1}`), time.Minute); err != nil {
				t.Fatalf("put: %v", err)
			}
			got, err := s.Get(ctx, "dict")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if string(got) != `{"a":1}` {
				t.Errorf("get = %s", got)
			}
		})
	}
}

func TestStore_ConcurrentAppends(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			var wg sync.WaitGroup
			for g := 0; g < 4; g++ {
				wg.Add(1)
				go func(g int) {
					defer wg.Done()
					for i := 0; i < 25; i++ {
						val := fmt.Sprintf("g%d-%d", g, i)
						if err := s.ListAppend(ctx, "plan:conc", time.Minute, val); err != nil {
							t.Errorf("append: %v", err)
						}
					}
				}(g)
			}
			wg.Wait()

			n, err := s.ListLen(ctx, "plan:conc")
			if err != nil {
				t.Fatalf("len: %v", err)
			}
			if n != 100 {
				t.Errorf("ListLen = %d, want 100 (no lost appends)", n)
			}
		})
	}
}

func TestMemory_TTLExpiry(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	now := time.Now()
	s.SetClock(func() time.Time { return now })

	if err := s.SetAdd(ctx, "sent:s1", 10*time.Minute, "a"); err != nil {
		t.Fatalf("setadd: %v", err)
	}

	// Advance past the TTL.
	now = now.Add(11 * time.Minute)

	members, err := s.SetMembers(ctx, "sent:s1")
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 0 {
		t.Errorf("expired set returned %v, want empty", members)
	}
}

func TestMemory_WriteSlidesTTL(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	now := time.Now()
	s.SetClock(func() time.Time { return now })

	if err := s.ListAppend(ctx, "plan:s1", 10*time.Minute, "a"); err != nil {
		t.Fatalf("append: %v", err)
	}

	// A write at minute 8 pushes expiry to minute 18.
	now = now.Add(8 * time.Minute)
	if err := s.ListAppend(ctx, "plan:s1", 10*time.Minute, "b"); err != nil {
		t.Fatalf("append: %v", err)
	}

	now = now.Add(9 * time.Minute)
	n, err := s.ListLen(ctx, "plan:s1")
	if err != nil || n != 2 {
		t.Errorf("ListLen after slide = %d, %v, want 2", n, err)
	}

	now = now.Add(2 * time.Minute)
	n, err = s.ListLen(ctx, "plan:s1")
	if err != nil || n != 0 {
		t.Errorf("ListLen after expiry = %d, %v, want 0", n, err)
	}
}

func TestStore_CancelledContext(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if err := s.ListAppend(ctx, "k", time.Minute, "v"); err == nil {
				t.Error("expected error from cancelled context")
			}
		})
	}
}
