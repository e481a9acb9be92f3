// Reelfeed - Personalized Trailer Feed Service
// Copyright 2026 Reelfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelfeed/reelfeed

package dedup

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelfeed/reelfeed/internal/kvstore"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	return New(kvstore.NewMemory(), time.Minute, zerolog.Nop())
}

func TestCursorRoundTrip(t *testing.T) {
	tr := newTestTracker(t)

	cursor := EncodeCursor("sess-1", 25)
	sid, off := tr.DecodeCursor(cursor)
	if sid != "sess-1" || off != 25 {
		t.Errorf("DecodeCursor() = (%q, %d), want (sess-1, 25)", sid, off)
	}
}

func TestDecodeCursorMalformed(t *testing.T) {
	tr := newTestTracker(t)

	tests := []struct {
		name   string
		cursor string
	}{
		{"empty", ""},
		{"not base64", "!!!not-base64!!!"},
		{"not json", "bm90IGpzb24="},
		{"missing session", "eyJvZmZzZXQiOjV9"},
		{"negative offset", EncodeCursor("s", -1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sid, off := tr.DecodeCursor(tt.cursor)
			if sid == "" || off != 0 {
				t.Errorf("DecodeCursor(%q) = (%q, %d), want fresh session at offset 0", tt.cursor, sid, off)
			}
		})
	}
}

func TestDecodeCursorFreshSessionsDiffer(t *testing.T) {
	tr := newTestTracker(t)

	a, _ := tr.DecodeCursor("")
	b, _ := tr.DecodeCursor("")
	if a == b {
		t.Errorf("fresh sessions share id %q", a)
	}
}

func TestMarkSentAndSessionSeenIDs(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	sid := tr.NewSessionID()
	tr.MarkSent(ctx, sid, []string{"a", "b"})
	tr.MarkSent(ctx, sid, []string{"b", "c"})

	seen := tr.SessionSeenIDs(ctx, sid)
	want := map[string]struct{}{"a": {}, "b": {}, "c": {}}
	if !reflect.DeepEqual(seen, want) {
		t.Errorf("SessionSeenIDs() = %v, want %v", seen, want)
	}
}

func TestSessionSeenIDsUnknownSession(t *testing.T) {
	tr := newTestTracker(t)

	seen := tr.SessionSeenIDs(context.Background(), "missing")
	if len(seen) != 0 {
		t.Errorf("SessionSeenIDs() = %v, want empty", seen)
	}
}

func TestFilterSeenPreservesOrder(t *testing.T) {
	history := NewSeenSet([]string{"h1", "h2"})
	session := map[string]struct{}{"s1": {}}

	candidates := []string{"a", "h1", "b", "s1", "c", "h2"}
	got := FilterSeen(candidates, history, session)
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FilterSeen() = %v, want %v", got, want)
	}
}

func TestFilterSeenNilHistory(t *testing.T) {
	got := FilterSeen([]string{"a", "b"}, nil, map[string]struct{}{"a": {}})
	want := []string{"b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FilterSeen() = %v, want %v", got, want)
	}
}

func TestNewSeenSetExactBelowThreshold(t *testing.T) {
	s := NewSeenSet([]string{"a", "b"})
	if _, ok := s.(exactSet); !ok {
		t.Fatalf("NewSeenSet() = %T, want exactSet", s)
	}
	if !s.Contains("a") || s.Contains("z") {
		t.Error("exact set membership wrong")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestNewSeenSetBloomAboveThreshold(t *testing.T) {
	ids := make([]string, BloomThreshold+1)
	for i := range ids {
		ids[i] = fmt.Sprintf("item_%d", i)
	}

	s := NewSeenSet(ids)
	if _, ok := s.(*bloomSet); !ok {
		t.Fatalf("NewSeenSet() = %T, want *bloomSet", s)
	}
	for _, id := range []string{"item_0", "item_2500", "item_5000"} {
		if !s.Contains(id) {
			t.Errorf("Contains(%q) = false, want true (no false negatives)", id)
		}
	}

	falsePositives := 0
	for i := 0; i < 1000; i++ {
		if s.Contains(fmt.Sprintf("never_seen_%d", i)) {
			falsePositives++
		}
	}
	if falsePositives > 50 {
		t.Errorf("false positives = %d/1000, want near the 1%% target", falsePositives)
	}
}

func TestNewSessionIDUnique(t *testing.T) {
	tr := newTestTracker(t)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := tr.NewSessionID()
		if seen[id] {
			t.Fatalf("duplicate session id %q", id)
		}
		seen[id] = true
	}
}
