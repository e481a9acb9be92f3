// Reelfeed - Personalized Trailer Feed Service
// Copyright 2026 Reelfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelfeed/reelfeed

package objectstore

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type indexDoc struct {
	IDs []string `json:"ids"`
}

func TestFetchJSONRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/indexes/trending.json" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"ids":["a","b","c"]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}, zerolog.Nop())

	var doc indexDoc
	if err := c.FetchJSON(context.Background(), "indexes", "trending", &doc); err != nil {
		t.Fatalf("FetchJSON() error = %v", err)
	}
	if len(doc.IDs) != 3 || doc.IDs[0] != "a" {
		t.Errorf("decoded doc = %+v, want 3 ids starting with a", doc)
	}
}

func TestFetchJSONSnapshotFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "indexes"), 0o755); err != nil {
		t.Fatal(err)
	}
	snap := filepath.Join(dir, "indexes", "trending.json")
	if err := os.WriteFile(snap, []byte(`{"ids":["x"]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(Config{BaseURL: srv.URL, SnapshotDir: dir}, zerolog.Nop())

	var doc indexDoc
	if err := c.FetchJSON(context.Background(), "indexes", "trending", &doc); err != nil {
		t.Fatalf("FetchJSON() error = %v", err)
	}
	if len(doc.IDs) != 1 || doc.IDs[0] != "x" {
		t.Errorf("decoded doc = %+v, want snapshot contents", doc)
	}
}

func TestFetchJSONUnavailable(t *testing.T) {
	c := New(Config{}, zerolog.Nop())

	var doc indexDoc
	err := c.FetchJSON(context.Background(), "indexes", "missing", &doc)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("FetchJSON() error = %v, want ErrUnavailable", err)
	}
}

func TestFetchJSONBadDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`not json`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}, zerolog.Nop())

	var doc indexDoc
	if err := c.FetchJSON(context.Background(), "indexes", "trending", &doc); err == nil {
		t.Error("FetchJSON() error = nil, want decode error")
	}
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, RefreshPerSecond: 1000, Timeout: time.Second}, zerolog.Nop())

	var doc indexDoc
	for i := 0; i < 10; i++ {
		_ = c.FetchJSON(context.Background(), "indexes", "trending", &doc)
	}
	if hits >= 10 {
		t.Errorf("server hits = %d, want breaker to stop requests before 10", hits)
	}
}

func TestRateLimiterCapsAttempts(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.Write([]byte(`{"ids":[]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, RefreshPerSecond: 1}, zerolog.Nop())

	var doc indexDoc
	for i := 0; i < 5; i++ {
		_ = c.FetchJSON(context.Background(), "indexes", "trending", &doc)
	}
	if hits > 2 {
		t.Errorf("server hits = %d, want limiter to cap burst at 1", hits)
	}
}
