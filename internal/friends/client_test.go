// Reelfeed - Personalized Trailer Feed Service
// Copyright 2026 Reelfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelfeed/reelfeed

package friends

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

func TestActivity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("users"); got != "f1,f2" {
			t.Errorf("users param = %q, want f1,f2", got)
		}
		if got := r.URL.Query().Get("limit"); got != "3" {
			t.Errorf("limit param = %q, want 3", got)
		}
		w.Write([]byte(`{"itemIds":["a","b"]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}, zerolog.Nop())

	got, err := c.Activity(context.Background(), []string{"f1", "f2"}, 3)
	if err != nil {
		t.Fatalf("Activity() error = %v", err)
	}
	want := []string{"a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Activity() = %v, want %v", got, want)
	}
}

func TestActivityTruncatesToLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"itemIds":["a","b","c","d"]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}, zerolog.Nop())

	got, err := c.Activity(context.Background(), []string{"f1"}, 2)
	if err != nil {
		t.Fatalf("Activity() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Activity() returned %d ids, want 2", len(got))
	}
}

func TestActivityNoFriends(t *testing.T) {
	c := New(Config{BaseURL: "http://unused"}, zerolog.Nop())

	got, err := c.Activity(context.Background(), nil, 5)
	if err != nil || got != nil {
		t.Errorf("Activity(nil friends) = (%v, %v), want (nil, nil)", got, err)
	}
}

func TestActivityNoBaseURL(t *testing.T) {
	c := New(Config{}, zerolog.Nop())

	_, err := c.Activity(context.Background(), []string{"f1"}, 5)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Activity() error = %v, want ErrUnavailable", err)
	}
}

func TestActivityServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}, zerolog.Nop())

	_, err := c.Activity(context.Background(), []string{"f1"}, 5)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Activity() error = %v, want ErrUnavailable", err)
	}
}

func TestActivityBreakerOpens(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}, zerolog.Nop())

	for i := 0; i < 10; i++ {
		_, _ = c.Activity(context.Background(), []string{"f1"}, 5)
	}
	if hits >= 10 {
		t.Errorf("server hits = %d, want breaker to stop requests before 10", hits)
	}
}
