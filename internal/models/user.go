// Reelfeed - Personalized Trailer Feed Service
// Copyright 2026 Reelfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelfeed/reelfeed

package models

// UserPreferences holds the personalization inputs the profile store records
// for a user. Genre names are lowercase.
type UserPreferences struct {
	SelectedGenres     []string `json:"selectedGenres"`
	SelectedGenreIDs   []int    `json:"selectedGenreIds,omitempty"`
	StreamingProviders []string `json:"streamingProviders,omitempty"`
}

// UserContext is the per-request snapshot of everything the engine needs to
// know about a user. It is built once per request by the profile store
// collaborator and read-only inside the engine.
//
// SeenIDs is a bounded sample of the user's long-term history (most recent
// few hundred IDs), not the full history.
type UserContext struct {
	UserID      string          `json:"userId"`
	Preferences UserPreferences `json:"preferences"`
	FriendIDs   []string        `json:"friendIds,omitempty"`
	SeenIDs     []string        `json:"seenIds,omitempty"`
	Favorites   []string        `json:"favorites,omitempty"`
	Watchlist   []string        `json:"watchlist,omitempty"`
}

// IsColdStartGenres reports whether the user has no genre preferences.
func (u *UserContext) IsColdStartGenres() bool {
	return len(u.Preferences.SelectedGenres) == 0
}

// HasFriends reports whether the user has any social connections.
func (u *UserContext) HasFriends() bool {
	return len(u.FriendIDs) > 0
}
