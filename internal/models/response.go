// Reelfeed - Personalized Trailer Feed Service
// Copyright 2026 Reelfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelfeed/reelfeed

package models

// FeedMeta describes the page that accompanies a feed response.
type FeedMeta struct {
	Count      int    `json:"count"`
	HasMore    bool   `json:"hasMore"`
	NextCursor string `json:"nextCursor,omitempty"`
	FeedType   string `json:"feedType"`
	LatencyMS  int64  `json:"latencyMs"`
}

// FeedResponse is the body of GET /api/v1/feed.
type FeedResponse struct {
	Items []FeedItem `json:"items"`
	Meta  FeedMeta   `json:"meta"`
}

// ErrorResponse is the uniform error body for all API endpoints.
type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}
