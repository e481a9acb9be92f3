// Reelfeed - Personalized Trailer Feed Service
// Copyright 2026 Reelfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelfeed/reelfeed

package models

import "time"

// FeedType selects which generation path serves a request.
type FeedType string

const (
	// FeedTypeTrending serves the global trending pool only.
	FeedTypeTrending FeedType = "trending"

	// FeedTypeForYou serves the mixed 50/30/20 feed.
	FeedTypeForYou FeedType = "for_you"

	// FeedTypeFollowing is served by the social-activity path, which lives
	// outside this engine. The API answers 501 for it.
	FeedTypeFollowing FeedType = "following"
)

// Valid reports whether the feed type is one the API accepts.
func (t FeedType) Valid() bool {
	switch t {
	case FeedTypeTrending, FeedTypeForYou, FeedTypeFollowing:
		return true
	}
	return false
}

// Content type categories produced by the ingestion pipeline.
const (
	ContentTypeTrailer    = "trailer"
	ContentTypeTeaser     = "teaser"
	ContentTypeClip       = "clip"
	ContentTypeBTS        = "bts"
	ContentTypeInterview  = "interview"
	ContentTypeFeaturette = "featurette"
	ContentTypeShort      = "short"
	ContentTypeCommunity  = "community"
	ContentTypeImage      = "image"
)

// Source tags recorded against each served item.
const (
	SourceTrending     = "trending"
	SourcePersonalized = "personalized"
	SourceFriend       = "friend"
	SourceCommunity    = "community"
	SourceImage        = "image"
	SourceUnknown      = "unknown"
)

// IndexItem is a lightweight candidate record from an index file. Index files
// contain only what candidate selection needs; display metadata lives in the
// content dictionary.
type IndexItem struct {
	ID        string    `json:"id"`
	Score     float64   `json:"score"`
	Tags      []string  `json:"tags,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
	TMDBID    int       `json:"tmdbId,omitempty"`
	MediaType string    `json:"mediaType,omitempty"`
}

// ContentRecord is one entry of the master content dictionary.
type ContentRecord struct {
	ID           string   `json:"id"`
	TMDBID       int      `json:"tmdbId,omitempty"`
	MediaType    string   `json:"mediaType,omitempty"`
	Title        string   `json:"title,omitempty"`
	Overview     string   `json:"overview,omitempty"`
	PosterPath   string   `json:"posterPath,omitempty"`
	BackdropPath string   `json:"backdropPath,omitempty"`
	YouTubeKey   string   `json:"youtubeKey,omitempty"`
	VideoType    string   `json:"videoType,omitempty"`
	ContentType  string   `json:"contentType,omitempty"`
	ImageURL     string   `json:"imageUrl,omitempty"`
	ThumbnailURL string   `json:"thumbnailUrl,omitempty"`
	Poster       string   `json:"poster,omitempty"`
	ChannelTitle string   `json:"channelTitle,omitempty"`
	Genres       []string `json:"genres,omitempty"`
	Popularity   float64  `json:"popularity,omitempty"`
	VoteAverage  float64  `json:"voteAverage,omitempty"`
	ReleaseDate  string   `json:"releaseDate,omitempty"`
	Duration     int      `json:"duration,omitempty"`
}

// FeedItem is the hydrated record returned to clients. Field names follow the
// mobile client's camelCase contract.
type FeedItem struct {
	ID           string   `json:"id"`
	TMDBID       int      `json:"tmdbId,omitempty"`
	MediaType    string   `json:"mediaType"`
	Title        string   `json:"title"`
	Overview     string   `json:"overview,omitempty"`
	PosterPath   string   `json:"posterPath,omitempty"`
	BackdropPath string   `json:"backdropPath,omitempty"`
	YouTubeKey   string   `json:"youtubeKey,omitempty"`
	VideoType    string   `json:"videoType"`
	ContentType  string   `json:"contentType"`
	Duration     int      `json:"duration,omitempty"`
	ImageURL     string   `json:"imageUrl,omitempty"`
	ThumbnailURL string   `json:"thumbnailUrl,omitempty"`
	Poster       string   `json:"poster,omitempty"`
	ChannelTitle string   `json:"channelTitle,omitempty"`
	Source       string   `json:"source"`
	Reason       string   `json:"reason,omitempty"`
	Genres       []string `json:"genres"`
	Popularity   float64  `json:"popularity,omitempty"`
	VoteAverage  float64  `json:"voteAverage,omitempty"`
	ReleaseDate  string   `json:"releaseDate,omitempty"`
	FeedType     string   `json:"feedType,omitempty"`
	Score        float64  `json:"score"`
}
