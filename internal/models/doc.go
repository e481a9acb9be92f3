// Reelfeed - Personalized Trailer Feed Service
// Copyright 2026 Reelfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelfeed/reelfeed

// Package models defines the shared data types of the feed serving engine:
// lightweight index candidates, hydrated feed items, the per-request user
// context, and the API response envelopes.
//
// Index files and the content dictionary are produced by the external
// ingestion pipeline; the types here mirror that wire format (camelCase JSON)
// and add nothing the engine does not consume.
package models
