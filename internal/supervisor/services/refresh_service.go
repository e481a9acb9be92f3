// Reelfeed - Personalized Trailer Feed Service
// Copyright 2026 Reelfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelfeed/reelfeed

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// PoolRefresher reloads candidate indexes ahead of cache expiry.
type PoolRefresher interface {
	Refresh(ctx context.Context)
}

// IndexRefreshService keeps the index pool warm so feed requests rarely pay
// a cold load. The first refresh runs immediately on start.
type IndexRefreshService struct {
	pool     PoolRefresher
	interval time.Duration
	logger   zerolog.Logger
}

// NewIndexRefreshService creates the worker. interval defaults to 4 minutes,
// just inside the pool's 5 minute TTL.
func NewIndexRefreshService(pool PoolRefresher, interval time.Duration, logger zerolog.Logger) *IndexRefreshService {
	if interval <= 0 {
		interval = 4 * time.Minute
	}
	return &IndexRefreshService{
		pool:     pool,
		interval: interval,
		logger:   logger.With().Str("component", "index_refresh").Logger(),
	}
}

// Serve implements suture.Service.
func (s *IndexRefreshService) Serve(ctx context.Context) error {
	s.refresh(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *IndexRefreshService) refresh(ctx context.Context) {
	start := time.Now()
	s.pool.Refresh(ctx)
	s.logger.Debug().Dur("took", time.Since(start)).Msg("index refresh complete")
}

func (s *IndexRefreshService) String() string { return "index-refresh" }
