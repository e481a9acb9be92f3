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

// StoreMaintainer runs a store's periodic maintenance until ctx is canceled.
type StoreMaintainer interface {
	RunMaintenance(ctx context.Context, interval time.Duration) error
}

// StoreMaintenanceService supervises the session store's maintenance loop
// (value log GC for badger). Stores without maintenance needs simply omit
// this service.
type StoreMaintenanceService struct {
	store    StoreMaintainer
	interval time.Duration
	logger   zerolog.Logger
}

// NewStoreMaintenanceService creates the worker. interval defaults to 5
// minutes.
func NewStoreMaintenanceService(store StoreMaintainer, interval time.Duration, logger zerolog.Logger) *StoreMaintenanceService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &StoreMaintenanceService{
		store:    store,
		interval: interval,
		logger:   logger.With().Str("component", "store_maintenance").Logger(),
	}
}

// Serve implements suture.Service.
func (s *StoreMaintenanceService) Serve(ctx context.Context) error {
	s.logger.Debug().Dur("interval", s.interval).Msg("store maintenance started")
	return s.store.RunMaintenance(ctx, s.interval)
}

func (s *StoreMaintenanceService) String() string { return "store-maintenance" }
