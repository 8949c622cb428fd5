package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const defaultReloadInterval = 30 * time.Second

type ReloadableStore interface {
	Changed() (bool, error)
	Reload() error
	TotalDiners() int
}

type ReportInvalidator interface {
	InvalidateAll(ctx context.Context) error
}

// DatasetReloader watches the dataset file and swaps in new data when it changes.
type DatasetReloader struct {
	store       ReloadableStore
	invalidator ReportInvalidator
	logger      *zap.Logger
	interval    time.Duration
}

func NewDatasetReloader(
	store ReloadableStore,
	invalidator ReportInvalidator,
	interval time.Duration,
	logger *zap.Logger,
) (*DatasetReloader, error) {
	if interval <= 0 {
		interval = defaultReloadInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DatasetReloader{
		store:       store,
		invalidator: invalidator,
		logger:      logger,
		interval:    interval,
	}, nil
}

func (r *DatasetReloader) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.reloadIfChanged(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				r.logger.Error("dataset reload failed", zap.Error(err))
			}
		}
	}
}

func (r *DatasetReloader) reloadIfChanged(ctx context.Context) (bool, error) {
	changed, err := r.store.Changed()
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}

	if err := r.store.Reload(); err != nil {
		return false, err
	}
	r.logger.Info("dataset reloaded", zap.Int("diners", r.store.TotalDiners()))

	if r.invalidator != nil {
		if err := r.invalidator.InvalidateAll(ctx); err != nil {
			r.logger.Warn("failed to invalidate cached reports after reload", zap.Error(err))
		}
	}
	return true, nil
}
