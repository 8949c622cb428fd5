package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/kursadbilgin/dining-desk/internal/dataset"
	"github.com/kursadbilgin/dining-desk/internal/domain"
	"go.uber.org/zap"
)

// BucketStore is the read side of dataset.Store.
type BucketStore interface {
	Buckets() []dataset.Bucket
	Bucket(key string) (dataset.Bucket, error)
}

type BucketSummary struct {
	Name       string `json:"name"`
	Key        string `json:"key"`
	DinerCount int    `json:"dinerCount"`
}

type BucketOverview struct {
	Bucket BucketSummary `json:"bucket"`
	dataset.Overview
}

type DashboardService struct {
	store  BucketStore
	logger *zap.Logger
}

func NewDashboardService(store BucketStore, logger *zap.Logger) (*DashboardService, error) {
	if store == nil {
		return nil, fmt.Errorf("bucket store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DashboardService{
		store:  store,
		logger: logger,
	}, nil
}

func (s *DashboardService) ListBuckets(ctx context.Context) []BucketSummary {
	buckets := s.store.Buckets()
	out := make([]BucketSummary, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, summarize(b))
	}
	return out
}

func (s *DashboardService) Overview(ctx context.Context, key string) (*BucketOverview, error) {
	bucket, err := s.bucket(key)
	if err != nil {
		return nil, err
	}

	return &BucketOverview{
		Bucket:   summarize(bucket),
		Overview: dataset.BuildOverview(bucket.Diners),
	}, nil
}

// Diners returns the diners of one bucket, scoped to that bucket's reservations.
func (s *DashboardService) Diners(ctx context.Context, key string) ([]domain.Diner, error) {
	bucket, err := s.bucket(key)
	if err != nil {
		return nil, err
	}
	return bucket.Diners, nil
}

func (s *DashboardService) bucket(key string) (dataset.Bucket, error) {
	key = normalizeBucketKey(key)
	if key == "" {
		return dataset.Bucket{}, fmt.Errorf("%w: bucket key is required", domain.ErrValidation)
	}
	return s.store.Bucket(key)
}

func summarize(b dataset.Bucket) BucketSummary {
	return BucketSummary{
		Name:       b.Range.Name,
		Key:        b.Range.Key(),
		DinerCount: len(b.Diners),
	}
}

func normalizeBucketKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
