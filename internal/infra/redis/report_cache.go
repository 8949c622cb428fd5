package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kursadbilgin/dining-desk/internal/cache"
	"github.com/kursadbilgin/dining-desk/internal/followup"
	goredis "github.com/redis/go-redis/v9"
)

const (
	reportKeyPrefix       = "report:"
	defaultReportCacheTTL = time.Hour
	clearScanCount        = 100
)

var _ cache.ReportCache = (*ReportCache)(nil)

// ReportCache stores follow-up reports as JSON with a TTL.
type ReportCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewReportCache(client *goredis.Client, ttl time.Duration) (*ReportCache, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		ttl = defaultReportCacheTTL
	}
	return &ReportCache{client: client, ttl: ttl}, nil
}

func (c *ReportCache) Get(ctx context.Context, key string) (*followup.Report, bool, error) {
	data, err := c.client.Get(ctx, reportKeyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached report: %w", err)
	}

	var report followup.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached report: %w", err)
	}
	return &report, true, nil
}

func (c *ReportCache) Set(ctx context.Context, key string, report *followup.Report) error {
	if report == nil {
		return fmt.Errorf("report is required")
	}

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := c.client.Set(ctx, reportKeyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache report: %w", err)
	}
	return nil
}

func (c *ReportCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, reportKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete cached report: %w", err)
	}
	return nil
}

func (c *ReportCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, reportKeyPrefix+"*", clearScanCount).Iterator()
	keys := make([]string, 0)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cached reports: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear cached reports: %w", err)
	}
	return nil
}
