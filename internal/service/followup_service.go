package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/kursadbilgin/dining-desk/internal/cache"
	"github.com/kursadbilgin/dining-desk/internal/domain"
	"github.com/kursadbilgin/dining-desk/internal/followup"
	"github.com/kursadbilgin/dining-desk/internal/observability"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type DinerSource interface {
	Diners(ctx context.Context, key string) ([]domain.Diner, error)
}

type FollowUpAnalyzer interface {
	Analyze(ctx context.Context, diners []domain.Diner, apiKey string) (*followup.Report, error)
}

type FollowUpResult struct {
	Report *followup.Report
	Cached bool
}

// FollowUpService serves follow-up reports per bucket. Selecting a bucket other
// than the previous one drops that bucket's cached report so it is regenerated.
// Every invalidation starts a new generation; a run that began in an older
// generation is returned to its callers but never cached.
type FollowUpService struct {
	diners   DinerSource
	analyzer FollowUpAnalyzer
	cache    cache.ReportCache
	apiKey   string
	logger   *zap.Logger
	metrics  *observability.Metrics

	mu         sync.Mutex
	lastKey    string
	group      singleflight.Group
	generation atomic.Uint64
}

func NewFollowUpService(
	diners DinerSource,
	analyzer FollowUpAnalyzer,
	reportCache cache.ReportCache,
	apiKey string,
	logger *zap.Logger,
) (*FollowUpService, error) {
	if diners == nil {
		return nil, fmt.Errorf("diner source is required")
	}
	if analyzer == nil {
		return nil, fmt.Errorf("follow-up analyzer is required")
	}
	if reportCache == nil {
		reportCache = cache.NewMemory()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FollowUpService{
		diners:   diners,
		analyzer: analyzer,
		cache:    reportCache,
		apiKey:   apiKey,
		logger:   logger,
	}, nil
}

func (s *FollowUpService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

func (s *FollowUpService) Report(ctx context.Context, key string) (*FollowUpResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := observability.WithContextLogger(s.logger, ctx)
	key = normalizeBucketKey(key)
	gen := s.generation.Load()

	diners, err := s.diners.Diners(ctx, key)
	if err != nil {
		return nil, err
	}

	if s.selectKey(key) {
		if err := s.cache.Delete(ctx, key); err != nil {
			logger.Warn("failed to drop cached report", zap.String("bucket", key), zap.Error(err))
		}
		s.metrics.IncReportCacheLookup(false)
	} else {
		report, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			logger.Warn("report cache lookup failed", zap.String("bucket", key), zap.Error(err))
		}
		s.metrics.IncReportCacheLookup(ok)
		if ok {
			return &FollowUpResult{Report: report, Cached: true}, nil
		}
	}

	v, err, _ := s.group.Do(key+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		report, err := s.analyzer.Analyze(ctx, diners, s.apiKey)
		if err != nil {
			return nil, err
		}
		if s.generation.Load() != gen {
			logger.Info("report outdated by invalidation, not caching", zap.String("bucket", key))
			return report, nil
		}
		if report.Outcome == followup.OutcomeCompleted {
			if err := s.cache.Set(ctx, key, report); err != nil {
				logger.Warn("failed to cache report", zap.String("bucket", key), zap.Error(err))
			}
		}
		return report, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to analyze bucket %q: %w", key, err)
	}

	return &FollowUpResult{Report: v.(*followup.Report)}, nil
}

// Invalidate drops the cached report of one bucket.
func (s *FollowUpService) Invalidate(ctx context.Context, key string) error {
	key = normalizeBucketKey(key)
	if _, err := s.diners.Diners(ctx, key); err != nil {
		return err
	}
	s.generation.Add(1)
	if err := s.cache.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to invalidate report for %q: %w", key, err)
	}
	return nil
}

func (s *FollowUpService) InvalidateAll(ctx context.Context) error {
	s.generation.Add(1)
	if err := s.cache.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear report cache: %w", err)
	}
	return nil
}

// selectKey records key as the current selection and reports whether it changed.
func (s *FollowUpService) selectKey(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := s.lastKey != key
	s.lastKey = key
	return changed
}
