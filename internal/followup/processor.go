package followup

import (
	"context"
	"fmt"
	"time"

	"github.com/kursadbilgin/dining-desk/internal/domain"
	"github.com/kursadbilgin/dining-desk/internal/observability"
	"github.com/kursadbilgin/dining-desk/internal/prompt"
	"github.com/kursadbilgin/dining-desk/internal/provider"
	"github.com/kursadbilgin/dining-desk/internal/ratelimit"
	"go.uber.org/zap"
)

// Processor runs one batch end to end. Every failure is recorded on the
// returned BatchResult; Process never returns an error and never panics.
type Processor struct {
	generator   provider.Generator
	rateLimiter ratelimit.RateLimiter
	limitKey    string
	logger      *zap.Logger
	metrics     *observability.Metrics
	now         func() time.Time
}

func NewProcessor(
	generator provider.Generator,
	rateLimiter ratelimit.RateLimiter,
	limitKey string,
	logger *zap.Logger,
) (*Processor, error) {
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if limitKey == "" {
		limitKey = provider.DefaultCohereModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Processor{
		generator:   generator,
		rateLimiter: rateLimiter,
		limitKey:    limitKey,
		logger:      logger,
		now:         time.Now,
	}, nil
}

func (p *Processor) SetMetrics(metrics *observability.Metrics) {
	if p == nil {
		return
	}
	p.metrics = metrics
}

func (p *Processor) Process(ctx context.Context, batch domain.Batch, apiKey string) (result domain.BatchResult) {
	start := p.now()
	result = domain.BatchResult{
		BatchID:   batch.ID,
		Size:      len(batch.Diners),
		Names:     batch.Names(),
		FollowUps: []domain.FollowUp{},
	}

	var callErr error
	defer func() {
		if r := recover(); r != nil {
			callErr = fmt.Errorf("batch panicked: %v", r)
			result.Error = callErr.Error()
			result.FollowUps = []domain.FollowUp{}
			p.metrics.IncGeneration(observability.GenerationServiceError)
		}
		result.Duration = p.now().Sub(start)
		p.metrics.ObserveBatchDuration(result.Duration)
		p.logResult(ctx, result, callErr)
	}()

	if !batch.HasEmails() {
		result.Skipped = true
		p.metrics.IncGeneration(observability.GenerationSkipped)
		return result
	}

	p.metrics.IncBatchesInFlight()
	defer p.metrics.DecBatchesInFlight()

	text, err := p.generate(ctx, apiKey, prompt.BuildFollowUp(batch.Diners))
	if err != nil {
		callErr = err
		result.Error = err.Error()
		p.metrics.IncGeneration(observability.GenerationServiceError)
		return result
	}

	parsed := ParseFollowUps(text)
	if !parsed.OK() {
		callErr = parsed.Err
		result.Error = domain.ErrParse.Error()
		result.RawResponse = parsed.Raw
		p.metrics.IncGeneration(observability.GenerationParseError)
		return result
	}

	result.FollowUps = parsed.Records
	p.metrics.IncGeneration(observability.GenerationSuccess)
	return result
}

func (p *Processor) generate(ctx context.Context, apiKey string, promptText string) (string, error) {
	if p.rateLimiter != nil {
		if err := p.rateLimiter.Wait(ctx, p.limitKey); err != nil {
			return "", fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}
	return p.generator.Generate(ctx, apiKey, promptText)
}

func (p *Processor) logResult(ctx context.Context, result domain.BatchResult, callErr error) {
	logger := observability.WithContextLogger(p.logger, ctx)
	fields := []zap.Field{
		zap.Int("batchId", result.BatchID),
		zap.Int("diners", len(result.Names)),
		zap.Duration("duration", result.Duration),
		zap.Bool("skipped", result.Skipped),
		zap.Int("followUps", len(result.FollowUps)),
	}

	if result.Failed() {
		logger.Warn("follow-up batch failed", append(fields,
			zap.String("batchError", result.Error),
			zap.Bool("transient", provider.IsTransient(callErr)),
			zap.Error(callErr),
		)...)
		return
	}

	logger.Info("follow-up batch processed", fields...)
}
