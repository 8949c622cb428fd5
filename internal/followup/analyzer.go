package followup

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kursadbilgin/dining-desk/internal/domain"
	"github.com/kursadbilgin/dining-desk/internal/observability"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	MissingCredentialsMessage = "Error: Cohere API key not found. Please set the COHERE_API_KEY environment variable."
	NoDinersMessage           = "No diners found in this time period."
)

// Outcome describes how an analysis run ended.
type Outcome string

const (
	OutcomeCompleted          Outcome = "completed"
	OutcomeNoDiners           Outcome = "no_diners"
	OutcomeMissingCredentials Outcome = "missing_credentials"
)

func (o Outcome) String() string { return string(o) }

// BatchProcessor handles one batch and reports failures as data.
type BatchProcessor interface {
	Process(ctx context.Context, batch domain.Batch, apiKey string) domain.BatchResult
}

// Stats is the observability snapshot of one analysis run.
type Stats struct {
	RunID       string        `json:"runId"`
	TotalDiners int           `json:"totalDiners"`
	BatchSize   int           `json:"batchSize"`
	BatchCount  int           `json:"batchCount"`
	Concurrency int           `json:"concurrency"`
	CPUCount    int           `json:"cpuCount"`
	StartedAt   time.Time     `json:"startedAt"`
	Duration    time.Duration `json:"duration"`
}

// Report is the full result of one follow-up analysis.
type Report struct {
	Outcome   Outcome              `json:"outcome"`
	Text      string               `json:"text"`
	FollowUps []domain.FollowUp    `json:"followUps"`
	Batches   []domain.BatchResult `json:"batches"`
	Stats     Stats                `json:"stats"`
}

func (r *Report) FailedBatches() int {
	if r == nil {
		return 0
	}
	failed := 0
	for _, b := range r.Batches {
		if b.Failed() {
			failed++
		}
	}
	return failed
}

// Analyzer splits diners into batches and fans them out with bounded parallelism.
type Analyzer struct {
	processor   BatchProcessor
	batchSize   int
	parallelism int
	logger      *zap.Logger
	metrics     *observability.Metrics
	now         func() time.Time
	numCPU      func() int
	newRunID    func() string
}

// NewAnalyzer builds an Analyzer. parallelism <= 0 means one worker per CPU.
func NewAnalyzer(processor BatchProcessor, batchSize int, parallelism int, logger *zap.Logger) (*Analyzer, error) {
	if processor == nil {
		return nil, fmt.Errorf("batch processor is required")
	}
	if batchSize <= 0 {
		batchSize = domain.DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Analyzer{
		processor:   processor,
		batchSize:   batchSize,
		parallelism: parallelism,
		logger:      logger,
		now:         time.Now,
		numCPU:      runtime.NumCPU,
		newRunID:    uuid.NewString,
	}, nil
}

func (a *Analyzer) SetMetrics(metrics *observability.Metrics) {
	if a == nil {
		return
	}
	a.metrics = metrics
}

// Analyze runs the follow-up pipeline over diners. Per-batch failures are
// reported on the returned batches; only a partitioning failure is an error.
func (a *Analyzer) Analyze(ctx context.Context, diners []domain.Diner, apiKey string) (*Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	runID := a.newRunID()
	ctx = observability.WithRunID(ctx, runID)
	logger := observability.WithContextLogger(a.logger, ctx)
	startedAt := a.now()

	if strings.TrimSpace(apiKey) == "" {
		logger.Warn("follow-up analysis skipped: generation api key is not configured")
		a.metrics.IncAnalysisRun(OutcomeMissingCredentials.String())
		return &Report{
			Outcome:   OutcomeMissingCredentials,
			Text:      MissingCredentialsMessage,
			FollowUps: []domain.FollowUp{},
			Stats:     Stats{RunID: runID, StartedAt: startedAt},
		}, nil
	}

	if len(diners) == 0 {
		a.metrics.IncAnalysisRun(OutcomeNoDiners.String())
		return &Report{
			Outcome:   OutcomeNoDiners,
			Text:      NoDinersMessage,
			FollowUps: []domain.FollowUp{},
			Stats:     Stats{RunID: runID, StartedAt: startedAt},
		}, nil
	}

	batches, err := Partition(diners, a.batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to partition diners: %w", err)
	}

	cpuCount := a.numCPU()
	parallelism := a.parallelism
	if parallelism <= 0 {
		parallelism = cpuCount
	}
	concurrency := boundedConcurrency(parallelism, len(batches))

	stats := Stats{
		RunID:       runID,
		TotalDiners: len(diners),
		BatchSize:   a.batchSize,
		BatchCount:  len(batches),
		Concurrency: concurrency,
		CPUCount:    cpuCount,
		StartedAt:   startedAt,
	}

	logger.Info("follow-up analysis started",
		zap.Int("totalDiners", stats.TotalDiners),
		zap.Int("batchSize", stats.BatchSize),
		zap.Int("batchCount", stats.BatchCount),
		zap.Int("concurrency", stats.Concurrency),
		zap.Int("cpuCount", stats.CPUCount),
	)

	// Dispatched batches run to completion even if the caller goes away.
	dispatchCtx := context.WithoutCancel(ctx)
	results := make([]domain.BatchResult, len(batches))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for _, batch := range batches {
		g.Go(func() error {
			results[batch.ID] = a.processor.Process(dispatchCtx, batch, apiKey)
			return nil
		})
	}
	_ = g.Wait()

	records := Aggregate(results)
	stats.Duration = a.now().Sub(startedAt)

	report := &Report{
		Outcome:   OutcomeCompleted,
		Text:      Format(records),
		FollowUps: records,
		Batches:   results,
		Stats:     stats,
	}

	a.metrics.IncAnalysisRun(OutcomeCompleted.String())
	a.metrics.AddFollowUpsFlagged(len(records))

	logger.Info("follow-up analysis completed",
		zap.Duration("duration", stats.Duration),
		zap.Int("followUps", len(records)),
		zap.Int("failedBatches", report.FailedBatches()),
	)

	return report, nil
}

// Partition splits diners into contiguous batches of at most size, ids in list order.
func Partition(diners []domain.Diner, size int) ([]domain.Batch, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive, got %d", domain.ErrValidation, size)
	}

	batches := make([]domain.Batch, 0, (len(diners)+size-1)/size)
	for start := 0; start < len(diners); start += size {
		end := min(start+size, len(diners))
		batches = append(batches, domain.Batch{
			ID:     len(batches),
			Diners: diners[start:end:end],
		})
	}
	return batches, nil
}

func boundedConcurrency(parallelism int, batchCount int) int {
	return max(1, min(parallelism, batchCount))
}
