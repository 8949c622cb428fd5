package followup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kursadbilgin/dining-desk/internal/domain"
	"go.uber.org/zap"
	"pgregory.net/rapid"
)

func newTestAnalyzer(t *testing.T, processor BatchProcessor, parallelism int) *Analyzer {
	t.Helper()

	a, err := NewAnalyzer(processor, domain.DefaultBatchSize, parallelism, zap.NewNop())
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}
	a.newRunID = func() string { return "run-test" }
	a.numCPU = func() int { return 4 }
	return a
}

func makeDiners(n int) []domain.Diner {
	diners := make([]domain.Diner, n)
	for i := range diners {
		diners[i] = dinerWithoutEmail(fmt.Sprintf("Diner %02d", i), "2024-06-01")
	}
	return diners
}

func TestPartitionProperties(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 200).Draw(rt, "n")
		size := rapid.IntRange(1, 40).Draw(rt, "size")
		diners := makeDiners(n)

		batches, err := Partition(diners, size)
		if err != nil {
			rt.Fatalf("Partition() error = %v", err)
		}

		wantCount := (n + size - 1) / size
		if len(batches) != wantCount {
			rt.Fatalf("batches = %d, want %d", len(batches), wantCount)
		}

		next := 0
		for i, b := range batches {
			if b.ID != i {
				rt.Fatalf("batch %d has id %d", i, b.ID)
			}
			if len(b.Diners) == 0 || len(b.Diners) > size {
				rt.Fatalf("batch %d size = %d, want 1..%d", i, len(b.Diners), size)
			}
			for _, d := range b.Diners {
				if d.Name != diners[next].Name {
					rt.Fatalf("diner %d out of order: got %q want %q", next, d.Name, diners[next].Name)
				}
				next++
			}
		}
		if next != n {
			rt.Fatalf("covered %d diners, want %d", next, n)
		}
	})
}

func TestPartitionRejectsInvalidSize(t *testing.T) {
	t.Parallel()

	_, err := Partition(makeDiners(3), 0)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Partition() error = %v, want ErrValidation", err)
	}
}

func TestPartitionBatchesDoNotAliasAppends(t *testing.T) {
	t.Parallel()

	diners := makeDiners(4)
	batches, err := Partition(diners, 2)
	if err != nil {
		t.Fatalf("Partition() error = %v", err)
	}

	_ = append(batches[0].Diners, domain.Diner{Name: "intruder"})
	if diners[2].Name != "Diner 02" {
		t.Fatal("appending to a batch overwrote the next batch")
	}
}

func TestAnalyzeMissingCredentials(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	a := newTestAnalyzer(t, &fakeBatchProcessor{
		processFn: func(ctx context.Context, batch domain.Batch, apiKey string) domain.BatchResult {
			calls.Add(1)
			return domain.BatchResult{}
		},
	}, 0)

	report, err := a.Analyze(context.Background(), makeDiners(5), "  ")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if report.Outcome != OutcomeMissingCredentials {
		t.Fatalf("outcome = %s, want %s", report.Outcome, OutcomeMissingCredentials)
	}
	if report.Text != MissingCredentialsMessage {
		t.Fatalf("text = %q", report.Text)
	}
	if calls.Load() != 0 {
		t.Fatalf("process calls = %d, want 0", calls.Load())
	}
}

func TestAnalyzeNoDiners(t *testing.T) {
	t.Parallel()

	generator := &fakeGenerator{}
	processor, err := NewProcessor(generator, nil, "", nil)
	if err != nil {
		t.Fatalf("NewProcessor() error = %v", err)
	}
	a := newTestAnalyzer(t, processor, 0)

	report, err := a.Analyze(context.Background(), nil, "key")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if report.Text != "No diners found in this time period." {
		t.Fatalf("text = %q", report.Text)
	}
	if report.Outcome != OutcomeNoDiners {
		t.Fatalf("outcome = %s, want %s", report.Outcome, OutcomeNoDiners)
	}
	if generator.calls.Load() != 0 {
		t.Fatalf("generator calls = %d, want 0", generator.calls.Load())
	}
}

func TestAnalyzeTwentyFiveDiners(t *testing.T) {
	t.Parallel()

	diners := makeDiners(25)
	diners[3] = dinerWithEmail("Emily Chen", "2024-05-20", "extra guest")
	diners[11] = dinerWithEmail("David Martinez", "2024-05-21", "private room")
	diners[17] = dinerWithEmail("Priya Natarajan", "2024-05-22", "corkage")

	generator := &fakeGenerator{
		generateFn: func(ctx context.Context, apiKey string, prompt string) (string, error) {
			// Flag every diner that has an email section in this prompt.
			var parts []string
			for _, d := range diners {
				if d.HasEmails() && strings.Contains(prompt, "### Diner: "+d.Name+"\n") {
					parts = append(parts, fmt.Sprintf(`{"Name":%q,"Reservation":%q,"Reason":"Question in email"}`, d.Name, d.FirstReservationDate()))
				}
			}
			return "[" + strings.Join(parts, ",") + "]", nil
		},
	}
	processor, err := NewProcessor(generator, nil, "", nil)
	if err != nil {
		t.Fatalf("NewProcessor() error = %v", err)
	}
	a := newTestAnalyzer(t, processor, 0)

	report, err := a.Analyze(context.Background(), diners, "key")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if report.Stats.BatchCount != 2 || len(report.Batches) != 2 {
		t.Fatalf("batches = %d/%d, want 2", report.Stats.BatchCount, len(report.Batches))
	}
	if report.Batches[0].Size != 20 || report.Batches[1].Size != 5 {
		t.Fatalf("batch sizes = %d,%d want 20,5", report.Batches[0].Size, report.Batches[1].Size)
	}
	if report.Stats.Concurrency != 2 {
		t.Fatalf("concurrency = %d, want min(4 cpus, 2 batches) = 2", report.Stats.Concurrency)
	}
	if generator.calls.Load() != 1 {
		t.Fatalf("generator calls = %d, want 1 (second batch has no emails)", generator.calls.Load())
	}
	if !report.Batches[1].Skipped {
		t.Fatal("second batch should be skipped")
	}

	if len(report.FollowUps) != 3 {
		t.Fatalf("followUps = %+v, want 3", report.FollowUps)
	}
	wantOrder := []string{"Emily Chen", "David Martinez", "Priya Natarajan"}
	for i, name := range wantOrder {
		if report.FollowUps[i].Name != name {
			t.Fatalf("followUps[%d] = %q, want %q", i, report.FollowUps[i].Name, name)
		}
	}
	if !strings.HasPrefix(report.Text, "**Name:** Emily Chen (2024-05-20)") {
		t.Fatalf("text = %q", report.Text)
	}
	if report.Stats.TotalDiners != 25 || report.Stats.RunID != "run-test" || report.Stats.CPUCount != 4 {
		t.Fatalf("stats = %+v", report.Stats)
	}
}

func TestAnalyzeIsolatesFailingBatch(t *testing.T) {
	t.Parallel()

	diners := make([]domain.Diner, 0, 60)
	for i := 0; i < 60; i++ {
		diners = append(diners, dinerWithEmail(fmt.Sprintf("Guest %02d", i), "2024-10-05", "question"))
	}

	generator := &fakeGenerator{
		generateFn: func(ctx context.Context, apiKey string, prompt string) (string, error) {
			switch {
			case strings.Contains(prompt, "### Diner: Guest 00\n"):
				return `[{"Name":"Guest 00","Reservation":"2024-10-05","Reason":"first"}]`, nil
			case strings.Contains(prompt, "### Diner: Guest 20\n"):
				return "", errors.New("cohere error: status=503")
			default:
				return `[{"Name":"Guest 40","Reservation":"2024-10-05","Reason":"third"}]`, nil
			}
		},
	}
	processor, err := NewProcessor(generator, nil, "", nil)
	if err != nil {
		t.Fatalf("NewProcessor() error = %v", err)
	}
	a := newTestAnalyzer(t, processor, 0)

	report, err := a.Analyze(context.Background(), diners, "key")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if !report.Batches[1].Failed() || len(report.Batches[1].FollowUps) != 0 {
		t.Fatalf("batch 1 = %+v, want error and no follow-ups", report.Batches[1])
	}
	if report.Batches[0].Failed() || report.Batches[2].Failed() {
		t.Fatal("healthy batches should not carry errors")
	}
	if report.FailedBatches() != 1 {
		t.Fatalf("FailedBatches() = %d, want 1", report.FailedBatches())
	}
	if report.Outcome != OutcomeCompleted {
		t.Fatalf("outcome = %s, want completed", report.Outcome)
	}
	if len(report.FollowUps) != 2 || report.FollowUps[0].Name != "Guest 00" || report.FollowUps[1].Name != "Guest 40" {
		t.Fatalf("followUps = %+v", report.FollowUps)
	}
}

func TestAnalyzeRestoresOrderAndBoundsConcurrency(t *testing.T) {
	t.Parallel()

	var inflight, peak atomic.Int32
	var mu sync.Mutex
	completion := make([]int, 0, 5)

	processor := &fakeBatchProcessor{
		processFn: func(ctx context.Context, batch domain.Batch, apiKey string) domain.BatchResult {
			current := inflight.Add(1)
			for {
				old := peak.Load()
				if current <= old || peak.CompareAndSwap(old, current) {
					break
				}
			}
			// Later batches finish first.
			time.Sleep(time.Duration(5-batch.ID) * 5 * time.Millisecond)
			inflight.Add(-1)

			mu.Lock()
			completion = append(completion, batch.ID)
			mu.Unlock()

			return domain.BatchResult{
				BatchID:   batch.ID,
				Size:      len(batch.Diners),
				FollowUps: []domain.FollowUp{{Name: fmt.Sprintf("A%d", batch.ID)}},
			}
		},
	}

	a := newTestAnalyzer(t, processor, 2)
	report, err := a.Analyze(context.Background(), makeDiners(100), "key")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if report.Stats.Concurrency != 2 {
		t.Fatalf("concurrency = %d, want 2", report.Stats.Concurrency)
	}
	if got := peak.Load(); got > 2 {
		t.Fatalf("peak in-flight batches = %d, want <= 2", got)
	}
	for i, r := range report.Batches {
		if r.BatchID != i {
			t.Fatalf("Batches[%d].BatchID = %d", i, r.BatchID)
		}
	}
	for i, f := range report.FollowUps {
		if f.Name != fmt.Sprintf("A%d", i) {
			t.Fatalf("FollowUps[%d] = %q, want A%d", i, f.Name, i)
		}
	}
	if len(completion) != 5 {
		t.Fatalf("completed batches = %d, want 5", len(completion))
	}
}

func TestAnalyzeDoesNotPropagateCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	processor := &fakeBatchProcessor{
		processFn: func(ctx context.Context, batch domain.Batch, apiKey string) domain.BatchResult {
			if ctx.Err() != nil {
				return domain.BatchResult{BatchID: batch.ID, Error: ctx.Err().Error()}
			}
			return domain.BatchResult{BatchID: batch.ID, FollowUps: []domain.FollowUp{{Name: "ok"}}}
		},
	}

	report, err := newTestAnalyzer(t, processor, 0).Analyze(ctx, makeDiners(3), "key")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if report.FailedBatches() != 0 || len(report.FollowUps) != 1 {
		t.Fatalf("report = %+v, want batch to run despite canceled caller", report)
	}
}

func TestBoundedConcurrency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		parallelism int
		batches     int
		want        int
	}{
		{parallelism: 8, batches: 3, want: 3},
		{parallelism: 2, batches: 10, want: 2},
		{parallelism: 0, batches: 1, want: 1},
	}

	for _, tt := range tests {
		if got := boundedConcurrency(tt.parallelism, tt.batches); got != tt.want {
			t.Fatalf("boundedConcurrency(%d, %d) = %d, want %d", tt.parallelism, tt.batches, got, tt.want)
		}
	}
}

func TestNewAnalyzerRequiresProcessor(t *testing.T) {
	t.Parallel()

	if _, err := NewAnalyzer(nil, 20, 0, nil); err == nil {
		t.Fatal("expected error for nil processor")
	}
}
