package followup

import (
	"context"
	"sync/atomic"

	"github.com/kursadbilgin/dining-desk/internal/domain"
)

type fakeGenerator struct {
	generateFn func(ctx context.Context, apiKey string, prompt string) (string, error)
	calls      atomic.Int32
}

func (f *fakeGenerator) Generate(ctx context.Context, apiKey string, prompt string) (string, error) {
	f.calls.Add(1)
	if f.generateFn != nil {
		return f.generateFn(ctx, apiKey, prompt)
	}
	return "[]", nil
}

type fakeRateLimiter struct {
	waitFn func(ctx context.Context, key string) error
}

func (f *fakeRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return true, nil
}

func (f *fakeRateLimiter) Wait(ctx context.Context, key string) error {
	if f.waitFn != nil {
		return f.waitFn(ctx, key)
	}
	return nil
}

type fakeBatchProcessor struct {
	processFn func(ctx context.Context, batch domain.Batch, apiKey string) domain.BatchResult
}

func (f *fakeBatchProcessor) Process(ctx context.Context, batch domain.Batch, apiKey string) domain.BatchResult {
	if f.processFn != nil {
		return f.processFn(ctx, batch, apiKey)
	}
	return domain.BatchResult{BatchID: batch.ID, Size: len(batch.Diners), FollowUps: []domain.FollowUp{}}
}

func dinerWithEmail(name string, date string, subject string) domain.Diner {
	return domain.Diner{
		Name:         name,
		Reservations: []domain.Reservation{{Date: date, NumberOfPeople: domain.NewPartySize(2)}},
		Emails:       []domain.Email{{Subject: subject, CombinedThread: "Could you help with " + subject + "?"}},
	}
}

func dinerWithoutEmail(name string, date string) domain.Diner {
	return domain.Diner{
		Name:         name,
		Reservations: []domain.Reservation{{Date: date, NumberOfPeople: domain.NewPartySize(2)}},
	}
}
