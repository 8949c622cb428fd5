package service

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/kursadbilgin/dining-desk/internal/dataset"
	"github.com/kursadbilgin/dining-desk/internal/domain"
	"github.com/kursadbilgin/dining-desk/internal/followup"
)

type fakeBucketStore struct {
	buckets []dataset.Bucket
}

func (f *fakeBucketStore) Buckets() []dataset.Bucket {
	return f.buckets
}

func (f *fakeBucketStore) Bucket(key string) (dataset.Bucket, error) {
	for _, b := range f.buckets {
		if b.Range.Key() == key {
			return b, nil
		}
	}
	return dataset.Bucket{}, domain.ErrNotFound
}

type fakeAnalyzer struct {
	calls     atomic.Int32
	analyzeFn func(ctx context.Context, diners []domain.Diner, apiKey string) (*followup.Report, error)
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, diners []domain.Diner, apiKey string) (*followup.Report, error) {
	f.calls.Add(1)
	if f.analyzeFn != nil {
		return f.analyzeFn(ctx, diners, apiKey)
	}
	return &followup.Report{Outcome: followup.OutcomeCompleted, Text: followup.NoFollowUpsMessage}, nil
}

type fakeTranscriber struct {
	transcribeFn func(ctx context.Context, apiKey string, filename string, audio io.Reader) (string, error)
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, apiKey string, filename string, audio io.Reader) (string, error) {
	if f.transcribeFn != nil {
		return f.transcribeFn(ctx, apiKey, filename, audio)
	}
	return "", nil
}

type fakeGenerator struct {
	generateFn func(ctx context.Context, apiKey string, prompt string) (string, error)
}

func (f *fakeGenerator) Generate(ctx context.Context, apiKey string, prompt string) (string, error) {
	if f.generateFn != nil {
		return f.generateFn(ctx, apiKey, prompt)
	}
	return "", nil
}

type fakeReloadableStore struct {
	changedFn func() (bool, error)
	reloadFn  func() error
	total     int
}

func (f *fakeReloadableStore) Changed() (bool, error) {
	if f.changedFn != nil {
		return f.changedFn()
	}
	return false, nil
}

func (f *fakeReloadableStore) Reload() error {
	if f.reloadFn != nil {
		return f.reloadFn()
	}
	return nil
}

func (f *fakeReloadableStore) TotalDiners() int {
	return f.total
}

type fakeInvalidator struct {
	calls atomic.Int32
	err   error
}

func (f *fakeInvalidator) InvalidateAll(ctx context.Context) error {
	f.calls.Add(1)
	return f.err
}

func testBuckets() []dataset.Bucket {
	diners := []domain.Diner{
		{
			Name:               "Emily Chen",
			Reservations:       []domain.Reservation{{Date: "2024-05-20", NumberOfPeople: domain.NewPartySize(2)}},
			DietaryInformation: "Vegetarian",
			OtherInfo:          "VIP regular",
		},
		{
			Name:            "Marco Rossi",
			Reservations:    []domain.Reservation{{Date: "2024-06-02", NumberOfPeople: domain.NewPartySize(4)}},
			SpecialOccasion: "Anniversary",
		},
	}
	return dataset.BucketDiners(diners, dataset.DefaultRanges())
}
