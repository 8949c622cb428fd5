package dataset

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/kursadbilgin/dining-desk/internal/domain"
)

// Store keeps the latest bucketed view of the dataset file.
type Store struct {
	path   string
	ranges []domain.DateRange

	mu      sync.RWMutex
	buckets []Bucket
	modTime time.Time
	total   int
}

func NewStore(path string, ranges []domain.DateRange) *Store {
	if len(ranges) == 0 {
		ranges = DefaultRanges()
	}

	s := &Store{path: path, ranges: ranges}
	s.buckets = BucketDiners(nil, ranges)
	return s
}

// Reload re-reads the dataset file. On failure the previous data is kept.
func (s *Store) Reload() error {
	info, err := os.Stat(s.path)
	if err != nil {
		return fmt.Errorf("failed to stat dataset %q: %w", s.path, err)
	}

	ds, err := LoadFile(s.path)
	if err != nil {
		return err
	}

	buckets := BucketDiners(ds.Diners, s.ranges)

	s.mu.Lock()
	s.buckets = buckets
	s.modTime = info.ModTime()
	s.total = len(ds.Diners)
	s.mu.Unlock()

	return nil
}

// Changed reports whether the file on disk differs from the loaded version.
func (s *Store) Changed() (bool, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return false, fmt.Errorf("failed to stat dataset %q: %w", s.path, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return !info.ModTime().Equal(s.modTime), nil
}

func (s *Store) Buckets() []Bucket {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Bucket, len(s.buckets))
	copy(out, s.buckets)
	return out
}

// Bucket looks a bucket up by its URL key.
func (s *Store) Bucket(key string) (Bucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.buckets {
		if b.Range.Key() == key {
			return b, nil
		}
	}
	return Bucket{}, fmt.Errorf("%w: bucket %q", domain.ErrNotFound, key)
}

func (s *Store) TotalDiners() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}
