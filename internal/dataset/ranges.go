package dataset

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kursadbilgin/dining-desk/internal/domain"
	"gopkg.in/yaml.v3"
)

func DefaultRanges() []domain.DateRange {
	return []domain.DateRange{
		{Name: "2024-05 to 2024-09", Start: date(2024, time.May, 1), End: date(2024, time.September, 30)},
		{Name: "2024-10 to 2024-12", Start: date(2024, time.October, 1), End: date(2024, time.December, 31)},
		{Name: "2025-01 to 2025-02", Start: date(2025, time.January, 1), End: date(2025, time.February, 28)},
		{Name: "2025-03 to 2025-05", Start: date(2025, time.March, 1), End: date(2025, time.May, 31)},
	}
}

type rangesFile struct {
	Buckets []rangeEntry `yaml:"buckets"`
}

type rangeEntry struct {
	Name  string `yaml:"name"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// LoadRanges reads bucket definitions from YAML. An empty path yields the defaults.
func LoadRanges(path string) ([]domain.DateRange, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultRanges(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read buckets file: %w", err)
	}

	return ParseRanges(data)
}

func ParseRanges(data []byte) ([]domain.DateRange, error) {
	var file rangesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse buckets yaml: %w", err)
	}
	if len(file.Buckets) == 0 {
		return nil, fmt.Errorf("%w: at least one bucket is required", domain.ErrValidation)
	}

	ranges := make([]domain.DateRange, 0, len(file.Buckets))
	seen := make(map[string]struct{}, len(file.Buckets))
	for i, entry := range file.Buckets {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: bucket %d has no name", domain.ErrValidation, i)
		}

		start, err := time.Parse(domain.DateLayout, strings.TrimSpace(entry.Start))
		if err != nil {
			return nil, fmt.Errorf("%w: bucket %q start: %v", domain.ErrValidation, name, err)
		}
		end, err := time.Parse(domain.DateLayout, strings.TrimSpace(entry.End))
		if err != nil {
			return nil, fmt.Errorf("%w: bucket %q end: %v", domain.ErrValidation, name, err)
		}
		if end.Before(start) {
			return nil, fmt.Errorf("%w: bucket %q ends before it starts", domain.ErrValidation, name)
		}

		r := domain.DateRange{Name: name, Start: start, End: end}
		if _, dup := seen[r.Key()]; dup {
			return nil, fmt.Errorf("%w: duplicate bucket %q", domain.ErrValidation, name)
		}
		seen[r.Key()] = struct{}{}
		ranges = append(ranges, r)
	}

	return ranges, nil
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
