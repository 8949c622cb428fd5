package cache

import (
	"context"
	"sync"

	"github.com/kursadbilgin/dining-desk/internal/followup"
)

// ReportCache maps a selection key (bucket key) to a computed follow-up report.
type ReportCache interface {
	Get(ctx context.Context, key string) (*followup.Report, bool, error)
	Set(ctx context.Context, key string, report *followup.Report) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

var _ ReportCache = (*Memory)(nil)

// Memory is a process-local ReportCache.
type Memory struct {
	mu      sync.RWMutex
	reports map[string]*followup.Report
}

func NewMemory() *Memory {
	return &Memory{reports: make(map[string]*followup.Report)}
}

func (m *Memory) Get(ctx context.Context, key string) (*followup.Report, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	report, ok := m.reports[key]
	return report, ok, nil
}

func (m *Memory) Set(ctx context.Context, key string, report *followup.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reports[key] = report
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.reports, key)
	return nil
}

func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reports = make(map[string]*followup.Report)
	return nil
}
