package repository

import (
	"sync"

	"github.com/AMeenalosini/StressTesting/domain"
)

// StressRunRepositoryMemory is an in-memory implementation of StressRunRepository.
type StressRunRepositoryMemory struct {
	mu   sync.RWMutex
	data []domain.StressRun
	max  int
}

// NewStressRunRepositoryMemory keeps at most max runs; older runs are dropped.
// A max of zero or less keeps everything.
func NewStressRunRepositoryMemory(max int) *StressRunRepositoryMemory {
	return &StressRunRepositoryMemory{
		data: []domain.StressRun{},
		max:  max,
	}
}

// Save stores the run in memory.
func (r *StressRunRepositoryMemory) Save(run domain.StressRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data = append(r.data, run)
	if r.max > 0 && len(r.data) > r.max {
		r.data = append([]domain.StressRun(nil), r.data[len(r.data)-r.max:]...)
	}
	return nil
}

func (r *StressRunRepositoryMemory) Recent(limit int) ([]domain.StressRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > len(r.data) {
		limit = len(r.data)
	}
	out := make([]domain.StressRun, 0, limit)
	for i := len(r.data) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.data[i])
	}
	return out, nil
}

func (r *StressRunRepositoryMemory) Close() error { return nil }
