package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/fantasy-roster/internal/domain/jobscheduler"
)

type JobRunRepository struct {
	mu   sync.RWMutex
	runs []jobscheduler.RunEvent
}

func NewJobRunRepository() *JobRunRepository {
	return &JobRunRepository{}
}

func (r *JobRunRepository) RecordRun(_ context.Context, event jobscheduler.RunEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs = append(r.runs, event)
	return nil
}

func (r *JobRunRepository) Runs() []jobscheduler.RunEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]jobscheduler.RunEvent, len(r.runs))
	copy(out, r.runs)
	return out
}
