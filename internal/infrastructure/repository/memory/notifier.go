package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/fantasy-roster/internal/domain/ownership"
)

// Notifier keeps published ownership changes in memory.
type Notifier struct {
	mu     sync.RWMutex
	events []ownership.ChangeEvent
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) Publish(_ context.Context, event ownership.ChangeEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.events = append(n.events, event)
	return nil
}

func (n *Notifier) Events() []ownership.ChangeEvent {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]ownership.ChangeEvent, len(n.events))
	copy(out, n.events)
	return out
}
