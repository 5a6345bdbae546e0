package audit

import (
	"context"
	"sync"

	"cadlink/pkg/domain"
)

// MemorySink collects events in memory for tests and dev wiring.
type MemorySink struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ListByProject returns recorded events for one project, oldest first.
func (s *MemorySink) ListByProject(_ context.Context, projectID domain.ProjectID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.ProjectID == projectID {
			out = append(out, e)
		}
	}
	return out, nil
}
