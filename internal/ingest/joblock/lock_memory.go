package joblock

import (
	"context"
	"sync"

	"cadlink/pkg/domain"
)

// InMemoryLocker scopes job exclusion to one process. Tests and the
// zero-dependency dev wiring use it; multi-worker deployments need the
// postgres or redis locker.
type InMemoryLocker struct {
	mu   sync.Mutex
	held map[domain.ProjectID]bool
}

func NewInMemoryLocker() *InMemoryLocker {
	return &InMemoryLocker{held: make(map[domain.ProjectID]bool)}
}

func (l *InMemoryLocker) Acquire(_ context.Context, projectID domain.ProjectID) (Release, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[projectID] {
		return nil, ErrProjectBusy
	}
	l.held[projectID] = true
	release := func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, projectID)
		return nil
	}
	return release, nil
}
