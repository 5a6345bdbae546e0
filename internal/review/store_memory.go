package review

import (
	"context"
	"sort"
	"sync"
	"time"

	"cadlink/internal/geometry"
	"cadlink/pkg/domain"
	dErrors "cadlink/pkg/domain-errors"
)

// InMemoryStore keeps review items in process memory.
type InMemoryStore struct {
	mu    sync.RWMutex
	items map[domain.ReviewItemID]*Item
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{items: make(map[domain.ReviewItemID]*Item)}
}

func (s *InMemoryStore) Add(_ context.Context, item *Item) error {
	if item == nil {
		return dErrors.New(dErrors.CodeBadRequest, "review item is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = copyItem(item)
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, id domain.ReviewItemID) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyItem(item), nil
}

func (s *InMemoryStore) ListOpen(_ context.Context, projectID domain.ProjectID) ([]*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Item
	for _, item := range s.items {
		if item.ProjectID == projectID && !item.Resolved {
			out = append(out, copyItem(item))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Entity.Handle < out[j].Entity.Handle
	})
	return out, nil
}

func (s *InMemoryStore) MarkResolved(_ context.Context, id domain.ReviewItemID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	if item.Resolved {
		return dErrors.New(dErrors.CodeInvariantViolation, "review item is already resolved")
	}
	item.Resolved = true
	item.ResolvedAt = &at
	return nil
}

func copyItem(item *Item) *Item {
	cp := *item
	cp.Entity.Geometry.Points = append([]geometry.Point(nil), item.Entity.Geometry.Points...)
	if item.ResolvedAt != nil {
		at := *item.ResolvedAt
		cp.ResolvedAt = &at
	}
	return &cp
}
