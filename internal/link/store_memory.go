package link

import (
	"context"
	"sort"
	"sync"

	"cadlink/internal/geometry"
	"cadlink/pkg/domain"
)

// InMemoryStore keeps links in process memory for tests and dev wiring.
type InMemoryStore struct {
	mu    sync.RWMutex
	links map[domain.LinkID]*EntityLink
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{links: make(map[domain.LinkID]*EntityLink)}
}

func (s *InMemoryStore) Insert(_ context.Context, l *EntityLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.links {
		if existing.ProjectID == l.ProjectID &&
			existing.CadHandle == l.CadHandle &&
			existing.Status != StatusDeleted {
			return ErrHandleTaken
		}
	}
	s.links[l.ID] = copyLink(l)
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, l *EntityLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.links[l.ID]; !ok {
		return ErrNotFound
	}
	s.links[l.ID] = copyLink(l)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.LinkID) (*EntityLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.links[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyLink(l), nil
}

func (s *InMemoryStore) FindActive(_ context.Context, projectID domain.ProjectID, cadHandle string) (*EntityLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.links {
		if l.ProjectID == projectID && l.CadHandle == cadHandle && l.Status != StatusDeleted {
			return copyLink(l), nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) ListActive(_ context.Context, projectID domain.ProjectID) ([]*EntityLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*EntityLink
	for _, l := range s.links {
		if l.ProjectID == projectID && l.Status != StatusDeleted {
			out = append(out, copyLink(l))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CadHandle < out[j].CadHandle
	})
	return out, nil
}

func copyLink(l *EntityLink) *EntityLink {
	cp := *l
	if l.Pending != nil {
		pending := *l.Pending
		pending.Geometry.Points = append([]geometry.Point(nil), l.Pending.Geometry.Points...)
		cp.Pending = &pending
	}
	return &cp
}
