package objects

import (
	"context"
	"sort"
	"sync"

	"cadlink/internal/geometry"
	"cadlink/pkg/domain"
	dErrors "cadlink/pkg/domain-errors"
)

type tableKey struct {
	t  domain.ObjectType
	id domain.ObjectID
}

// InMemoryStore keeps domain objects in process memory. Used by unit tests
// and the zero-dependency dev wiring.
type InMemoryStore struct {
	mu   sync.RWMutex
	rows map[tableKey]*Object
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{rows: make(map[tableKey]*Object)}
}

func (s *InMemoryStore) Upsert(_ context.Context, obj *Object) error {
	if obj == nil || obj.Data == nil {
		return dErrors.New(dErrors.CodeBadRequest, "domain object and payload are required")
	}
	if !obj.Type().IsMaterializable() {
		return dErrors.Newf(dErrors.CodeBadRequest, "object type %q has no domain table", obj.Type())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tableKey{t: obj.Type(), id: obj.ID}
	if existing, ok := s.rows[key]; ok {
		// Upsert-by-id keeps the original creation time.
		obj.CreatedAt = existing.CreatedAt
	}
	s.rows[key] = copyObject(obj)
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, t domain.ObjectType, id domain.ObjectID) (*Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.rows[tableKey{t: t, id: id}]
	if !ok {
		return nil, ErrNotFound
	}
	return copyObject(obj), nil
}

func (s *InMemoryStore) List(_ context.Context, projectID domain.ProjectID, filter Filter) ([]*Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Object
	for _, obj := range s.rows {
		if obj.ProjectID != projectID {
			continue
		}
		if !filter.wantsType(obj.Type()) || !filter.wantsDiscipline(obj.Discipline) {
			continue
		}
		out = append(out, copyObject(obj))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, t domain.ObjectType, id domain.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tableKey{t: t, id: id}
	if _, ok := s.rows[key]; !ok {
		return ErrNotFound
	}
	delete(s.rows, key)
	return nil
}

func copyObject(obj *Object) *Object {
	cp := *obj
	cp.Geometry.Points = append([]geometry.Point(nil), obj.Geometry.Points...)
	return &cp
}
