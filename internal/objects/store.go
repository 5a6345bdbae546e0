package objects

import (
	"context"

	"cadlink/pkg/domain"
	dErrors "cadlink/pkg/domain-errors"
)

// ErrNotFound keeps domain-table 404s consistent across the in-memory and
// postgres implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "domain object not found")

// Filter narrows project-level listings. Zero value means everything.
type Filter struct {
	Types      []domain.ObjectType
	Discipline string
}

func (f Filter) wantsType(t domain.ObjectType) bool {
	if len(f.Types) == 0 {
		return true
	}
	for _, want := range f.Types {
		if want == t {
			return true
		}
	}
	return false
}

func (f Filter) wantsDiscipline(d string) bool {
	return f.Discipline == "" || f.Discipline == d
}

// Store is the upsert-by-id contract over the named domain tables. The
// pipeline owns row content but not schema; each object type maps to its own
// table via ObjectType.Table().
type Store interface {
	Upsert(ctx context.Context, obj *Object) error
	Find(ctx context.Context, t domain.ObjectType, id domain.ObjectID) (*Object, error)
	List(ctx context.Context, projectID domain.ProjectID, filter Filter) ([]*Object, error)
	Delete(ctx context.Context, t domain.ObjectType, id domain.ObjectID) error
}
