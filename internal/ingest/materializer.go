package ingest

import (
	"context"
	"errors"

	"cadlink/internal/cad"
	"cadlink/internal/classify"
	"cadlink/internal/link"
	"cadlink/internal/objects"
	"cadlink/internal/review"
	"cadlink/pkg/domain"
	"cadlink/pkg/requestcontext"
)

// Materializer turns one classified entity into a typed domain record plus
// its entity link, or routes it to review. Each call performs exactly one
// domain-table write and one link write, or one review-queue write; the
// caller scopes the call in its own transaction.
type Materializer struct {
	objects objects.Store
	links   *link.Registry
	review  review.Store
}

func NewMaterializer(objectStore objects.Store, links *link.Registry, reviewStore review.Store) *Materializer {
	return &Materializer{objects: objectStore, links: links, review: reviewStore}
}

// Materialize applies the auto-create policy:
//
//  1. Unclassified entities queue for review.
//  2. Geometry incompatible with the classified type is a hard rejection.
//  3. Confidence below the threshold queues for review; low-confidence
//     classifications never materialize silently.
//  4. Otherwise create the domain record and link, or, when a link already
//     exists for the handle, fall into the same update path the change
//     detector uses so there is one modified-entity code path, not two.
func (m *Materializer) Materialize(ctx context.Context, projectID domain.ProjectID, entity cad.RawEntity, cls classify.Classification) (EntityOutcome, error) {
	if cls.IsUnclassified() {
		return m.queueForReview(ctx, projectID, entity, cls)
	}
	if !classify.IsCompatible(cls.ObjectType, entity.Geometry.Kind) {
		return EntityOutcome{
			Handle: entity.Handle,
			Kind:   OutcomeRejected,
			Reason: ReasonGeometryMismatch,
		}, nil
	}
	if cls.Confidence < AutoCreateThreshold {
		return m.queueForReview(ctx, projectID, entity, cls)
	}

	existing, err := m.links.FindActive(ctx, projectID, entity.Handle)
	switch {
	case err == nil:
		return applyCadSide(ctx, m.objects, m.links, existing, entity, cls)
	case errors.Is(err, link.ErrNotFound):
		return m.create(ctx, projectID, entity, cls)
	default:
		return EntityOutcome{}, err
	}
}

func (m *Materializer) create(ctx context.Context, projectID domain.ProjectID, entity cad.RawEntity, cls classify.Classification) (EntityOutcome, error) {
	data, err := objects.DataFromClassification(cls.ObjectType, cls.Attributes)
	if err != nil {
		return EntityOutcome{}, err
	}
	now := requestcontext.Now(ctx)
	obj := &objects.Object{
		ID:         domain.NewObjectID(),
		ProjectID:  projectID,
		Discipline: cls.Discipline,
		Geometry:   entity.Geometry,
		Data:       data,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := m.objects.Upsert(ctx, obj); err != nil {
		return EntityOutcome{}, err
	}
	hash := GeometryHash(entity.Geometry, cls.Attributes)
	l, err := m.links.Create(ctx, projectID, entity.Handle, cls.ObjectType, obj.ID, hash)
	if err != nil {
		return EntityOutcome{}, err
	}
	return EntityOutcome{
		Handle:   entity.Handle,
		Kind:     OutcomeCreated,
		ObjectID: obj.ID,
		LinkID:   l.ID,
	}, nil
}

func (m *Materializer) queueForReview(ctx context.Context, projectID domain.ProjectID, entity cad.RawEntity, cls classify.Classification) (EntityOutcome, error) {
	item := &review.Item{
		ID:             domain.NewReviewItemID(),
		ProjectID:      projectID,
		Entity:         entity,
		Classification: cls,
		CreatedAt:      requestcontext.Now(ctx),
	}
	if err := m.review.Add(ctx, item); err != nil {
		return EntityOutcome{}, err
	}
	return EntityOutcome{
		Handle:   entity.Handle,
		Kind:     OutcomeQueuedForReview,
		ReviewID: item.ID,
	}, nil
}

// applyCadSide pushes a CAD-side change through to the linked domain record
// and returns the link to Synced under the new hash. Shared by the
// materializer's existing-link path and the reconciler's modified path.
func applyCadSide(ctx context.Context, objectStore objects.Store, links *link.Registry, l *link.EntityLink, entity cad.RawEntity, cls classify.Classification) (EntityOutcome, error) {
	if cls.ObjectType != l.ObjectType {
		// A reclassified layer cannot migrate a record across domain tables
		// automatically; park it for a human instead of guessing.
		pending := link.PendingChange{
			GeometryHash:   GeometryHash(entity.Geometry, cls.Attributes),
			Geometry:       entity.Geometry,
			Classification: cls,
		}
		if _, err := links.MarkConflict(ctx, l.ID, pending); err != nil {
			return EntityOutcome{}, err
		}
		return EntityOutcome{
			Handle: entity.Handle,
			Kind:   OutcomeConflict,
			LinkID: l.ID,
			Reason: "classified object type changed",
		}, nil
	}
	data, err := objects.DataFromClassification(cls.ObjectType, cls.Attributes)
	if err != nil {
		return EntityOutcome{}, err
	}
	obj, err := objectStore.Find(ctx, l.ObjectType, l.ObjectID)
	if err != nil {
		return EntityOutcome{}, err
	}
	obj.Discipline = cls.Discipline
	obj.Geometry = entity.Geometry
	obj.Data = data
	obj.UpdatedAt = requestcontext.Now(ctx)
	if err := objectStore.Upsert(ctx, obj); err != nil {
		return EntityOutcome{}, err
	}
	hash := GeometryHash(entity.Geometry, cls.Attributes)
	if _, err := links.ApplyCadChange(ctx, l.ID, hash); err != nil {
		return EntityOutcome{}, err
	}
	return EntityOutcome{
		Handle:   entity.Handle,
		Kind:     OutcomeModified,
		ObjectID: l.ObjectID,
		LinkID:   l.ID,
	}, nil
}
