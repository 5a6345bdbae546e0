package ingest

import (
	"context"
	"errors"

	"cadlink/internal/cad"
	"cadlink/internal/classify"
	"cadlink/internal/link"
	"cadlink/internal/objects"
	"cadlink/pkg/domain"
)

// Reconciler classifies each re-imported entity's transition: unchanged,
// CAD-side modified, both-sides conflict, or brand new. It drives the
// registry's state machine but never mutates link state itself.
type Reconciler struct {
	materializer *Materializer
	objects      objects.Store
	links        *link.Registry
}

func NewReconciler(materializer *Materializer, objectStore objects.Store, links *link.Registry) *Reconciler {
	return &Reconciler{materializer: materializer, objects: objectStore, links: links}
}

// Reconcile processes one entity of a re-import batch.
func (r *Reconciler) Reconcile(ctx context.Context, projectID domain.ProjectID, entity cad.RawEntity, cls classify.Classification) (EntityOutcome, error) {
	l, err := r.links.FindActive(ctx, projectID, entity.Handle)
	if errors.Is(err, link.ErrNotFound) {
		// New handle: first-import semantics apply.
		return r.materializer.Materialize(ctx, projectID, entity, cls)
	}
	if err != nil {
		return EntityOutcome{}, err
	}

	if l.Status == link.StatusConflict {
		// An unresolved conflict stays parked; re-importing does not resolve
		// it and must not overwrite either side.
		return EntityOutcome{
			Handle: entity.Handle,
			Kind:   OutcomeConflict,
			LinkID: l.ID,
			Reason: "conflict awaiting resolution",
		}, nil
	}

	incomingHash := GeometryHash(entity.Geometry, cls.Attributes)
	if incomingHash == l.GeometryHash {
		if _, err := r.links.MarkUnchanged(ctx, l.ID); err != nil {
			return EntityOutcome{}, err
		}
		return EntityOutcome{
			Handle:   entity.Handle,
			Kind:     OutcomeSynced,
			ObjectID: l.ObjectID,
			LinkID:   l.ID,
		}, nil
	}

	// The CAD side changed. Whether it applies cleanly depends on the
	// database side: an out-of-band edit since the last sync means both
	// sides moved independently.
	obj, err := r.objects.Find(ctx, l.ObjectType, l.ObjectID)
	if err != nil {
		return EntityOutcome{}, err
	}
	if obj.UpdatedAt.After(l.LastSyncedAt) {
		pending := link.PendingChange{
			GeometryHash:   incomingHash,
			Geometry:       entity.Geometry,
			Classification: cls,
		}
		if _, err := r.links.MarkConflict(ctx, l.ID, pending); err != nil {
			return EntityOutcome{}, err
		}
		return EntityOutcome{
			Handle: entity.Handle,
			Kind:   OutcomeConflict,
			LinkID: l.ID,
			Reason: "cad and database sides changed independently",
		}, nil
	}

	return applyCadSide(ctx, r.objects, r.links, l, entity, cls)
}
