package link

import (
	"context"
	"log/slog"

	"cadlink/internal/audit"
	"cadlink/pkg/domain"
	"cadlink/pkg/requestcontext"
)

// Registry is the single owner of sync status transitions. The materializer
// and change detector request transitions here; neither ever mutates a
// stored status directly, which keeps the state machine centralized and
// auditable.
type Registry struct {
	store  Store
	audit  *audit.Publisher
	logger *slog.Logger
}

func NewRegistry(store Store, auditPub *audit.Publisher, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{store: store, audit: auditPub, logger: logger}
}

// Create links a freshly materialized domain record to its CAD handle. The
// initial state is always Synced.
func (r *Registry) Create(ctx context.Context, projectID domain.ProjectID, cadHandle string, objectType domain.ObjectType, objectID domain.ObjectID, geometryHash string) (*EntityLink, error) {
	now := requestcontext.Now(ctx)
	l := &EntityLink{
		ID:           domain.NewLinkID(),
		ProjectID:    projectID,
		CadHandle:    cadHandle,
		ObjectType:   objectType,
		ObjectID:     objectID,
		GeometryHash: geometryHash,
		Status:       StatusSynced,
		LastSyncedAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.store.Insert(ctx, l); err != nil {
		return nil, err
	}
	r.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionLinkCreated,
		ProjectID: projectID,
		CadHandle: cadHandle,
		LinkID:    l.ID.String(),
		To:        string(StatusSynced),
	})
	return l, nil
}

// Get returns a link by ID.
func (r *Registry) Get(ctx context.Context, id domain.LinkID) (*EntityLink, error) {
	return r.store.FindByID(ctx, id)
}

// FindActive returns the non-deleted link for a handle, or ErrNotFound.
func (r *Registry) FindActive(ctx context.Context, projectID domain.ProjectID, cadHandle string) (*EntityLink, error) {
	return r.store.FindActive(ctx, projectID, cadHandle)
}

// ListActive returns all non-deleted links for a project.
func (r *Registry) ListActive(ctx context.Context, projectID domain.ProjectID) ([]*EntityLink, error) {
	return r.store.ListActive(ctx, projectID)
}

// ApplyCadChange records that a CAD-side update was applied to the domain
// record. The link returns to Synced under the new hash.
func (r *Registry) ApplyCadChange(ctx context.Context, id domain.LinkID, geometryHash string) (*EntityLink, error) {
	return r.transition(ctx, id, audit.ActionLinkCadChangeApplied, "", func(l *EntityLink) error {
		return l.ApplyCadChange(geometryHash, requestcontext.Now(ctx))
	})
}

// MarkUnchanged notes that a handle reappeared unmodified, clearing any
// stale deletion candidacy.
func (r *Registry) MarkUnchanged(ctx context.Context, id domain.LinkID) (*EntityLink, error) {
	l, err := r.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	wasCandidate := l.DeletionCandidate
	if err := l.MarkUnchanged(requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if !wasCandidate {
		// Nothing moved; skip the write entirely.
		return l, nil
	}
	if err := r.store.Update(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// MarkConflict parks a link whose CAD and database sides changed
// independently.
func (r *Registry) MarkConflict(ctx context.Context, id domain.LinkID, pending PendingChange) (*EntityLink, error) {
	return r.transition(ctx, id, audit.ActionLinkConflictDetected, "both sides changed since last sync", func(l *EntityLink) error {
		return l.MarkConflict(pending, requestcontext.Now(ctx))
	})
}

// ResolveConflict moves a conflicted link back to Synced and returns the
// pending CAD snapshot so the caller can apply it (keep-cad) or drop it
// (keep-db).
func (r *Registry) ResolveConflict(ctx context.Context, id domain.LinkID, resolution string) (*EntityLink, *PendingChange, error) {
	l, err := r.store.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	from := l.Status
	pending, err := l.ResolveConflict(requestcontext.Now(ctx))
	if err != nil {
		return nil, nil, err
	}
	if err := r.store.Update(ctx, l); err != nil {
		return nil, nil, err
	}
	r.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionLinkConflictResolved,
		ProjectID: l.ProjectID,
		CadHandle: l.CadHandle,
		LinkID:    l.ID.String(),
		From:      string(from),
		To:        string(l.Status),
		Reason:    resolution,
	})
	return l, pending, nil
}

// MarkDeletionCandidate flags a link whose handle was absent from the
// current re-import batch.
func (r *Registry) MarkDeletionCandidate(ctx context.Context, id domain.LinkID) (*EntityLink, error) {
	return r.transition(ctx, id, audit.ActionLinkDeletionCandidate, "handle absent from re-import", func(l *EntityLink) error {
		return l.MarkDeletionCandidate(requestcontext.Now(ctx))
	})
}

// ConfirmDeletion finalizes a candidate. Terminal: the link never comes
// back, though a later import of the same handle may create a fresh one.
func (r *Registry) ConfirmDeletion(ctx context.Context, id domain.LinkID) (*EntityLink, error) {
	return r.transition(ctx, id, audit.ActionLinkDeleted, "deletion confirmed", func(l *EntityLink) error {
		return l.MarkDeleted(requestcontext.Now(ctx))
	})
}

func (r *Registry) transition(ctx context.Context, id domain.LinkID, action, reason string, apply func(l *EntityLink) error) (*EntityLink, error) {
	l, err := r.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := l.Status
	if err := apply(l); err != nil {
		return nil, err
	}
	if err := r.store.Update(ctx, l); err != nil {
		return nil, err
	}
	r.audit.Emit(ctx, audit.Event{
		Action:    action,
		ProjectID: l.ProjectID,
		CadHandle: l.CadHandle,
		LinkID:    l.ID.String(),
		From:      string(from),
		To:        string(l.Status),
		Reason:    reason,
	})
	return l, nil
}
