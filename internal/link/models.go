// Package link owns the durable mapping between drawing entities and domain
// records, and the sync state machine that rides on it.
package link

import (
	"time"

	"cadlink/internal/classify"
	"cadlink/internal/geometry"
	"cadlink/pkg/domain"
	dErrors "cadlink/pkg/domain-errors"
)

// SyncStatus is the link state machine's state set.
//
// Transitions: links start Synced; a CAD-side change that applies cleanly
// returns to Synced (reported as Modified); independent CAD and database
// changes park the link in Conflict until an explicit resolution; Deleted is
// terminal and only reachable through deletion confirmation.
type SyncStatus string

const (
	StatusSynced   SyncStatus = "synced"
	StatusModified SyncStatus = "modified"
	StatusConflict SyncStatus = "conflict"
	StatusDeleted  SyncStatus = "deleted"
)

// PendingChange snapshots the CAD side of a detected conflict so either
// resolution can be applied later without re-reading the drawing.
type PendingChange struct {
	GeometryHash   string                  `json:"geometry_hash"`
	Geometry       geometry.Geometry       `json:"geometry"`
	Classification classify.Classification `json:"classification"`
}

// EntityLink ties one CAD entity (by handle) to one domain-table row.
//
// Invariants:
//   - At most one non-deleted link exists per (ProjectID, CadHandle)
//   - Status mutations happen only through the Registry
//   - StatusDeleted is terminal; a deleted link is never reactivated
type EntityLink struct {
	ID           domain.LinkID
	ProjectID    domain.ProjectID
	CadHandle    string
	ObjectType   domain.ObjectType
	ObjectID     domain.ObjectID
	GeometryHash string
	Status       SyncStatus

	// DeletionCandidate flags a link whose handle was absent from the last
	// re-import. The domain record survives until an explicit confirmation;
	// absence from one drawing revision does not prove intent to delete.
	DeletionCandidate bool

	// Pending holds the CAD-side snapshot while Status is Conflict.
	Pending *PendingChange

	LastSyncedAt time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DomainTable returns the domain table the link points into.
func (l *EntityLink) DomainTable() string { return l.ObjectType.Table() }

func (l *EntityLink) canMutate() error {
	if l.Status == StatusDeleted {
		return dErrors.New(dErrors.CodeInvariantViolation, "link is deleted; deleted links are never reactivated")
	}
	return nil
}

// ApplyCadChange records a cleanly applied CAD-side update. The terminal
// state is Synced; the batch report carries the Modified outcome.
func (l *EntityLink) ApplyCadChange(hash string, now time.Time) error {
	if err := l.canMutate(); err != nil {
		return err
	}
	l.GeometryHash = hash
	l.Status = StatusSynced
	l.DeletionCandidate = false
	l.Pending = nil
	l.LastSyncedAt = now
	l.UpdatedAt = now
	return nil
}

// MarkUnchanged clears a stale deletion candidate flag when the handle shows
// up again. No hash or timestamp moves: the entity did not change.
func (l *EntityLink) MarkUnchanged(now time.Time) error {
	if err := l.canMutate(); err != nil {
		return err
	}
	if l.DeletionCandidate {
		l.DeletionCandidate = false
		l.UpdatedAt = now
	}
	return nil
}

// MarkConflict parks the link with the CAD side snapshotted. Neither side is
// overwritten automatically.
func (l *EntityLink) MarkConflict(pending PendingChange, now time.Time) error {
	if err := l.canMutate(); err != nil {
		return err
	}
	l.Status = StatusConflict
	l.Pending = &pending
	l.UpdatedAt = now
	return nil
}

// ResolveConflict leaves Conflict for Synced. Both resolutions adopt the
// pending hash: keep-cad because the CAD data is applied to the domain
// record, keep-db because the CAD version is acknowledged without applying,
// so the next re-import of the same drawing reconciles as unchanged.
func (l *EntityLink) ResolveConflict(now time.Time) (*PendingChange, error) {
	if l.Status != StatusConflict {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "link is not in conflict")
	}
	pending := l.Pending
	if pending == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "conflicted link has no pending change")
	}
	l.GeometryHash = pending.GeometryHash
	l.Status = StatusSynced
	l.Pending = nil
	l.LastSyncedAt = now
	l.UpdatedAt = now
	return pending, nil
}

// MarkDeletionCandidate flags the link after its handle went missing from a
// re-import batch.
func (l *EntityLink) MarkDeletionCandidate(now time.Time) error {
	if err := l.canMutate(); err != nil {
		return err
	}
	if !l.DeletionCandidate {
		l.DeletionCandidate = true
		l.UpdatedAt = now
	}
	return nil
}

// MarkDeleted finalizes a deletion. Requires prior candidacy so a stray
// confirmation cannot delete a live link.
func (l *EntityLink) MarkDeleted(now time.Time) error {
	if err := l.canMutate(); err != nil {
		return err
	}
	if !l.DeletionCandidate {
		return dErrors.New(dErrors.CodeInvariantViolation, "link is not a deletion candidate")
	}
	l.Status = StatusDeleted
	l.Pending = nil
	l.UpdatedAt = now
	return nil
}
