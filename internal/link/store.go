package link

import (
	"context"

	"cadlink/pkg/domain"
	dErrors "cadlink/pkg/domain-errors"
)

// Store errors shared by implementations.
var (
	ErrNotFound = dErrors.New(dErrors.CodeNotFound, "entity link not found")

	// ErrHandleTaken enforces the one-active-link-per-handle invariant at
	// the storage layer, where it survives concurrent writers.
	ErrHandleTaken = dErrors.New(dErrors.CodeConflict, "an active link already exists for this handle")
)

// Store persists entity links. It stores what the Registry tells it to and
// enforces only the uniqueness invariant; transition legality is the
// Registry's job.
type Store interface {
	Insert(ctx context.Context, l *EntityLink) error
	Update(ctx context.Context, l *EntityLink) error
	FindByID(ctx context.Context, id domain.LinkID) (*EntityLink, error)

	// FindActive returns the single non-deleted link for a handle, or
	// ErrNotFound.
	FindActive(ctx context.Context, projectID domain.ProjectID, cadHandle string) (*EntityLink, error)

	// ListActive returns all non-deleted links for a project.
	ListActive(ctx context.Context, projectID domain.ProjectID) ([]*EntityLink, error)
}
