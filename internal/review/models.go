// Package review holds entities whose classification confidence was too low
// to auto-materialize. Items leave the queue only through explicit human
// resolution.
package review

import (
	"context"
	"time"

	"cadlink/internal/cad"
	"cadlink/internal/classify"
	"cadlink/pkg/domain"
	dErrors "cadlink/pkg/domain-errors"
)

var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "review item not found")

// Item is one queued entity awaiting manual classification.
type Item struct {
	ID             domain.ReviewItemID
	ProjectID      domain.ProjectID
	Entity         cad.RawEntity
	Classification classify.Classification
	CreatedAt      time.Time
	Resolved       bool
	ResolvedAt     *time.Time
}

// Store persists review queue items.
type Store interface {
	Add(ctx context.Context, item *Item) error
	Find(ctx context.Context, id domain.ReviewItemID) (*Item, error)
	ListOpen(ctx context.Context, projectID domain.ProjectID) ([]*Item, error)
	MarkResolved(ctx context.Context, id domain.ReviewItemID, at time.Time) error
}
