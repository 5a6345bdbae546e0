// Package joblock serializes import jobs per project. All registry and
// domain-table writes for a project happen under this lock, so two
// concurrent imports can never race on the same handle.
package joblock

import (
	"context"

	"cadlink/pkg/domain"
	dErrors "cadlink/pkg/domain-errors"
)

// ErrProjectBusy means another job holds the project lock. Fatal to the
// whole job: acquisition happens once at job start, never mid-batch.
var ErrProjectBusy = dErrors.New(dErrors.CodeUnavailable, "another import job holds the project lock")

// Release frees a held lock.
type Release func(ctx context.Context) error

// Locker acquires the per-project job lock. Acquisition is try-once:
// contention surfaces immediately as ErrProjectBusy rather than queueing
// jobs invisibly.
type Locker interface {
	Acquire(ctx context.Context, projectID domain.ProjectID) (Release, error)
}
