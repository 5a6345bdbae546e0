// Package ingest runs the synchronization pipeline: classification,
// materialization on first import, and change-detecting reconciliation on
// re-import.
package ingest

import (
	"cadlink/pkg/domain"
)

// AutoCreateThreshold is the confidence below which classifications route to
// manual review instead of materializing silently.
const AutoCreateThreshold = 0.7

// OutcomeKind is the per-entity result taxonomy. No outcome is ever a batch
// verdict; batches always report entity by entity.
type OutcomeKind string

const (
	OutcomeCreated         OutcomeKind = "created"
	OutcomeUpdated         OutcomeKind = "updated"
	OutcomeQueuedForReview OutcomeKind = "queued_for_review"
	OutcomeRejected        OutcomeKind = "rejected"
	OutcomeSynced          OutcomeKind = "synced"
	OutcomeModified        OutcomeKind = "modified"
	OutcomeConflict        OutcomeKind = "conflict"

	// OutcomeSkipped covers malformed entities and entities left unprocessed
	// after cancellation.
	OutcomeSkipped OutcomeKind = "skipped"

	// OutcomeFailed marks a persistence failure. The entity's transaction
	// rolled back whole; the batch continued.
	OutcomeFailed OutcomeKind = "failed"
)

// Rejection and skip reasons surfaced in reports.
const (
	ReasonGeometryMismatch = "geometry_mismatch"
	ReasonMalformedEntity  = "malformed_entity"
	ReasonCancelled        = "cancelled"
	ReasonPersistence      = "persistence_failure"
)

// EntityOutcome is one entity's result within a batch.
type EntityOutcome struct {
	Handle   string              `json:"handle"`
	Kind     OutcomeKind         `json:"kind"`
	ObjectID domain.ObjectID     `json:"object_id,omitzero"`
	LinkID   domain.LinkID       `json:"link_id,omitzero"`
	ReviewID domain.ReviewItemID `json:"review_id,omitzero"`
	Reason   string              `json:"reason,omitempty"`
}

// ImportReport summarizes a first-time import.
type ImportReport struct {
	ProjectID       domain.ProjectID `json:"project_id"`
	Outcomes        []EntityOutcome  `json:"outcomes"`
	Created         int              `json:"created"`
	Updated         int              `json:"updated"`
	QueuedForReview int              `json:"queued_for_review"`
	Rejected        int              `json:"rejected"`
	Skipped         int              `json:"skipped"`
	Failed          int              `json:"failed"`
}

func (r *ImportReport) add(o EntityOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Kind {
	case OutcomeCreated:
		r.Created++
	case OutcomeUpdated, OutcomeModified:
		r.Updated++
	case OutcomeQueuedForReview:
		r.QueuedForReview++
	case OutcomeRejected:
		r.Rejected++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
	}
}

// ChangeReport summarizes a re-import reconciliation.
type ChangeReport struct {
	ProjectID          domain.ProjectID `json:"project_id"`
	Outcomes           []EntityOutcome  `json:"outcomes"`
	Synced             int              `json:"synced"`
	Modified           int              `json:"modified"`
	Conflicts          int              `json:"conflicts"`
	Created            int              `json:"created"`
	QueuedForReview    int              `json:"queued_for_review"`
	Rejected           int              `json:"rejected"`
	Skipped            int              `json:"skipped"`
	Failed             int              `json:"failed"`
	DeletionCandidates []string         `json:"deletion_candidates"`
}

func (r *ChangeReport) add(o EntityOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Kind {
	case OutcomeSynced:
		r.Synced++
	case OutcomeModified:
		r.Modified++
	case OutcomeConflict:
		r.Conflicts++
	case OutcomeCreated:
		r.Created++
	case OutcomeQueuedForReview:
		r.QueuedForReview++
	case OutcomeRejected:
		r.Rejected++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
	}
}

// ConflictResolution selects which side a conflicted link keeps.
type ConflictResolution string

const (
	KeepCad ConflictResolution = "keep_cad"
	KeepDb  ConflictResolution = "keep_db"
)

// ParseConflictResolution validates a resolution choice.
func ParseConflictResolution(s string) (ConflictResolution, bool) {
	switch r := ConflictResolution(s); r {
	case KeepCad, KeepDb:
		return r, true
	default:
		return "", false
	}
}
