// Package audit captures the synchronization trail: every link state
// transition and batch outcome is emitted as an event, so "what changed a
// link and why" is answerable after the fact.
package audit

import (
	"time"

	"cadlink/pkg/domain"
)

// Actions emitted by the pipeline.
const (
	ActionLinkCreated           = "link.created"
	ActionLinkCadChangeApplied  = "link.cad_change_applied"
	ActionLinkConflictDetected  = "link.conflict_detected"
	ActionLinkConflictResolved  = "link.conflict_resolved"
	ActionLinkDeletionCandidate = "link.deletion_candidate"
	ActionLinkDeleted           = "link.deleted"
	ActionBatchImported         = "batch.imported"
	ActionBatchReimported       = "batch.reimported"
	ActionReviewResolved        = "review.resolved"
)

// Event is emitted from domain logic to capture key actions. Transport
// agnostic so sinks can fan out.
type Event struct {
	Timestamp time.Time        `json:"timestamp"`
	Action    string           `json:"action"`
	ProjectID domain.ProjectID `json:"project_id"`
	CadHandle string           `json:"cad_handle,omitempty"`
	LinkID    string           `json:"link_id,omitempty"`
	From      string           `json:"from,omitempty"`
	To        string           `json:"to,omitempty"`
	Reason    string           `json:"reason,omitempty"`
	RequestID string           `json:"request_id,omitempty"`
}
