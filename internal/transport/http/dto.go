package httptransport

import (
	"time"

	"cadlink/internal/cad"
	"cadlink/internal/classify"
	"cadlink/internal/link"
	"cadlink/internal/review"
	"cadlink/pkg/domain"
)

// BatchRequest carries the decoded drawing entities for import and reimport.
type BatchRequest struct {
	Entities []cad.RawEntity `json:"entities"`
}

// ResolveReviewRequest carries the operator's classification decision.
type ResolveReviewRequest struct {
	ObjectType string              `json:"object_type"`
	Attributes classify.Attributes `json:"attributes"`
}

// ResolveConflictRequest picks which side a conflicted link keeps.
type ResolveConflictRequest struct {
	Resolution string `json:"resolution"`
}

// ExportResponse wraps the exported entities.
type ExportResponse struct {
	ProjectID domain.ProjectID     `json:"project_id"`
	Entities  []cad.OutgoingEntity `json:"entities"`
}

// LinkResponse is the API shape of an entity link.
type LinkResponse struct {
	ID                domain.LinkID     `json:"id"`
	ProjectID         domain.ProjectID  `json:"project_id"`
	CadHandle         string            `json:"cad_handle"`
	ObjectType        domain.ObjectType `json:"object_type"`
	ObjectID          domain.ObjectID   `json:"object_id"`
	GeometryHash      string            `json:"geometry_hash"`
	Status            link.SyncStatus   `json:"status"`
	DeletionCandidate bool              `json:"deletion_candidate"`
	LastSyncedAt      time.Time         `json:"last_synced_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

func FromLink(l *link.EntityLink) LinkResponse {
	return LinkResponse{
		ID:                l.ID,
		ProjectID:         l.ProjectID,
		CadHandle:         l.CadHandle,
		ObjectType:        l.ObjectType,
		ObjectID:          l.ObjectID,
		GeometryHash:      l.GeometryHash,
		Status:            l.Status,
		DeletionCandidate: l.DeletionCandidate,
		LastSyncedAt:      l.LastSyncedAt,
		UpdatedAt:         l.UpdatedAt,
	}
}

// ReviewItemResponse is the API shape of a queued review item.
type ReviewItemResponse struct {
	ID             domain.ReviewItemID     `json:"id"`
	ProjectID      domain.ProjectID        `json:"project_id"`
	Entity         cad.RawEntity           `json:"entity"`
	Classification classify.Classification `json:"classification"`
	CreatedAt      time.Time               `json:"created_at"`
}

func FromReviewItem(item *review.Item) ReviewItemResponse {
	return ReviewItemResponse{
		ID:             item.ID,
		ProjectID:      item.ProjectID,
		Entity:         item.Entity,
		Classification: item.Classification,
		CreatedAt:      item.CreatedAt,
	}
}
