// Package httptransport is the thin HTTP layer over the sync pipeline. It
// delegates to domain services without embedding business logic so transport
// concerns stay isolated.
package httptransport

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"

	"cadlink/internal/cad"
	"cadlink/internal/classify"
	"cadlink/internal/ingest"
	"cadlink/internal/link"
	"cadlink/internal/objects"
	"cadlink/internal/review"
	"cadlink/pkg/domain"
)

// IngestService defines the batch and resolution operations the handlers need.
type IngestService interface {
	ImportBatch(ctx context.Context, projectID domain.ProjectID, entities []cad.RawEntity) (*ingest.ImportReport, error)
	Reimport(ctx context.Context, projectID domain.ProjectID, entities []cad.RawEntity) (*ingest.ChangeReport, error)
	ResolveReviewItem(ctx context.Context, reviewID domain.ReviewItemID, chosenType domain.ObjectType, attrs classify.Attributes) (ingest.EntityOutcome, error)
	ResolveConflict(ctx context.Context, linkID domain.LinkID, resolution ingest.ConflictResolution) error
	ConfirmDeletion(ctx context.Context, linkID domain.LinkID) error
	ListOpenReviewItems(ctx context.Context, projectID domain.ProjectID) ([]*review.Item, error)
}

// ExportService defines the read-side export operation.
type ExportService interface {
	ExportProject(ctx context.Context, projectID domain.ProjectID, filter objects.Filter) ([]cad.OutgoingEntity, error)
}

// LinkDirectory exposes the registry's read-only listing for the API.
type LinkDirectory interface {
	ListActive(ctx context.Context, projectID domain.ProjectID) ([]*link.EntityLink, error)
}

// Handler wires sync endpoints to the pipeline services.
type Handler struct {
	ingest IngestService
	export ExportService
	links  LinkDirectory
	logger *slog.Logger
}

// New constructs the handler with its dependencies.
func New(ingestSvc IngestService, exportSvc ExportService, links LinkDirectory, logger *slog.Logger) *Handler {
	return &Handler{
		ingest: ingestSvc,
		export: exportSvc,
		links:  links,
		logger: logger,
	}
}

// Register mounts all sync endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/projects/{projectID}/import", h.HandleImport)
	r.Post("/projects/{projectID}/reimport", h.HandleReimport)
	r.Get("/projects/{projectID}/export", h.HandleExport)
	r.Get("/projects/{projectID}/links", h.HandleListLinks)
	r.Get("/projects/{projectID}/review", h.HandleListReview)
	r.Post("/review/{reviewID}/resolve", h.HandleResolveReview)
	r.Post("/links/{linkID}/resolve-conflict", h.HandleResolveConflict)
	r.Post("/links/{linkID}/confirm-deletion", h.HandleConfirmDeletion)
}
