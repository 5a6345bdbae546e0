package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"cadlink/pkg/domain"
	dErrors "cadlink/pkg/domain-errors"
	"cadlink/pkg/platform/httputil"
	"cadlink/pkg/requestcontext"
)

// HandleImport handles POST /projects/{projectID}/import requests.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	projectID, err := domain.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid project id"))
		return
	}

	req, ok := httputil.Decode[BatchRequest](w, r, h.logger)
	if !ok {
		return
	}
	if len(req.Entities) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "batch contains no entities"))
		return
	}

	report, err := h.ingest.ImportBatch(ctx, projectID, req.Entities)
	if err != nil {
		h.logger.ErrorContext(ctx, "import batch failed",
			"request_id", requestID,
			"project_id", projectID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "import batch processed",
		"request_id", requestID,
		"project_id", projectID,
		"entities", len(req.Entities),
		"created", report.Created,
		"queued_for_review", report.QueuedForReview,
		"rejected", report.Rejected,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, report)
}

// HandleReimport handles POST /projects/{projectID}/reimport requests.
func (h *Handler) HandleReimport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	projectID, err := domain.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid project id"))
		return
	}

	req, ok := httputil.Decode[BatchRequest](w, r, h.logger)
	if !ok {
		return
	}

	report, err := h.ingest.Reimport(ctx, projectID, req.Entities)
	if err != nil {
		h.logger.ErrorContext(ctx, "reimport failed",
			"request_id", requestID,
			"project_id", projectID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "reimport processed",
		"request_id", requestID,
		"project_id", projectID,
		"entities", len(req.Entities),
		"synced", report.Synced,
		"modified", report.Modified,
		"conflicts", report.Conflicts,
		"deletion_candidates", len(report.DeletionCandidates),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, report)
}
