package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cadlink/pkg/domain"
	dErrors "cadlink/pkg/domain-errors"
	"cadlink/pkg/platform/httputil"
	"cadlink/pkg/requestcontext"
)

// HandleListReview handles GET /projects/{projectID}/review requests.
func (h *Handler) HandleListReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projectID, err := domain.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid project id"))
		return
	}

	items, err := h.ingest.ListOpenReviewItems(ctx, projectID)
	if err != nil {
		h.logger.ErrorContext(ctx, "listing review queue failed",
			"request_id", requestcontext.RequestID(ctx),
			"project_id", projectID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	out := make([]ReviewItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, FromReviewItem(item))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"items": out})
}

// HandleResolveReview handles POST /review/{reviewID}/resolve requests.
func (h *Handler) HandleResolveReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	reviewID, err := domain.ParseReviewItemID(chi.URLParam(r, "reviewID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid review item id"))
		return
	}

	req, ok := httputil.Decode[ResolveReviewRequest](w, r, h.logger)
	if !ok {
		return
	}
	chosenType, err := domain.ParseObjectType(req.ObjectType)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid object type"))
		return
	}

	outcome, err := h.ingest.ResolveReviewItem(ctx, reviewID, chosenType, req.Attributes)
	if err != nil {
		h.logger.ErrorContext(ctx, "review resolution failed",
			"request_id", requestID,
			"review_id", reviewID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "review item resolved",
		"request_id", requestID,
		"review_id", reviewID,
		"object_type", chosenType,
		"outcome", outcome.Kind,
	)
	httputil.WriteJSON(w, http.StatusOK, outcome)
}
