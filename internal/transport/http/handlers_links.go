package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cadlink/internal/ingest"
	"cadlink/pkg/domain"
	dErrors "cadlink/pkg/domain-errors"
	"cadlink/pkg/platform/httputil"
	"cadlink/pkg/requestcontext"
)

// HandleListLinks handles GET /projects/{projectID}/links requests.
func (h *Handler) HandleListLinks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projectID, err := domain.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid project id"))
		return
	}

	active, err := h.links.ListActive(ctx, projectID)
	if err != nil {
		h.logger.ErrorContext(ctx, "listing links failed",
			"request_id", requestcontext.RequestID(ctx),
			"project_id", projectID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	out := make([]LinkResponse, 0, len(active))
	for _, l := range active {
		out = append(out, FromLink(l))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"links": out})
}

// HandleResolveConflict handles POST /links/{linkID}/resolve-conflict requests.
func (h *Handler) HandleResolveConflict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	linkID, err := domain.ParseLinkID(chi.URLParam(r, "linkID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid link id"))
		return
	}

	req, ok := httputil.Decode[ResolveConflictRequest](w, r, h.logger)
	if !ok {
		return
	}
	resolution, ok := ingest.ParseConflictResolution(req.Resolution)
	if !ok {
		httputil.WriteError(w, dErrors.Newf(dErrors.CodeBadRequest, "unknown resolution %q", req.Resolution))
		return
	}

	if err := h.ingest.ResolveConflict(ctx, linkID, resolution); err != nil {
		h.logger.ErrorContext(ctx, "conflict resolution failed",
			"request_id", requestID,
			"link_id", linkID,
			"resolution", resolution,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "conflict resolved",
		"request_id", requestID,
		"link_id", linkID,
		"resolution", resolution,
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleConfirmDeletion handles POST /links/{linkID}/confirm-deletion requests.
func (h *Handler) HandleConfirmDeletion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	linkID, err := domain.ParseLinkID(chi.URLParam(r, "linkID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid link id"))
		return
	}

	if err := h.ingest.ConfirmDeletion(ctx, linkID); err != nil {
		h.logger.ErrorContext(ctx, "deletion confirmation failed",
			"request_id", requestID,
			"link_id", linkID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "deletion confirmed",
		"request_id", requestID,
		"link_id", linkID,
	)
	w.WriteHeader(http.StatusNoContent)
}
