package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cadlink/internal/objects"
	"cadlink/pkg/domain"
	dErrors "cadlink/pkg/domain-errors"
	"cadlink/pkg/platform/httputil"
	pstrings "cadlink/pkg/platform/strings"
	"cadlink/pkg/requestcontext"
)

// HandleExport handles GET /projects/{projectID}/export requests. Optional
// query parameters: repeated "type" to restrict object types, "discipline"
// to restrict discipline.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projectID, err := domain.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid project id"))
		return
	}

	var filter objects.Filter
	for _, raw := range pstrings.DedupeAndTrimLower(r.URL.Query()["type"]) {
		t, err := domain.ParseObjectType(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid object type filter"))
			return
		}
		filter.Types = append(filter.Types, t)
	}
	filter.Discipline = r.URL.Query().Get("discipline")

	entities, err := h.export.ExportProject(ctx, projectID, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "project export failed",
			"request_id", requestcontext.RequestID(ctx),
			"project_id", projectID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ExportResponse{ProjectID: projectID, Entities: entities})
}
