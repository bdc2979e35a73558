package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clockwork-hr/attendance-recon-go/internal/domain/export"
	"github.com/clockwork-hr/attendance-recon-go/internal/handler/http/response"
)

type ExportHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Download(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type exportHandlerImpl struct {
	exportService export.Service
}

func NewExportHandler(exportService export.Service) ExportHandler {
	return &exportHandlerImpl{
		exportService: exportService,
	}
}

// Create handles POST /views/{id}/export
func (h *exportHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	viewID := chi.URLParam(r, "id")

	var req export.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	artifact, err := h.exportService.Create(r.Context(), viewID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Export created", artifact)
}

// Get handles GET /exports/{id}
func (h *exportHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	artifact, err := h.exportService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, artifact)
}

// Delete handles DELETE /exports/{id}
func (h *exportHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	artifactID := chi.URLParam(r, "id")

	if err := h.exportService.Delete(r.Context(), artifactID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, map[string]string{"id": artifactID})
}

// Download handles GET /exports/{id}/download
func (h *exportHandlerImpl) Download(w http.ResponseWriter, r *http.Request) {
	artifact, rc, err := h.exportService.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+artifact.Filename+`"`)
	w.Header().Set("X-Row-Count", strconv.Itoa(artifact.RowCount))
	_, _ = io.Copy(w, rc)
}
