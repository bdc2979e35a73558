package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clockwork-hr/attendance-recon-go/internal/domain/roster"
	"github.com/clockwork-hr/attendance-recon-go/internal/handler/http/response"
)

type ViewHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	UpdateFilters(w http.ResponseWriter, r *http.Request)
	Snapshot(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type viewHandlerImpl struct {
	viewService roster.ViewService
}

func NewViewHandler(viewService roster.ViewService) ViewHandler {
	return &viewHandlerImpl{
		viewService: viewService,
	}
}

// Create handles POST /views
func (h *viewHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var filters roster.ViewFilters
	if err := json.NewDecoder(r.Body).Decode(&filters); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	snap, err := h.viewService.CreateView(r.Context(), filters)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "View created", snap)
}

// UpdateFilters handles PUT /views/{id}/filters
func (h *viewHandlerImpl) UpdateFilters(w http.ResponseWriter, r *http.Request) {
	viewID := chi.URLParam(r, "id")

	var filters roster.ViewFilters
	if err := json.NewDecoder(r.Body).Decode(&filters); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	snap, err := h.viewService.UpdateFilters(r.Context(), viewID, filters)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, snap)
}

// Snapshot handles GET /views/{id}
func (h *viewHandlerImpl) Snapshot(w http.ResponseWriter, r *http.Request) {
	viewID := chi.URLParam(r, "id")

	query := roster.SnapshotQuery{
		Search: r.URL.Query().Get("search"),
		Matrix: r.URL.Query().Get("matrix") == "true",
	}
	if v := r.URL.Query().Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			response.BadRequest(w, "invalid page parameter", nil)
			return
		}
		query.Page = page
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size < 1 || size > 1000 {
			response.BadRequest(w, "invalid page_size parameter", nil)
			return
		}
		query.PageSize = size
	}

	snap, err := h.viewService.Snapshot(r.Context(), viewID, query)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	totalPages := 0
	if snap.PageSize > 0 {
		totalPages = (snap.TotalRows + snap.PageSize - 1) / snap.PageSize
	}
	response.SuccessWithMeta(w, snap, &response.Meta{
		Page:       snap.Page,
		Limit:      snap.PageSize,
		TotalItems: int64(snap.TotalRows),
		TotalPages: totalPages,
	})
}

// Delete handles DELETE /views/{id}
func (h *viewHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	viewID := chi.URLParam(r, "id")

	if err := h.viewService.DeleteView(r.Context(), viewID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, map[string]string{"id": viewID})
}
