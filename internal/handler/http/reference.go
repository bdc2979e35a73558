package http

import (
	"net/http"

	"github.com/clockwork-hr/attendance-recon-go/internal/handler/http/response"
	"github.com/clockwork-hr/attendance-recon-go/internal/service/reference"
)

type ReferenceHandler interface {
	Departments(w http.ResponseWriter, r *http.Request)
	Areas(w http.ResponseWriter, r *http.Request)
}

type referenceHandlerImpl struct {
	cache *reference.Cache
}

func NewReferenceHandler(cache *reference.Cache) ReferenceHandler {
	return &referenceHandlerImpl{
		cache: cache,
	}
}

// Departments handles GET /reference/departments
func (h *referenceHandlerImpl) Departments(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.cache.Departments())
}

// Areas handles GET /reference/areas
func (h *referenceHandlerImpl) Areas(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.cache.Areas())
}
