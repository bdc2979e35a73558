package response

import (
	"errors"
	"net/http"

	"github.com/clockwork-hr/attendance-recon-go/internal/domain/auth"
	"github.com/clockwork-hr/attendance-recon-go/internal/domain/export"
	"github.com/clockwork-hr/attendance-recon-go/internal/domain/roster"
	"github.com/clockwork-hr/attendance-recon-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, err.Error())

	// Roster domain errors
	case errors.Is(err, roster.ErrViewNotFound):
		NotFound(w, "View not found")
	case errors.Is(err, roster.ErrUnknownReportType):
		BadRequest(w, "Unknown report type", nil)
	case errors.Is(err, roster.ErrUpstreamUnavailable):
		BadGateway(w, "Attendance appliance unavailable")

	// Export domain errors
	case errors.Is(err, export.ErrArtifactNotFound):
		NotFound(w, "Export artifact not found")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
