package httpadapter

import (
	"net/http"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrTemporary),
		domain.IsKind(err, domain.ErrNotConfigured),
		domain.IsKind(err, domain.ErrKnowledgeUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicErrorMessage keeps internal error chains out of 5xx bodies.
func publicErrorMessage(err error, status int) string {
	if status < http.StatusInternalServerError {
		return err.Error()
	}
	if status == http.StatusServiceUnavailable {
		return "service temporarily unavailable"
	}
	return "internal error"
}
