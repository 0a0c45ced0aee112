package qdrant

import (
	"errors"
	"net/http"

	"github.com/kirillkom/expert-assistant/internal/infrastructure/resilience"
)

// classifyQdrantError keeps expected 404/409 replies out of the breaker.
func classifyQdrantError(err error) resilience.ErrorClassification {
	if isStatus(err, http.StatusNotFound) || isStatus(err, http.StatusConflict) {
		return resilience.ErrorClassification{}
	}
	return resilience.ClassifyHTTPError(err)
}

func isStatus(err error, code int) bool {
	var statusErr *resilience.HTTPStatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}
