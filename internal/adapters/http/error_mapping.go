package httpadapter

import (
	"net/http"

	"github.com/toolkitrag/grounded/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrValidation):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrEmbeddingProvider),
		domain.IsKind(err, domain.ErrGeneration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// statusMessage keeps backend detail out of response bodies. Validation
// errors are the exception: the caller needs to know what to fix.
func statusMessage(status int, err error) string {
	switch status {
	case http.StatusBadRequest:
		return err.Error()
	case http.StatusNotFound:
		return "document not found"
	case http.StatusServiceUnavailable:
		return "temporarily unavailable, retry later"
	case http.StatusBadGateway:
		return "upstream model provider failed"
	default:
		return "internal error"
	}
}
