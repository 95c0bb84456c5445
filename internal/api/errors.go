package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
)

// schemaLoadMessage is the fixed body for any matcher document failure.
const schemaLoadMessage = "Failed to read schema files"

// httpStatusFromDomainError maps domain errors to HTTP status codes.
func httpStatusFromDomainError(err error) int {
	var notFound *domain.NotFoundError
	var validation *domain.ValidationError
	var conflict *domain.ConflictError
	var fileRead *domain.FileReadError
	var archiveRead *domain.ArchiveReadError
	var network *domain.NetworkError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation), errors.As(err, &fileRead), errors.As(err, &archiveRead):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &network):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorResponse is the JSON body of every failed request. Upstream failures
// carry the backend's status and body verbatim.
type errorResponse struct {
	Error          string `json:"error"`
	UpstreamStatus int    `json:"upstreamStatus,omitempty"`
	UpstreamBody   string `json:"upstreamBody,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatusFromDomainError(err)
	body := errorResponse{Error: err.Error()}

	var schemaLoad *domain.SchemaLoadError
	var network *domain.NetworkError
	switch {
	case errors.As(err, &schemaLoad):
		body.Error = schemaLoadMessage
	case errors.As(err, &network):
		body.UpstreamStatus = network.StatusCode
		body.UpstreamBody = network.Body
	case status == http.StatusInternalServerError:
		body.Error = http.StatusText(status)
	}

	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path), slog.Int("status", status), slog.Any("error", err))
	}
	writeJSON(w, status, body)
}
