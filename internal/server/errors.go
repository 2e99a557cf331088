package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/replynow20/gemini-zotero/internal/domain"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Status  int    `json:"upstream_status,omitempty"`
}

// statusFor maps a pipeline error to an HTTP status.
func statusFor(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	var de *domain.DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError
	}
	switch de.Type {
	case domain.ErrorTypeValidation, domain.ErrorTypeInputUnavailable:
		return http.StatusBadRequest
	case domain.ErrorTypeTransport:
		if de.Classification.Kind == domain.StatusKindQuota {
			return http.StatusTooManyRequests
		}
		return http.StatusBadGateway
	case domain.ErrorTypeProtocol, domain.ErrorTypeArtifactMissing:
		return http.StatusBadGateway
	case domain.ErrorTypeParse:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	detail := errorDetail{Type: string(domain.TypeOf(err)), Message: domain.UserMessage(err)}
	if detail.Type == "" {
		detail.Type = "internal"
	}
	var de *domain.DomainError
	if errors.As(err, &de) && de.Type == domain.ErrorTypeTransport {
		detail.Status = de.Status
	}

	logger := h.logger.WithContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", status).Msg("Request failed")
	} else {
		logger.Warn().Err(err).Int("status", status).Msg("Request rejected")
	}
	h.writeJSON(w, status, errorBody{Error: detail})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}
