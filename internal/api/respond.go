package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/Belphemur/DoubanRecommend/internal/apperrors"
	"github.com/Belphemur/DoubanRecommend/internal/render"
)

// Error codes returned in the error envelope.
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeValidation      = "VALIDATION_ERROR"
	CodeInvalidCategory = "INVALID_CATEGORY"
	CodeInvalidTag      = "INVALID_TAG"
	CodeDuplicateTag    = "DUPLICATE_TAG"
	CodeProtectedTag    = "PROTECTED_TAG"
	CodeTagNotFound     = "TAG_NOT_FOUND"
	CodeFetchFailed     = "FETCH_FAILED"
	CodeForbiddenHost   = "FORBIDDEN_HOST"
	CodeInternal        = "INTERNAL_ERROR"
)

// APIError is the error part of the response envelope.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Status    string    `json:"status"`
	Data      any       `json:"data,omitempty"`
	Error     *APIError `json:"error,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeEnvelope(w, r, status, &APIResponse{Status: "success", Data: data})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, apiErr *APIError, err error) {
	if err != nil {
		logger := zerolog.Ctx(r.Context())
		event := logger.Debug()
		if status >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.Err(err).Str("code", apiErr.Code).Msg("API error")
	}
	writeEnvelope(w, r, status, &APIResponse{Status: "error", Error: apiErr})
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, status int, response *APIResponse) {
	response.RequestID = GetRequestID(r.Context())
	data, err := json.Marshal(response)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// respondDomainError maps domain errors to status codes and error codes.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, apiErr := classify(err)
	respondError(w, r, status, apiErr, err)
}

func classify(err error) (int, *APIError) {
	reason := apperrors.RejectionReason(err)
	switch {
	case errors.Is(err, &apperrors.ErrUnknownCategory{}):
		return http.StatusBadRequest, &APIError{Code: CodeInvalidCategory, Message: err.Error()}
	case errors.Is(err, &apperrors.ErrEmptyTag{}), errors.Is(err, &apperrors.ErrInvalidTag{}):
		return http.StatusBadRequest, &APIError{Code: CodeInvalidTag, Message: reason}
	case errors.Is(err, &apperrors.ErrSentinelTag{}):
		return http.StatusBadRequest, &APIError{Code: CodeProtectedTag, Message: reason}
	case errors.Is(err, &apperrors.ErrDuplicateTag{}):
		return http.StatusConflict, &APIError{Code: CodeDuplicateTag, Message: reason}
	case errors.Is(err, &apperrors.ErrTagNotFound{}):
		return http.StatusNotFound, &APIError{Code: CodeTagNotFound, Message: reason}
	case errors.Is(err, &apperrors.ErrFetchFailed{}), errors.Is(err, &apperrors.ErrInvalidPayload{}):
		return http.StatusBadGateway, &APIError{Code: CodeFetchFailed, Message: render.FailureText, Suggestion: render.SuggestionText}
	default:
		return http.StatusInternalServerError, &APIError{Code: CodeInternal, Message: "internal error"}
	}
}
