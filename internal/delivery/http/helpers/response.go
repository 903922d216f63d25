package helpers

import (
	"encoding/json"
	"net/http"
)

// Error codes for API error responses. Use these with WriteJSONError.
const (
	ErrCodeBadRequest         = "bad_request"
	ErrCodeUnauthorized       = "unauthorized"
	ErrCodeForbidden          = "forbidden"
	ErrCodeNotFound           = "not_found"
	ErrCodeNameConflict       = "name_conflict"
	ErrCodeFieldNotAllowed    = "field_not_allowed"
	ErrCodeConflict           = "conflict"
	ErrCodeIntegrityViolation = "integrity_violation"
	ErrCodeInternalError      = "internal_error"
)

// APIError is the error object in the standardized API response envelope.
// Reason and Details are set for rejected gathering operations.
// swagger:model APIError
type APIError struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Reason  string        `json:"reason,omitempty"`
	Details *ErrorDetails `json:"details,omitempty"`
}

// ErrorDetails carries the raw identifiers of a rejected operation so clients can render
// their own message.
// swagger:model ErrorDetails
type ErrorDetails struct {
	UserID      string `json:"user_id,omitempty"`
	GatheringID string `json:"gathering_id,omitempty"`
	Title       string `json:"title,omitempty"`
	Field       string `json:"field,omitempty"`
	PostID      string `json:"post_id,omitempty"`
}

// APIResponse is the standardized envelope for all API responses.
// On success: Data is set, Error is nil. On error: Data is nil, Error is set.
// swagger:model APIResponse
type APIResponse struct {
	Data  any       `json:"data"`
	Error *APIError `json:"error"`
}

// WriteJSONSuccess sets Content-Type to application/json, writes statusCode, and
// encodes an APIResponse with the given data and error set to nil.
func WriteJSONSuccess(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, APIResponse{Data: data})
}

// WriteJSONError sets Content-Type to application/json, writes statusCode, and
// encodes an APIResponse with data nil and the given error code and message.
func WriteJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	WriteAPIError(w, statusCode, &APIError{Code: code, Message: message})
}

// WriteAPIError writes a fully populated error envelope.
func WriteAPIError(w http.ResponseWriter, statusCode int, apiErr *APIError) {
	writeJSON(w, statusCode, APIResponse{Error: apiErr})
}

func writeJSON(w http.ResponseWriter, statusCode int, body APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
