package http

import (
	"encoding/json"
	"net/http"
)

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorBody is the error envelope returned by every failing endpoint:
// {"error": {"code": "...", "message": "...", "details": [...]}}
type ErrorBody struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

// ErrorResponse wraps ErrorBody under the "error" key.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// WriteError writes a JSON error response with the given status code and
// machine-readable error code.
func WriteError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	writeErrorBody(w, statusCode, ErrorBody{Code: errorCode, Message: message})
}

// WriteValidationError writes a 400 VALIDATION_ERROR response carrying
// field-level details.
func WriteValidationError(w http.ResponseWriter, details []FieldError) {
	writeErrorBody(w, http.StatusBadRequest, ErrorBody{
		Code:    "VALIDATION_ERROR",
		Message: "request validation failed",
		Details: details,
	})
}

func writeErrorBody(w http.ResponseWriter, statusCode int, body ErrorBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	// Encoding errors are not recoverable at this point; never expose them.
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: body})
}

// Common error writers for consistency
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, "FORBIDDEN", message)
}

func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "NOT_FOUND", message)
}

func WriteInternalError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// WriteJSON writes a successful JSON response.
func WriteJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
