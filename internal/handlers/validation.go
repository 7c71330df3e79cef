package handlers

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	pkghttp "github.com/kritsw/telemed/pkg/http"
)

// Global validator instance (reused across all handlers)
var validate = validator.New()

// ValidateRequest validates a request DTO and returns field-level details for
// the VALIDATION_ERROR envelope, or nil when the request is valid.
func ValidateRequest(req interface{}) []pkghttp.FieldError {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return []pkghttp.FieldError{{Field: "request", Message: "invalid request"}}
	}

	details := make([]pkghttp.FieldError, 0, len(ve))
	for _, fieldError := range ve {
		details = append(details, pkghttp.FieldError{
			Field:   strings.ToLower(fieldError.Field()),
			Message: formatValidationError(fieldError),
		})
	}
	return details
}

// formatValidationError converts a validator FieldError to a user-friendly message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must have a minimum of %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must have a maximum of %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "datetime":
		return fmt.Sprintf("must be a date formatted as %s", fe.Param())
	case "uuid":
		return "must be a valid id"
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
