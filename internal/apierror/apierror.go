// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package so responses stay
// consistent and never carry internal details (stack traces, SQL errors).
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}

// NewValidationMsg is NewValidation with a custom summary line.
func NewValidationMsg(msg string, fields map[string]string) *ValidationError {
	return &ValidationError{Detail: msg, Fields: fields}
}
