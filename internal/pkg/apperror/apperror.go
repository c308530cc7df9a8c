package apperror

import "net/http"

// Kind classifies an error for callers that branch on outcome rather than
// on HTTP status. Conflict and unavailability are expected outcomes of
// booking flows, not exceptional conditions.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindNotFound    Kind = "not_found"
	KindConflict    Kind = "conflict"
	KindUnavailable Kind = "unavailable"
	KindInternal    Kind = "internal"
)

// AppError is a custom error type that includes an HTTP status code and a
// taxonomy kind.
type AppError struct {
	Code    int    // HTTP Status Code (e.g., 400, 404)
	Kind    Kind   // Taxonomy classification
	Message string // User-facing error message
	Err     error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with a status code and message. The kind is
// derived from the status code.
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kindForStatus(code),
		Message: message,
	}
}

// NewKind creates an AppError with an explicit kind for cases where the
// status code alone is ambiguous (e.g. 409 conflict vs 409 unavailable).
func NewKind(code int, kind Kind, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kindForStatus(code),
		Message: message,
		Err:     err,
	}
}

func kindForStatus(code int) Kind {
	switch code {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	default:
		return KindInternal
	}
}
