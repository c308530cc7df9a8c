package response

// Result is the envelope for mutations that may carry non-blocking warnings,
// such as flagged deletions or degraded conflict checks.
type Result[T any] struct {
	Data     T        `json:"data"`
	Warnings []string `json:"warnings,omitempty"`
}

// NewResult wraps data with its warnings, normalizing nil slices away.
func NewResult[T any](data T, warnings []string) Result[T] {
	if len(warnings) == 0 {
		warnings = nil
	}
	return Result[T]{Data: data, Warnings: warnings}
}
