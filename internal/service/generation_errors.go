package service

import "fmt"

type ErrorCode string

const (
	ErrCodeValidation          ErrorCode = "VALIDATION_ERROR"
	ErrCodeInsufficientCredits ErrorCode = "INSUFFICIENT_CREDITS"
	ErrCodeProviderRejected    ErrorCode = "PROVIDER_REJECTED"
	ErrCodeContentPolicy       ErrorCode = "CONTENT_POLICY_BLOCKED"
	ErrCodeProviderTransient   ErrorCode = "PROVIDER_TRANSIENT_FAILURE"
	ErrCodeTimedOut            ErrorCode = "TIMED_OUT"
	ErrCodeMaterialization     ErrorCode = "MATERIALIZATION_FAILED"
)

// GenerationError is the structured terminal failure of one generation
// attempt. Only VALIDATION_ERROR and INSUFFICIENT_CREDITS happen before a
// reservation exists; every other code means exactly one refund was issued and
// NewBalance is the post-refund balance.
type GenerationError struct {
	Code       ErrorCode
	Message    string
	Refunded   bool
	NewBalance int
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Refundable reports whether this failure class requires a refund once a
// reservation has been made.
func (e *GenerationError) Refundable() bool {
	switch e.Code {
	case ErrCodeValidation, ErrCodeInsufficientCredits:
		return false
	}
	return true
}
