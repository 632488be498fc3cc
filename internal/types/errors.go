package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for policykeeper operations.
var (
	// ErrInvalidInput indicates a missing or mistyped request field.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidCaseData indicates case data that is not a flat scalar object.
	ErrInvalidCaseData = errors.New("invalid case data")

	// ErrInvalidOperator indicates an unknown rule operator.
	ErrInvalidOperator = errors.New("invalid operator")

	// ErrPolicyNotFound indicates an unknown policy id. Distinct from a policy with zero rules.
	ErrPolicyNotFound = errors.New("policy not found")

	// ErrRateLimited indicates the text-generation service throttled the request. Retryable.
	ErrRateLimited = errors.New("text generation rate limited")

	// ErrUpstream indicates any other transport failure of the text-generation service.
	ErrUpstream = errors.New("text generation service unavailable")

	// ErrMalformedOutput indicates generation output that is not parseable or not shape-valid.
	ErrMalformedOutput = errors.New("malformed generation output")

	// ErrExtractionFailed indicates document extraction did not yield structured data.
	ErrExtractionFailed = errors.New("could not extract structured data")
)

// OutputError carries the raw upstream text that failed to parse.
// errors.Is matches Kind (ErrMalformedOutput or ErrExtractionFailed).
type OutputError struct {
	Kind   error
	Reason string
	Raw    string
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, e.Reason)
}

func (e *OutputError) Unwrap() error {
	return e.Kind
}

// InvalidInput builds an ErrInvalidInput error with a formatted detail message.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
