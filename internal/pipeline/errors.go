// internal/pipeline/errors.go
package pipeline

import "errors"

// FailureCode classifies a batch-fatal failure
type FailureCode string

const (
	FailNoURLs      FailureCode = "NO_URLS"
	FailNoValidURLs FailureCode = "NO_VALID_URLS"
	FailNoCaptures  FailureCode = "NO_CAPTURES"
)

// BatchError is returned when an entire batch cannot produce a report:
// nothing was submitted, nothing submitted was a result URL, or every capture
// attempt failed. Per-URL failures inside a partially successful batch are
// reported through BatchResult.Errors instead.
type BatchError struct {
	Code   FailureCode
	Detail string
	Err    error
}

func (e *BatchError) Error() string {
	return e.Detail
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

func (e *BatchError) Is(target error) bool {
	if t, ok := target.(*BatchError); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Err, target)
}

// Validation reports whether the failure is a bad-request condition rather
// than a processing one. Callers use this to pick a status code.
func (e *BatchError) Validation() bool {
	return e.Code == FailNoURLs || e.Code == FailNoValidURLs
}
