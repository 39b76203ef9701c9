// internal/capture/errors.go
package capture

import (
	"errors"
	"fmt"
)

// ErrorCode represents a specific capture failure condition
type ErrorCode string

const (
	ErrCodeBrowserStart ErrorCode = "BROWSER_START"
	ErrCodeNavTimeout   ErrorCode = "NAV_TIMEOUT"
	ErrCodeNavigation   ErrorCode = "NAVIGATION"
	ErrCodeScreenshot   ErrorCode = "SCREENSHOT"
)

// CaptureError wraps a failed capture attempt with the phase it failed in.
// The Message is what ends up in user-facing batch error strings, so it is
// kept short and free of internal detail.
type CaptureError struct {
	Code       ErrorCode
	Message    string
	Underlying error
}

// Error implements the error interface
func (e *CaptureError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *CaptureError) Unwrap() error {
	return e.Underlying
}

// Is checks if the error matches the target
func (e *CaptureError) Is(target error) bool {
	if t, ok := target.(*CaptureError); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Underlying, target)
}

// Reason returns the short human-readable failure description used when the
// error is reported against a URL in a batch.
func (e *CaptureError) Reason() string {
	return e.Message
}

// NewCaptureError creates a new CaptureError
func NewCaptureError(code ErrorCode, message string, err error) *CaptureError {
	return &CaptureError{
		Code:       code,
		Message:    message,
		Underlying: err,
	}
}
