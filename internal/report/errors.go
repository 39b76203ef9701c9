// internal/report/errors.go
package report

import (
	"errors"
	"fmt"
)

// ErrorCode classifies an assembly failure
type ErrorCode string

const (
	ErrCodeDecode   ErrorCode = "DECODE"
	ErrCodeEncode   ErrorCode = "ENCODE"
	ErrCodeWorkbook ErrorCode = "WORKBOOK"
	ErrCodePersist  ErrorCode = "PERSIST"
)

// AssemblyError wraps a failure while building or persisting a workbook
type AssemblyError struct {
	Code       ErrorCode
	Message    string
	Underlying error
}

func (e *AssemblyError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Underlying)
	}
	return e.Message
}

func (e *AssemblyError) Unwrap() error {
	return e.Underlying
}

func (e *AssemblyError) Is(target error) bool {
	if t, ok := target.(*AssemblyError); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Underlying, target)
}

// NewAssemblyError creates a new AssemblyError
func NewAssemblyError(code ErrorCode, message string, err error) *AssemblyError {
	return &AssemblyError{
		Code:       code,
		Message:    message,
		Underlying: err,
	}
}
