package custerror

import "fmt"

const (
	CodeInvalidArgument    uint32 = 3
	CodeNotFound           uint32 = 5
	CodeAlreadyExists      uint32 = 6
	CodePermissionDenied   uint32 = 7
	CodeFailedPrecondition uint32 = 9
	CodeInternal           uint32 = 13
	CodeUnavailable        uint32 = 14
)

type CustomError struct {
	Code    uint32
	Message string
}

func (e *CustomError) Error() string {
	return e.Message
}

func (e *CustomError) Is(target error) bool {
	other, ok := target.(*CustomError)
	if !ok {
		return false
	}
	return e.Code == other.Code
}

func New(code uint32, message string) *CustomError {
	return &CustomError{Code: code, Message: message}
}

var (
	ErrorInvalidArgument    = New(CodeInvalidArgument, "invalid argument")
	ErrorNotFound           = New(CodeNotFound, "not found")
	ErrorAlreadyExists      = New(CodeAlreadyExists, "already exists")
	ErrorPermissionDenied   = New(CodePermissionDenied, "permission denied")
	ErrorFailedPrecondition = New(CodeFailedPrecondition, "failed precondition")
	ErrorInternal           = New(CodeInternal, "internal error")
	ErrorUnavailable        = New(CodeUnavailable, "unavailable")
)

func FormatInvalidArgument(format string, args ...interface{}) *CustomError {
	return New(CodeInvalidArgument, fmt.Sprintf(format, args...))
}

func FormatNotFound(format string, args ...interface{}) *CustomError {
	return New(CodeNotFound, fmt.Sprintf(format, args...))
}

func FormatAlreadyExists(format string, args ...interface{}) *CustomError {
	return New(CodeAlreadyExists, fmt.Sprintf(format, args...))
}

func FormatFailedPrecondition(format string, args ...interface{}) *CustomError {
	return New(CodeFailedPrecondition, fmt.Sprintf(format, args...))
}

func FormatInternalError(format string, args ...interface{}) *CustomError {
	return New(CodeInternal, fmt.Sprintf(format, args...))
}

func FormatUnavailable(format string, args ...interface{}) *CustomError {
	return New(CodeUnavailable, fmt.Sprintf(format, args...))
}
