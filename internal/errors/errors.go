package errors

import (
	stderrors "errors"
	"fmt"
)

type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError carrying the same code, so wrapped errors still
// compare equal to the package sentinels.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func New(code, message string, cause ...error) *AppError {
	var c error
	if len(cause) > 0 {
		c = cause[0]
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   c,
	}
}

const (
	CodeValidation   = "MED_001"
	CodeDuplicateLog = "MED_002"
	CodeNotFound     = "GEN_001"
	CodeService      = "SVC_001"
	CodePersistence  = "STORE_001"
)

var (
	ErrConfigNotFound = &AppError{Code: "CONFIG_001", Message: "configuration not found"}
	ErrConfigInvalid  = &AppError{Code: "CONFIG_002", Message: "invalid configuration"}

	ErrValidation   = &AppError{Code: CodeValidation, Message: "validation failed"}
	ErrDuplicateLog = &AppError{Code: CodeDuplicateLog, Message: "dose already logged for this date"}
	ErrNotFound     = &AppError{Code: CodeNotFound, Message: "resource not found"}
	ErrService      = &AppError{Code: CodeService, Message: "external service failed"}
	ErrPersistence  = &AppError{Code: CodePersistence, Message: "storage failure"}

	ErrUnauthorized = &AppError{Code: "AUTH_001", Message: "unauthorized"}
)

func Validation(format string, args ...interface{}) *AppError {
	return New(CodeValidation, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...interface{}) *AppError {
	return New(CodeNotFound, fmt.Sprintf(format, args...))
}

func DuplicateLog(format string, args ...interface{}) *AppError {
	return New(CodeDuplicateLog, fmt.Sprintf(format, args...))
}

func Service(message string, cause error) *AppError {
	return Wrap(cause, CodeService, message)
}

func Persistence(message string, cause error) *AppError {
	return Wrap(cause, CodePersistence, message)
}

func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}
