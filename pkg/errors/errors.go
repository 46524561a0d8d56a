// Package errors provides the structured error taxonomy for cloudstow with
// error codes, categories, and the HTTP status classifier used by every
// storage operation.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ErrorCode identifies a classified failure.
type ErrorCode string

const (
	// Argument errors
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// Authentication errors
	ErrCodeAuthenticationFailed ErrorCode = "AUTHENTICATION_FAILED"

	// Storage domain errors
	ErrCodeContainerNotFound      ErrorCode = "CONTAINER_NOT_FOUND"
	ErrCodeContainerNotEmpty      ErrorCode = "CONTAINER_NOT_EMPTY"
	ErrCodeContainerAlreadyExists ErrorCode = "CONTAINER_ALREADY_EXISTS"
	ErrCodeStorageItemNotFound    ErrorCode = "STORAGE_ITEM_NOT_FOUND"
	ErrCodePreconditionFailed     ErrorCode = "PRECONDITION_FAILED"

	// Transport errors
	ErrCodeTransportFailure  ErrorCode = "TRANSPORT_FAILURE"
	ErrCodeConnectionFailed  ErrorCode = "CONNECTION_FAILED"
	ErrCodeConnectionTimeout ErrorCode = "CONNECTION_TIMEOUT"

	// Local I/O errors
	ErrCodeFileAccess ErrorCode = "FILE_ACCESS"
)

// ErrorCategory groups error codes for logging and metrics labels.
type ErrorCategory string

const (
	CategoryArgument  ErrorCategory = "argument"
	CategoryAuth      ErrorCategory = "auth"
	CategoryStorage   ErrorCategory = "storage"
	CategoryTransport ErrorCategory = "transport"
	CategoryLocal     ErrorCategory = "local"
)

// StorageError is a classified failure carrying the HTTP status that produced
// it (when one exists) and optional context about the request.
type StorageError struct {
	Code     ErrorCode
	Category ErrorCategory
	Message  string

	// HTTPStatus is the status code of the response that triggered the
	// error, or 0 for failures raised before any network call.
	HTTPStatus int

	// Container and Item name the resource the failed operation targeted.
	Container string
	Item      string

	Cause     error
	Timestamp time.Time
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	if e.HTTPStatus != 0 {
		fmt.Fprintf(&sb, " (status %d)", e.HTTPStatus)
	}
	if e.Container != "" {
		target := e.Container
		if e.Item != "" {
			target += "/" + e.Item
		}
		fmt.Fprintf(&sb, " [%s]", target)
	}
	return sb.String()
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// Is matches any *StorageError with the same code.
func (e *StorageError) Is(target error) bool {
	if other, ok := target.(*StorageError); ok {
		return e.Code == other.Code
	}
	return false
}

// New creates a StorageError with the category derived from the code.
func New(code ErrorCode, message string) *StorageError {
	return &StorageError{
		Code:      code,
		Category:  GetCategory(code),
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Newf creates a StorageError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *StorageError {
	return New(code, fmt.Sprintf(format, args...))
}

// GetCategory determines the category for an error code.
func GetCategory(code ErrorCode) ErrorCategory {
	switch code {
	case ErrCodeInvalidArgument:
		return CategoryArgument
	case ErrCodeAuthenticationFailed:
		return CategoryAuth
	case ErrCodeContainerNotFound, ErrCodeContainerNotEmpty,
		ErrCodeContainerAlreadyExists, ErrCodeStorageItemNotFound,
		ErrCodePreconditionFailed:
		return CategoryStorage
	case ErrCodeFileAccess:
		return CategoryLocal
	default:
		return CategoryTransport
	}
}

// IsRetryable reports whether an error of this code may succeed on a later
// attempt. Only transient transport failures qualify; classified domain
// errors are definitive.
func IsRetryable(code ErrorCode) bool {
	switch code {
	case ErrCodeConnectionFailed, ErrCodeConnectionTimeout:
		return true
	default:
		return false
	}
}

// WithStatus records the HTTP status that produced the error.
func (e *StorageError) WithStatus(status int) *StorageError {
	e.HTTPStatus = status
	return e
}

// WithContainer records the target container.
func (e *StorageError) WithContainer(container string) *StorageError {
	e.Container = container
	return e
}

// WithItem records the target item path.
func (e *StorageError) WithItem(item string) *StorageError {
	e.Item = item
	return e
}

// WithCause records the underlying error.
func (e *StorageError) WithCause(cause error) *StorageError {
	e.Cause = cause
	return e
}
