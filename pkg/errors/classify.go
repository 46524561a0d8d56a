package errors

import (
	stderr "errors"
	"net/http"
)

// Resource tells the classifier whether a failed request targeted a container
// or an item inside one. A 404 means a different thing in each case.
type Resource int

const (
	ResourceContainer Resource = iota
	ResourceItem
)

// Classifier translates a transport fault into a domain error. A nil return
// leaves the original fault untouched.
type Classifier func(err error) *StorageError

// ClassifyStatus maps an HTTP status plus resource context to a domain error.
// Statuses outside the table return nil and the caller keeps the original
// transport fault.
func ClassifyStatus(status int, resource Resource) *StorageError {
	switch status {
	case http.StatusNotFound:
		if resource == ResourceContainer {
			return New(ErrCodeContainerNotFound, "container does not exist").WithStatus(status)
		}
		return New(ErrCodeStorageItemNotFound, "storage item does not exist").WithStatus(status)
	case http.StatusConflict:
		return New(ErrCodeContainerNotEmpty, "container is not empty").WithStatus(status)
	case http.StatusUnauthorized:
		return New(ErrCodeAuthenticationFailed, "request not authorized").WithStatus(status)
	case http.StatusPreconditionFailed:
		return New(ErrCodePreconditionFailed, "precondition failed").WithStatus(status)
	case http.StatusBadRequest:
		return New(ErrCodeContainerNotFound, "malformed container request").WithStatus(status)
	default:
		return nil
	}
}

// ClassifyItemStatus classifies a status without explicit context; ambiguous
// 404s are treated as item lookups.
func ClassifyItemStatus(status int) *StorageError {
	return ClassifyStatus(status, ResourceItem)
}

// ForResource returns a Classifier that inspects a transport fault's HTTP
// status and maps it against the given resource context. Faults that are not
// StorageErrors, or whose status is outside the table, pass through.
func ForResource(resource Resource) Classifier {
	return func(err error) *StorageError {
		status := StatusOf(err)
		if status == 0 {
			return nil
		}
		return ClassifyStatus(status, resource)
	}
}

// StatusOf extracts the HTTP status from an error chain, or 0 when the error
// carries none.
func StatusOf(err error) int {
	var serr *StorageError
	if stderr.As(err, &serr) {
		return serr.HTTPStatus
	}
	return 0
}

// CodeOf extracts the error code from an error chain, or "" for unclassified
// errors.
func CodeOf(err error) ErrorCode {
	var serr *StorageError
	if stderr.As(err, &serr) {
		return serr.Code
	}
	return ""
}
