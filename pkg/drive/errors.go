package drive

import (
	"errors"
	"fmt"
)

// StoreError represents a domain error from drive and storage operations.
//
// These are the errors users see (entry not found, bad argument, missing
// capability) as opposed to infrastructure errors, which are wrapped with
// fmt.Errorf and surfaced as ErrIOError or ErrRemoteFailure.
type StoreError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Path is the drive path or entry name related to the error (if applicable)
	Path string

	// Err is the underlying infrastructure error, if any
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Path != "" {
		return e.Message + ": " + e.Path
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// ErrorCode represents the category of a StoreError.
type ErrorCode int

const (
	// ErrNotFound indicates the entry, drive or scheme doesn't exist
	ErrNotFound ErrorCode = iota

	// ErrInvalidArgument indicates malformed input: bad paths, bad mount
	// targets, bad ACL tokens or wrong command arguments
	ErrInvalidArgument

	// ErrNotSupported indicates the drive lacks a capability (e.g. ACLs)
	ErrNotSupported

	// ErrRemoteFailure indicates the remote service rejected or failed a call.
	// The message is the service's own text.
	ErrRemoteFailure

	// ErrInternal indicates a precondition the session cannot satisfy
	ErrInternal

	// ErrIOError indicates the backing store failed
	ErrIOError

	// ErrAlreadyExists indicates a name is already bound
	ErrAlreadyExists
)

// String returns the name of the error code.
func (c ErrorCode) String() string {
	switch c {
	case ErrNotFound:
		return "NotFound"
	case ErrInvalidArgument:
		return "InvalidArgument"
	case ErrNotSupported:
		return "NotSupported"
	case ErrRemoteFailure:
		return "RemoteFailure"
	case ErrInternal:
		return "Internal"
	case ErrIOError:
		return "IOError"
	case ErrAlreadyExists:
		return "AlreadyExists"
	default:
		return fmt.Sprintf("ErrorCode(%d)", int(c))
	}
}

// NewNotFoundError returns an ErrNotFound error for the given path.
func NewNotFoundError(message, path string) *StoreError {
	return &StoreError{Code: ErrNotFound, Message: message, Path: path}
}

// NewInvalidArgumentError returns an ErrInvalidArgument error.
func NewInvalidArgumentError(message string) *StoreError {
	return &StoreError{Code: ErrInvalidArgument, Message: message}
}

// NewNotSupportedError returns an ErrNotSupported error.
func NewNotSupportedError(message string) *StoreError {
	return &StoreError{Code: ErrNotSupported, Message: message}
}

// NewRemoteFailureError returns an ErrRemoteFailure error carrying the
// remote service's message verbatim.
func NewRemoteFailureError(message string) *StoreError {
	return &StoreError{Code: ErrRemoteFailure, Message: message}
}

// NewInternalError returns an ErrInternal error.
func NewInternalError(message string) *StoreError {
	return &StoreError{Code: ErrInternal, Message: message}
}

// NewIOError wraps an infrastructure failure.
func NewIOError(path string, err error) *StoreError {
	return &StoreError{Code: ErrIOError, Message: err.Error(), Path: path, Err: err}
}

// CodeOf returns the code of the first StoreError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Code, true
	}
	return 0, false
}

// HasCode reports whether err carries a StoreError with the given code.
func HasCode(err error, code ErrorCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// IsNotFound reports whether err is an ErrNotFound StoreError.
func IsNotFound(err error) bool {
	return HasCode(err, ErrNotFound)
}

// IsNotSupported reports whether err is an ErrNotSupported StoreError.
func IsNotSupported(err error) bool {
	return HasCode(err, ErrNotSupported)
}

// IsInvalidArgument reports whether err is an ErrInvalidArgument StoreError.
func IsInvalidArgument(err error) bool {
	return HasCode(err, ErrInvalidArgument)
}
