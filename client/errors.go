package client

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes synchronizer errors.
type ErrorCode int

const (
	ErrorUnknown ErrorCode = iota

	// Server-reported errors
	ErrorBadPayload
	ErrorPersistence

	// Client-side errors
	ErrorConnection
	ErrorDisconnected
	ErrorHistory
	ErrorNotConnected
	ErrorSerialization
)

func (e ErrorCode) String() string {
	switch e {
	case ErrorBadPayload:
		return "bad_payload"
	case ErrorPersistence:
		return "persist_failed"
	case ErrorConnection:
		return "connection_error"
	case ErrorDisconnected:
		return "disconnected"
	case ErrorHistory:
		return "history_error"
	case ErrorNotConnected:
		return "not_connected"
	case ErrorSerialization:
		return "serialization_error"
	default:
		return "unknown"
	}
}

// SyncError is a structured error with code and context.
type SyncError struct {
	Code    ErrorCode
	Message string
	Wrapped error
}

func (e *SyncError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *SyncError) Unwrap() error { return e.Wrapped }

func (e *SyncError) Is(target error) bool {
	t, ok := target.(*SyncError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newError(code ErrorCode, message string) *SyncError {
	return &SyncError{Code: code, Message: message}
}

func wrapError(code ErrorCode, message string, err error) *SyncError {
	return &SyncError{Code: code, Message: message, Wrapped: err}
}

// fromServerMsg converts a gateway error envelope into a SyncError.
func fromServerMsg(msg string) *SyncError {
	code := ErrorUnknown
	switch msg {
	case "persist_failed":
		code = ErrorPersistence
	case "bad_payload", "unknown_type", "empty roomId", "empty roomId or message":
		code = ErrorBadPayload
	}
	return &SyncError{Code: code, Message: msg}
}

// IsConnectionError reports whether err is transport-related.
func IsConnectionError(err error) bool {
	var se *SyncError
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == ErrorConnection || se.Code == ErrorDisconnected
}
