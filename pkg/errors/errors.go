package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/Arnob004/FileShare/internal/core/domain"
)

// ErrorCode identifies a protocol-level failure class. Codes are stable
// and surface both in REST responses and in websocket error events.
type ErrorCode string

const (
	ErrCodeUnknownPeer  ErrorCode = "UNKNOWN_PEER"
	ErrCodeStaleRequest ErrorCode = "STALE_REQUEST"
	ErrCodeRoomFull     ErrorCode = "ROOM_FULL"
	ErrCodeInvalidRoom  ErrorCode = "INVALID_ROOM"
	ErrCodeNotInRoom    ErrorCode = "NOT_IN_ROOM"
	ErrCodeFileTooLarge ErrorCode = "FILE_TOO_LARGE"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeRateLimited  ErrorCode = "RATE_LIMITED"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// AppError carries an error code, a human-readable message, and the
// HTTP status the REST surface should answer with.
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates an application error.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

// Wrap attaches code and status to an existing error.
func Wrap(err error, code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus, Cause: err}
}

func NewInvalidInput(message string) *AppError {
	return New(ErrCodeInvalidInput, message, http.StatusBadRequest)
}

func NewNotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func NewInternal(message string) *AppError {
	return New(ErrCodeInternal, message, http.StatusInternalServerError)
}

// FromDomain maps a domain sentinel to its protocol error. Unrecognized
// errors map to INTERNAL_ERROR.
func FromDomain(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr := GetAppError(err); appErr != nil {
		return appErr
	}
	switch {
	case stderrors.Is(err, domain.ErrUnknownPeer), stderrors.Is(err, domain.ErrPeerNotFound):
		return Wrap(err, ErrCodeUnknownPeer, "peer is not online", http.StatusNotFound)
	case stderrors.Is(err, domain.ErrStaleRequest), stderrors.Is(err, domain.ErrRequestNotFound):
		return Wrap(err, ErrCodeStaleRequest, "request no longer pending", http.StatusConflict)
	case stderrors.Is(err, domain.ErrRoomFull):
		return Wrap(err, ErrCodeRoomFull, "room already has two members", http.StatusConflict)
	case stderrors.Is(err, domain.ErrInvalidRoom), stderrors.Is(err, domain.ErrRoomNotFound), stderrors.Is(err, domain.ErrAlreadyInRoom):
		return Wrap(err, ErrCodeInvalidRoom, "room id is not usable", http.StatusBadRequest)
	case stderrors.Is(err, domain.ErrNotInRoom):
		return Wrap(err, ErrCodeNotInRoom, "sender is not an active room member", http.StatusForbidden)
	case stderrors.Is(err, domain.ErrFileTooLarge):
		return Wrap(err, ErrCodeFileTooLarge, "file exceeds the relay size limit", http.StatusRequestEntityTooLarge)
	default:
		return Wrap(err, ErrCodeInternal, "internal error", http.StatusInternalServerError)
	}
}

// GetAppError extracts an *AppError from anywhere in the chain, or nil.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return nil
}
