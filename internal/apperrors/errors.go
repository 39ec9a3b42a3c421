// Package apperrors defines the error taxonomy shared by the stores, the
// services and the HTTP boundary.
package apperrors

import (
	"errors"
	"net/http"
)

// Kind classifies an error for status mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindDuplicateInvite
	KindAlreadyMember
	KindInvalidRole
	KindInvalidType
	KindAuth
	KindForbidden
	KindStore
	// KindConflict marks unique-key violations reported by a store.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindDuplicateInvite:
		return "duplicate_invite"
	case KindAlreadyMember:
		return "already_member"
	case KindInvalidRole:
		return "invalid_role"
	case KindInvalidType:
		return "invalid_type"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindStore:
		return "store"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error carries a Kind, a client-safe message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil && e.Message == "" {
		return e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same Kind, so sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrDuplicateInvite = &Error{Kind: KindDuplicateInvite}
	ErrAlreadyMember   = &Error{Kind: KindAlreadyMember}
	ErrInvalidRole     = &Error{Kind: KindInvalidRole}
	ErrInvalidType     = &Error{Kind: KindInvalidType}
	ErrAuth            = &Error{Kind: KindAuth}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrStore           = &Error{Kind: KindStore}
	ErrConflict        = &Error{Kind: KindConflict}
)

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func Validation(message string) *Error { return New(KindValidation, message) }

func NotFound(message string) *Error { return New(KindNotFound, message) }

func DuplicateInvite(message string) *Error { return New(KindDuplicateInvite, message) }

func AlreadyMember(message string) *Error { return New(KindAlreadyMember, message) }

func InvalidRole(message string) *Error { return New(KindInvalidRole, message) }

func InvalidType(message string) *Error { return New(KindInvalidType, message) }

func Auth(message string) *Error { return New(KindAuth, message) }

func Forbidden(message string) *Error { return New(KindForbidden, message) }

func Conflict(message string, cause error) *Error { return Wrap(KindConflict, message, cause) }

// Store wraps a persistence failure. A nil cause yields nil.
func Store(message string, cause error) error {
	if cause == nil {
		return nil
	}
	return Wrap(KindStore, message, cause)
}

// KindOf reports the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// HTTPStatus maps err to the status code returned by the API.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindDuplicateInvite, KindAlreadyMember, KindInvalidRole, KindInvalidType, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show to clients.
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindStore && appErr.Kind != KindInternal && appErr.Message != "" {
		return appErr.Message
	}
	return "Something went wrong"
}
