package app

import "errors"

type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindAuth       ErrorKind = "auth"
	KindForbidden  ErrorKind = "forbidden"
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
)

// Error is a caller-facing failure with a stable kind. Kind sentinels
// (ErrValidation, ErrAuth, ...) match every Error of their kind through
// errors.Is; specific sentinels only match themselves.
type Error struct {
	Kind    ErrorKind
	Message string
	generic bool
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t == e {
		return true
	}
	return t.generic && t.Kind == e.Kind
}

func newKind(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message, generic: true}
}

func newError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	ErrValidation = newKind(KindValidation, "invalid input")
	ErrAuth       = newKind(KindAuth, "authentication failed")
	ErrForbidden  = newKind(KindForbidden, "forbidden")
	ErrNotFound   = newKind(KindNotFound, "not found")
	ErrConflict   = newKind(KindConflict, "conflict")
)

var (
	ErrInvalidEmail       = newError(KindValidation, "email is malformed")
	ErrWeakPassword       = newError(KindValidation, "password is too short")
	ErrInvalidDisplayName = newError(KindValidation, "display name is required")
	ErrInvalidCredential  = newError(KindAuth, "invalid email or password")
	ErrInvalidToken       = newError(KindAuth, "invalid or expired token")
	ErrUserSuspended      = newError(KindAuth, "user is suspended")
	ErrEmailExists        = newError(KindConflict, "email already registered")
	ErrUserNotFound       = newError(KindNotFound, "user not found")

	ErrEventTitleRequired = newError(KindValidation, "event title is required")
	ErrEventStartRequired = newError(KindValidation, "event start time is required")
	ErrInvalidCapacity    = newError(KindValidation, "max participants must be positive")
	ErrInvalidImageURL    = newError(KindValidation, "image url is not acceptable")
	ErrEventNotFound      = newError(KindNotFound, "event not found")
	ErrNotEventEditor     = newError(KindForbidden, "not authorized to modify this event")
	ErrAlreadyMember      = newError(KindConflict, "already joined this event")
	ErrNotMember          = newError(KindConflict, "not a member of this event")
	ErrOwnerCannotLeave   = newError(KindConflict, "event owner cannot leave the event")
	ErrEventFull          = newError(KindConflict, "event is full")

	ErrNotAllowed        = newError(KindForbidden, "not allowed")
	ErrSelfSuspend       = newError(KindConflict, "cannot suspend yourself")
	ErrInvalidRole       = newError(KindValidation, "unknown role")
	ErrContentKeyMissing = newError(KindValidation, "content key is required")
	ErrContentNotFound   = newError(KindNotFound, "content not found")
	ErrContentExists     = newError(KindConflict, "content key already exists")
)

// KindOf reports the kind of err, or "" for infrastructure errors.
func KindOf(err error) ErrorKind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}
