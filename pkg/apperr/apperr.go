// Package apperr defines the tagged error type shared by every domain service.
//
// Services return *Error values (usually package-level sentinels, optionally
// wrapped with fmt.Errorf("...: %w", err)). The HTTP layer maps the Kind to a
// status code, so message text never drives control flow.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindGone
	KindTooManyRequests
)

// Error is a classified, user-presentable error.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports equality on Kind and Code so copies of a sentinel still match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Validation(code, message string) *Error { return New(KindValidation, code, message) }

func Unauthorized(code, message string) *Error { return New(KindUnauthorized, code, message) }

func Forbidden(code, message string) *Error { return New(KindForbidden, code, message) }

func NotFound(code, message string) *Error { return New(KindNotFound, code, message) }

func Conflict(code, message string) *Error { return New(KindConflict, code, message) }

func Gone(code, message string) *Error { return New(KindGone, code, message) }

func TooManyRequests(code, message string) *Error { return New(KindTooManyRequests, code, message) }

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) && target != nil {
		return target, true
	}
	return nil, false
}

// KindOf returns the Kind of err, KindInternal when unclassified.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// Status maps a Kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindGone:
		return http.StatusGone
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Type is the stable machine name of a Kind used in logs and payloads.
func (k Kind) Type() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindGone:
		return "gone"
	case KindTooManyRequests:
		return "rate_limited"
	default:
		return "internal_error"
	}
}
