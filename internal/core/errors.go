package core

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorKind classifies a domain failure so the transport layer can map it to
// an HTTP status without inspecting message text.
type ErrorKind string

const (
	KindNotFound   ErrorKind = "NOT_FOUND"
	KindConflict   ErrorKind = "CONFLICT"
	KindBadRequest ErrorKind = "BAD_REQUEST"
	KindForbidden  ErrorKind = "FORBIDDEN"
)

// Error is a typed domain error: a kind plus a human-readable message.
// Internal persistence errors are never wrapped into an Error; they propagate
// as plain wrapped errors and surface as 500s at the transport layer.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func BadRequestf(format string, args ...any) *Error {
	return &Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

func Forbiddenf(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the ErrorKind carried by err, or "" for untyped errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// isUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation. The pre-insert duplicate checks in the services are a fast path
// only; the partial unique indexes are the authoritative guard, so inserts
// must translate 23505 into a Conflict.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
