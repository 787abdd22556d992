package domain

import (
	"log/slog"
	"net/http"
)

// HTTPFailure is an error that knows which HTTP status and application error
// code it should be reported with. Types outside this package may implement
// it to add failure kinds of their own.
type HTTPFailure interface {
	error
	ErrorCode() int
	StatusCode() int
}

// Kind identifies a failure variant.
type Kind uint8

const (
	KindUnclassified Kind = iota
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
)

type kindInfo struct {
	name    string
	status  int
	message string
}

var kinds = [...]kindInfo{
	KindUnclassified: {"unclassified", http.StatusInternalServerError, "internal error"},
	KindBadRequest:   {"bad_request", http.StatusBadRequest, "bad request"},
	KindUnauthorized: {"unauthorized", http.StatusUnauthorized, "unauthorized"},
	KindForbidden:    {"forbidden", http.StatusForbidden, "forbidden"},
	KindNotFound:     {"not_found", http.StatusNotFound, "not found"},
}

func (k Kind) info() kindInfo {
	if int(k) >= len(kinds) {
		return kinds[KindUnclassified]
	}
	return kinds[k]
}

func (k Kind) String() string { return k.info().name }

// StatusCode returns the HTTP status fixed for the variant.
func (k Kind) StatusCode() int { return k.info().status }

// Failure is the built-in HTTPFailure implementation.
type Failure struct {
	kind  Kind
	code  int
	msg   string
	cause error
}

// Defaults for each variant: the variant message and error code 0.
// errors.Is(err, ErrNotFound) reports whether err is any not-found failure.
var (
	ErrBadRequest   = NewFailure(KindBadRequest, "", 0)
	ErrUnauthorized = NewFailure(KindUnauthorized, "", 0)
	ErrForbidden    = NewFailure(KindForbidden, "", 0)
	ErrNotFound     = NewFailure(KindNotFound, "", 0)
)

// NewFailure builds a failure of the given kind. An empty msg falls back to
// the variant default.
func NewFailure(kind Kind, msg string, code int) *Failure {
	if msg == "" {
		msg = kind.info().message
	}
	return &Failure{kind: kind, code: code, msg: msg}
}

// WrapFailure is NewFailure with an underlying cause.
func WrapFailure(kind Kind, msg string, cause error, code int) *Failure {
	f := NewFailure(kind, msg, code)
	f.cause = cause
	return f
}

func BadRequest(msg string, code int) *Failure   { return NewFailure(KindBadRequest, msg, code) }
func Unauthorized(msg string, code int) *Failure { return NewFailure(KindUnauthorized, msg, code) }
func Forbidden(msg string, code int) *Failure    { return NewFailure(KindForbidden, msg, code) }
func NotFound(msg string, code int) *Failure     { return NewFailure(KindNotFound, msg, code) }

func WrapBadRequest(msg string, cause error, code int) *Failure {
	return WrapFailure(KindBadRequest, msg, cause, code)
}

func WrapUnauthorized(msg string, cause error, code int) *Failure {
	return WrapFailure(KindUnauthorized, msg, cause, code)
}

func WrapForbidden(msg string, cause error, code int) *Failure {
	return WrapFailure(KindForbidden, msg, cause, code)
}

func WrapNotFound(msg string, cause error, code int) *Failure {
	return WrapFailure(KindNotFound, msg, cause, code)
}

func (f *Failure) Error() string {
	if f.cause != nil {
		return f.msg + ": " + f.cause.Error()
	}
	return f.msg
}

func (f *Failure) Unwrap() error { return f.cause }

// Kind returns the failure variant.
func (f *Failure) Kind() Kind { return f.kind }

// Message returns the message without the cause.
func (f *Failure) Message() string { return f.msg }

func (f *Failure) ErrorCode() int  { return f.code }
func (f *Failure) StatusCode() int { return f.kind.StatusCode() }

// Is matches the bare variant defaults, so a specific failure satisfies
// errors.Is against ErrBadRequest, ErrNotFound and so on.
func (f *Failure) Is(target error) bool {
	t, ok := target.(*Failure)
	if !ok {
		return false
	}
	return t.kind == f.kind && t.code == 0 && t.cause == nil && t.msg == t.kind.info().message
}

// LogValue implements slog.LogValuer.
func (f *Failure) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("kind", f.kind.String()),
		slog.Int("status", f.StatusCode()),
		slog.Int("code", f.code),
		slog.String("message", f.msg),
	}
	if f.cause != nil {
		attrs = append(attrs, slog.String("cause", f.cause.Error()))
	}
	return slog.GroupValue(attrs...)
}
