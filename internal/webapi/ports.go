package webapi

import (
	"context"
	"net/http"
	"reflect"

	"webcore/internal/domain"
)

// MessageResolver maps an application error code to a user-facing message.
// An empty string means no message is available for the code.
type MessageResolver interface {
	Message(ctx context.Context, code int) string
}

// ResolverFunc adapts a plain function to MessageResolver.
type ResolverFunc func(ctx context.Context, code int) string

func (f ResolverFunc) Message(ctx context.Context, code int) string { return f(ctx, code) }

// Handler serves a request and reports failure by returning it instead of
// writing an error response itself.
type Handler interface {
	ServeHTTP(w http.ResponseWriter, r *http.Request) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

func (f HandlerFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) error { return f(w, r) }

// Authenticator validates a raw bearer token and returns its principal.
type Authenticator interface {
	Authenticate(raw string) (domain.Principal, error)
}

// RateLimiter decides whether a request identified by key should be allowed.
type RateLimiter interface {
	Allow(key string) RateLimitResult
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	RetryAfter int // seconds until next token available; 0 if allowed
}

// Credentials checks a login and looks up accounts.
type Credentials interface {
	// Authenticate returns the account for email when password matches,
	// or an error wrapping domain.ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, password string) (domain.Account, error)
	Account(ctx context.Context, id int) (domain.Account, error)
}

// StatusWriter wraps http.ResponseWriter to capture the status code and
// whether anything has been sent to the client yet.
type StatusWriter struct {
	http.ResponseWriter
	Code      int
	committed bool
}

func (sw *StatusWriter) WriteHeader(code int) {
	if !sw.committed {
		sw.Code = code
		sw.committed = true
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *StatusWriter) Write(b []byte) (int, error) {
	sw.committed = true
	return sw.ResponseWriter.Write(b)
}

// Committed reports whether the status line has been written.
func (sw *StatusWriter) Committed() bool { return sw.committed }

// Unwrap lets http.ResponseController reach the underlying writer.
func (sw *StatusWriter) Unwrap() http.ResponseWriter { return sw.ResponseWriter }

// PrincipalFromContext extracts the authenticated principal from a request context.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}

// ContextWithPrincipal stores the authenticated principal in the context.
func ContextWithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

type principalKey struct{}

// RequestIDFromContext extracts the request ID from the context.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// ContextWithRequestID stores the request ID in the context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

type requestIDKey struct{}

// IsNil reports whether v is nil, including an interface holding a nil
// func, pointer, map, slice or channel such as HandlerFunc(nil).
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
