package middleware

import (
	"net/http"

	"webcore/internal/webapi"
)

// Middleware is a function that wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain applies middleware in order: the first middleware is the outermost wrapper.
func Chain(handler http.Handler, mw ...Middleware) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

// Interceptor wraps an error-returning handler. Interceptors run inside a
// Translator and report rejections as errors.
type Interceptor func(webapi.Handler) webapi.Handler

// Intercept applies interceptors in the same order as Chain.
func Intercept(handler webapi.Handler, ic ...Interceptor) webapi.Handler {
	for i := len(ic) - 1; i >= 0; i-- {
		handler = ic[i](handler)
	}
	return handler
}
