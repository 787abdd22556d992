package middleware

import (
	"fmt"
	"net/http"

	"webcore/internal/domain"
	"webcore/internal/webapi"
)

// MaxBodySize returns an interceptor that limits request bodies to maxBytes.
// A declared Content-Length over the limit is rejected up front; otherwise
// reads past the limit fail with *http.MaxBytesError for the handler to
// report.
func MaxBodySize(maxBytes int64) Interceptor {
	return func(next webapi.Handler) webapi.Handler {
		return webapi.HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
			if r.ContentLength > maxBytes {
				return domain.BadRequest(
					fmt.Sprintf("request body of %d bytes exceeds limit of %d", r.ContentLength, maxBytes),
					domain.CodeInvalidRequest,
				)
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			return next.ServeHTTP(w, r)
		})
	}
}
