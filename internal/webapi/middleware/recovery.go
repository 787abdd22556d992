package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"webcore/internal/domain"
	"webcore/internal/webapi"
)

// PanicError carries a recovered panic value and the stack it was raised on.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes a panicked error so failures raised with panic are still
// classified by their kind.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// recoverPanic converts a recovered value into an error. http.ErrAbortHandler
// is re-raised so net/http can abort the connection.
func recoverPanic(v any) error {
	if v == http.ErrAbortHandler {
		panic(v)
	}
	return &PanicError{Value: v, Stack: debug.Stack()}
}

// Recovery is the outermost safety net for panics raised by transport
// middleware, outside any Translator. It answers with the unclassified
// envelope.
func Recovery(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &webapi.StatusWriter{ResponseWriter: w, Code: http.StatusOK}
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				err := recoverPanic(v).(*PanicError)
				logger.ErrorContext(r.Context(), "panic recovered",
					"error", err.Error(),
					"request_id", webapi.RequestIDFromContext(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"committed", sw.Committed(),
					"stack", string(err.Stack),
				)
				if sw.Committed() {
					return
				}
				writeEnvelope(r.Context(), logger, sw, http.StatusInternalServerError, unclassified(err))
			}()
			next.ServeHTTP(sw, r)
		})
	}
}

func unclassified(err error) domain.ErrorResponse {
	return domain.ErrorResponse{
		ErrorCode:       domain.CodeUnclassified,
		ErrorDetails:    err.Error(),
		InnerExceptions: []domain.InnerError{domain.Describe(err)},
	}
}

// writeEnvelope sends resp as the whole response body in a single write.
func writeEnvelope(ctx context.Context, logger *slog.Logger, w http.ResponseWriter, status int, resp domain.ErrorResponse) {
	body, err := json.Marshal(resp)
	if err != nil {
		logger.ErrorContext(ctx, "encoding error response", "error", err)
		body = []byte(`{"errorCode":-1,"errorDetails":"error response could not be encoded"}`)
	}
	h := w.Header()
	h.Del("Content-Length")
	h.Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		logger.DebugContext(ctx, "writing error response", "error", err)
	}
}
