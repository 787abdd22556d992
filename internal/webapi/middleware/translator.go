package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"webcore/internal/domain"
	"webcore/internal/platform/telemetry"
	"webcore/internal/webapi"
)

// Translator runs an error-returning handler and turns any failure it
// returns or panics with into a single JSON ErrorResponse. Successful
// responses pass through untouched.
type Translator struct {
	next     webapi.Handler
	resolver webapi.MessageResolver
	logger   *slog.Logger
	metrics  *telemetry.Metrics
}

// TranslatorOption configures a Translator.
type TranslatorOption func(*Translator)

// WithTranslatorMetrics records every translated failure.
func WithTranslatorMetrics(m *telemetry.Metrics) TranslatorOption {
	return func(t *Translator) { t.metrics = m }
}

// NewTranslator wraps next. All three collaborators are required; a nil one,
// typed nils such as HandlerFunc(nil) included, is reported as a
// *domain.ArgumentError naming it.
func NewTranslator(next webapi.Handler, resolver webapi.MessageResolver, logger *slog.Logger, opts ...TranslatorOption) (*Translator, error) {
	switch {
	case webapi.IsNil(next):
		return nil, domain.MissingArgument("next")
	case webapi.IsNil(resolver):
		return nil, domain.MissingArgument("resolver")
	case logger == nil:
		return nil, domain.MissingArgument("logger")
	}

	t := &Translator{next: next, resolver: resolver, logger: logger}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *Translator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sw := &webapi.StatusWriter{ResponseWriter: w, Code: http.StatusOK}
	if err := t.serve(sw, r); err != nil {
		t.fail(sw, r, err)
	}
}

func (t *Translator) serve(w http.ResponseWriter, r *http.Request) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = recoverPanic(v)
		}
	}()
	return t.next.ServeHTTP(w, r)
}

// Translate maps err to the status code and envelope the client receives.
// Errors that carry no HTTPFailure are unclassified: 500 with code -1.
func (t *Translator) Translate(ctx context.Context, err error) (int, domain.ErrorResponse) {
	resp := unclassified(err)

	var hf domain.HTTPFailure
	if !errors.As(err, &hf) {
		return http.StatusInternalServerError, resp
	}

	status := hf.StatusCode()
	if status < 400 || status > 599 {
		status = http.StatusInternalServerError
	}
	// A failure's own message, not its cause chain, is the client-facing
	// detail. The cause stays in innerExceptions and the log.
	if f, ok := err.(*domain.Failure); ok {
		resp.ErrorDetails = f.Message()
	}
	resp.ErrorCode = hf.ErrorCode()
	resp.ErrorMessage = t.resolve(ctx, resp.ErrorCode)
	return status, resp
}

func (t *Translator) resolve(ctx context.Context, code int) (msg string) {
	defer func() {
		if v := recover(); v != nil {
			t.logger.WarnContext(ctx, "message resolver panicked",
				"error_code", code,
				"panic", fmt.Sprint(v),
			)
			msg = ""
		}
	}()
	return t.resolver.Message(ctx, code)
}

func (t *Translator) fail(sw *webapi.StatusWriter, r *http.Request, err error) {
	ctx := r.Context()
	status, resp := t.Translate(ctx, err)
	kind := failureKind(err)

	attrs := []any{
		"error", err.Error(),
		"error_type", fmt.Sprintf("%T", err),
		"kind", kind,
		"status", status,
		"error_code", resp.ErrorCode,
		"request_id", webapi.RequestIDFromContext(ctx),
		"method", r.Method,
		"path", r.URL.Path,
		"committed", sw.Committed(),
	}
	var f *domain.Failure
	if errors.As(err, &f) {
		attrs = append(attrs, "failure", f)
	}
	var pe *PanicError
	if errors.As(err, &pe) {
		attrs = append(attrs, "stack", string(pe.Stack))
	}
	t.logger.ErrorContext(ctx, "request failed", attrs...)

	if t.metrics != nil {
		t.metrics.RecordFailure(ctx, kind, status, resp.ErrorCode)
	}

	// Headers and part of a body may already be on the wire.
	if sw.Committed() {
		return
	}
	writeEnvelope(ctx, t.logger, sw, status, resp)
}

func failureKind(err error) string {
	var f *domain.Failure
	if errors.As(err, &f) {
		return f.Kind().String()
	}
	var hf domain.HTTPFailure
	if errors.As(err, &hf) {
		return "extension"
	}
	return domain.KindUnclassified.String()
}
