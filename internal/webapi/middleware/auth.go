package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"webcore/internal/domain"
	"webcore/internal/platform/telemetry"
	"webcore/internal/webapi"
)

// Authenticate returns an interceptor that requires a valid Bearer token and
// stores the resulting principal in the request context. Rejections are
// Unauthorized failures with domain.CodeUnauthorizedRequest.
// The metrics parameter is optional; pass nil to skip metric recording.
func Authenticate(auth webapi.Authenticator, m *telemetry.Metrics) Interceptor {
	return func(next webapi.Handler) webapi.Handler {
		return webapi.HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
			tokenStr, ok := extractBearerToken(r)
			if !ok {
				recordAuth(r, m, "failure")
				w.Header().Set("WWW-Authenticate", "Bearer")
				return domain.Unauthorized("missing or malformed authorization header", domain.CodeUnauthorizedRequest)
			}

			principal, err := auth.Authenticate(tokenStr)
			if err != nil {
				slog.Debug("auth validation failed", "error", err)
				recordAuth(r, m, "failure")
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				msg := "invalid token"
				if errors.Is(err, domain.ErrTokenExpired) {
					msg = "token expired"
				}
				return domain.WrapUnauthorized(msg, err, domain.CodeUnauthorizedRequest)
			}

			recordAuth(r, m, "success")
			ctx := webapi.ContextWithPrincipal(r.Context(), principal)
			return next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func recordAuth(r *http.Request, m *telemetry.Metrics, result string) {
	if m != nil {
		m.RecordAuthValidation(r.Context(), result)
	}
}

func extractBearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", false
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
