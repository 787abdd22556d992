package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"

	"webcore/internal/domain"
	"webcore/internal/platform/telemetry"
	"webcore/internal/webapi"
)

// RateLimitError is returned when a client has exhausted its bucket. It is
// an HTTPFailure of its own: 429 with domain.CodeRateLimited.
type RateLimitError struct {
	RetryAfter int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %ds", e.RetryAfter)
}

func (e *RateLimitError) ErrorCode() int  { return domain.CodeRateLimited }
func (e *RateLimitError) StatusCode() int { return http.StatusTooManyRequests }

// RateLimit returns an interceptor that enforces per-IP rate limits.
// The metrics parameter is optional; pass nil to skip metric recording.
func RateLimit(limiter webapi.RateLimiter, m *telemetry.Metrics) Interceptor {
	return func(next webapi.Handler) webapi.Handler {
		return webapi.HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
			result := limiter.Allow(clientIP(r))
			if m != nil {
				m.RecordRateLimitDecision(r.Context(), decision(result.Allowed))
			}
			if !result.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
				return &RateLimitError{RetryAfter: result.RetryAfter}
			}
			return next.ServeHTTP(w, r)
		})
	}
}

func decision(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "denied"
}

func clientIP(r *http.Request) string {
	// Use RemoteAddr directly. X-Forwarded-For is client-controlled and
	// must not be trusted without a validated trusted proxy list.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
