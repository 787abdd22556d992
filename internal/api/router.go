// Package api is the HTTP surface of webcore: token issuance, a couple of
// authenticated reads, health and metrics. Every route except health and
// metrics runs inside a Translator, so failures reach clients as the JSON
// error envelope.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"webcore/internal/domain"
	"webcore/internal/platform/telemetry"
	"webcore/internal/webapi"
	"webcore/internal/webapi/middleware"
)

// TokenIssuer mints access tokens for authenticated accounts.
type TokenIssuer interface {
	IssueForUser(email string, userID int, now time.Time) (domain.AccessToken, error)
}

// Deps are the collaborators NewRouter wires together. Metrics is optional.
type Deps struct {
	Issuer        TokenIssuer
	Authenticator webapi.Authenticator
	Accounts      webapi.Credentials
	Limiter       webapi.RateLimiter
	Resolver      webapi.MessageResolver
	Logger        *slog.Logger
	Metrics       *telemetry.Metrics
	MaxBodyBytes  int64
}

func (d Deps) check() error {
	switch {
	case webapi.IsNil(d.Issuer):
		return domain.MissingArgument("issuer")
	case webapi.IsNil(d.Authenticator):
		return domain.MissingArgument("authenticator")
	case webapi.IsNil(d.Accounts):
		return domain.MissingArgument("accounts")
	case webapi.IsNil(d.Limiter):
		return domain.MissingArgument("limiter")
	case webapi.IsNil(d.Resolver):
		return domain.MissingArgument("resolver")
	case d.Logger == nil:
		return domain.MissingArgument("logger")
	case d.MaxBodyBytes <= 0:
		return &domain.ArgumentError{Param: "maxBodyBytes", Reason: "must be positive"}
	}
	return nil
}

// NewRouter builds the chi router serving the API.
func NewRouter(d Deps) (http.Handler, error) {
	if err := d.check(); err != nil {
		return nil, err
	}

	h := &handlers{
		issuer:   d.Issuer,
		accounts: d.Accounts,
		metrics:  d.Metrics,
		validate: validator.New(),
	}
	b := &boundary{deps: d}
	authn := middleware.Authenticate(d.Authenticator, d.Metrics)

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Recovery(d.Logger),
		middleware.Metrics(d.Metrics),
		middleware.Logging(d.Logger),
	)

	r.NotFound(b.wrap(routeNotFound).ServeHTTP)
	r.MethodNotAllowed(b.wrap(methodNotAllowed).ServeHTTP)

	r.Get("/healthz", healthz)
	r.Method(http.MethodGet, "/metrics", telemetry.MetricsHandler())

	r.Method(http.MethodPost, "/auth/token", b.wrap(h.issueToken))
	r.Route("/v1", func(r chi.Router) {
		r.Method(http.MethodGet, "/me", b.wrap(h.me, authn))
		r.Method(http.MethodGet, "/users/{id}", b.wrap(h.user, authn))
	})

	return r, nil
}

// boundary puts each route behind its own Translator with the shared
// interceptors in front of the route's own.
type boundary struct {
	deps Deps
}

func (b *boundary) wrap(h webapi.HandlerFunc, ic ...middleware.Interceptor) http.Handler {
	chain := append([]middleware.Interceptor{
		middleware.RateLimit(b.deps.Limiter, b.deps.Metrics),
		middleware.MaxBodySize(b.deps.MaxBodyBytes),
	}, ic...)

	t, err := middleware.NewTranslator(
		middleware.Intercept(h, chain...),
		b.deps.Resolver,
		b.deps.Logger,
		middleware.WithTranslatorMetrics(b.deps.Metrics),
	)
	if err != nil {
		// Deps.check has already rejected every nil collaborator.
		panic(err)
	}
	return t
}
