// Package app assembles webcore from its configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"webcore/internal/api"
	"webcore/internal/platform/config"
	"webcore/internal/platform/server"
	"webcore/internal/platform/telemetry"
	"webcore/internal/token"
	"webcore/internal/webapi"
	"webcore/internal/webapi/adapter/catalog"
	"webcore/internal/webapi/adapter/inmem"
)

const sweepInterval = 5 * time.Minute

// App is a fully wired webcore server.
type App struct {
	cfg               *config.Config
	logger            *slog.Logger
	handler           http.Handler
	limiter           *inmem.RateLimiter
	shutdownTelemetry telemetry.ShutdownFunc
	closeOnce         sync.Once
	closeErr          error
}

// New builds every component named in cfg. Call Run or Serve to start it.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	shutdown, err := telemetry.Setup(ctx, "webcore")
	if err != nil {
		return nil, fmt.Errorf("telemetry setup: %w", err)
	}
	a, err := build(cfg, logger)
	if err != nil {
		return nil, errors.Join(err, shutdown(ctx))
	}
	a.shutdownTelemetry = shutdown
	return a, nil
}

func build(cfg *config.Config, logger *slog.Logger) (*App, error) {
	metrics, err := telemetry.NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("metrics initialization: %w", err)
	}

	resolver, err := messages(cfg.MessagesFile)
	if err != nil {
		return nil, err
	}

	issuer, err := token.NewIssuer(&cfg.JWT)
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}
	verifier, err := token.NewVerifier(&cfg.JWT)
	if err != nil {
		return nil, fmt.Errorf("token verifier: %w", err)
	}

	accounts := inmem.NewAccounts(bcrypt.DefaultCost)
	if cfg.Demo.Password != "" {
		if err := accounts.Add(cfg.Demo.UserID, cfg.Demo.Email, cfg.Demo.Password); err != nil {
			return nil, fmt.Errorf("seeding demo account: %w", err)
		}
		logger.Info("demo account enabled", "email", cfg.Demo.Email, "user_id", cfg.Demo.UserID)
	}

	limiter := inmem.NewRateLimiter(cfg.RateLimit.Rate, cfg.RateLimit.Burst, time.Now)

	handler, err := api.NewRouter(api.Deps{
		Issuer:        issuer,
		Authenticator: verifier,
		Accounts:      accounts,
		Limiter:       limiter,
		Resolver:      resolver,
		Logger:        logger,
		Metrics:       metrics,
		MaxBodyBytes:  cfg.Server.MaxBodyBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("router initialization: %w", err)
	}

	return &App{cfg: cfg, logger: logger, handler: handler, limiter: limiter}, nil
}

func messages(path string) (webapi.MessageResolver, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	c, err := catalog.Load(path, catalog.Default())
	if err != nil {
		return nil, fmt.Errorf("message catalog: %w", err)
	}
	return c, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

// Run listens on the configured address and serves until ctx is done.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.cfg.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then drains requests and flushes
// telemetry.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go a.limiter.RunSweeper(sweepCtx, sweepInterval)

	srv := server.New(a.cfg.Server.Addr, a.handler,
		server.WithLogger(a.logger),
		server.WithShutdownTimeout(a.cfg.Server.ShutdownTimeout),
	)
	err := srv.Serve(ctx, ln)

	if closeErr := a.Close(context.WithoutCancel(ctx)); closeErr != nil {
		a.logger.Error("telemetry shutdown error", "error", closeErr)
	}
	return err
}

// Close flushes and releases telemetry. Serve calls it on exit; an App that
// is only used through Handler must call it itself. Calls after the first
// return the first result.
func (a *App) Close(ctx context.Context) error {
	a.closeOnce.Do(func() {
		a.closeErr = a.shutdownTelemetry(ctx)
	})
	return a.closeErr
}
