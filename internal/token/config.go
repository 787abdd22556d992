package token

import (
	"time"

	"webcore/internal/domain"
)

// Config holds the signing settings shared by Issuer and Verifier.
type Config struct {
	Secret              string `mapstructure:"secret" validate:"required"`
	ExpirationInMinutes int    `mapstructure:"expirationInMinutes" validate:"gt=0"`
	Issuer              string `mapstructure:"issuer"`
}

func (c *Config) check() error {
	if c == nil {
		return domain.MissingArgument("config")
	}
	if c.Secret == "" {
		return &domain.ArgumentError{Param: "secret", Reason: "must not be empty", Err: domain.ErrInvalidConfig}
	}
	if c.ExpirationInMinutes <= 0 {
		return &domain.ArgumentError{Param: "expirationInMinutes", Reason: "must be positive", Err: domain.ErrInvalidConfig}
	}
	return nil
}

// Option configures an Issuer or Verifier.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now. Tests use it to pin token timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
