package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"webcore/internal/domain"
	"webcore/internal/platform/logging"
	"webcore/internal/token"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "WEBCORE"

// Config holds all configuration for the webcore server.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	JWT       token.Config    `mapstructure:"jwt"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	// MessagesFile is an optional YAML or JSON message catalog layered over
	// the built-in messages.
	MessagesFile string     `mapstructure:"messages_file"`
	Demo         DemoConfig `mapstructure:"demo"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,loglevel"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// RateLimitConfig holds token bucket parameters for per-IP rate limiting.
type RateLimitConfig struct {
	Rate  float64 `mapstructure:"rate" validate:"gt=0"`
	Burst int     `mapstructure:"burst" validate:"gt=0"`
}

// DemoConfig seeds one account so POST /auth/token can be exercised.
// No account is created when Password is empty.
type DemoConfig struct {
	UserID   int    `mapstructure:"user_id" validate:"gt=0"`
	Email    string `mapstructure:"email" validate:"required,email"`
	Password string `mapstructure:"password"`
}

var envBindings = []struct {
	key    string
	envVar string
}{
	{"server.addr", "WEBCORE_SERVER_ADDR"},
	{"server.log_level", "WEBCORE_SERVER_LOG_LEVEL"},
	{"server.max_body_bytes", "WEBCORE_SERVER_MAX_BODY_BYTES"},
	{"server.shutdown_timeout", "WEBCORE_SERVER_SHUTDOWN_TIMEOUT"},
	{"jwt.secret", "WEBCORE_JWT_SECRET"},
	{"jwt.expirationInMinutes", "WEBCORE_JWT_EXPIRATION_IN_MINUTES"},
	{"jwt.issuer", "WEBCORE_JWT_ISSUER"},
	{"rate_limit.rate", "WEBCORE_RATE_LIMIT_RATE"},
	{"rate_limit.burst", "WEBCORE_RATE_LIMIT_BURST"},
	{"messages_file", "WEBCORE_MESSAGES_FILE"},
	{"demo.user_id", "WEBCORE_DEMO_USER_ID"},
	{"demo.email", "WEBCORE_DEMO_EMAIL"},
	{"demo.password", "WEBCORE_DEMO_PASSWORD"},
}

// Load reads defaults, then the optional config file at path, then
// WEBCORE_* environment variables, and validates the result. Validation
// failures wrap domain.ErrInvalidConfig.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("jwt.expirationInMinutes", 60)
	v.SetDefault("rate_limit.rate", 100)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("demo.user_id", 1)
	v.SetDefault("demo.email", "demo@webcore.local")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, b := range envBindings {
		if err := v.BindEnv(b.key, b.envVar); err != nil {
			return nil, fmt.Errorf("binding environment variable %s: %w", b.envVar, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling configuration: %w", err)
	}

	validate, err := newValidator()
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
	}
	return &cfg, nil
}

// newValidator adds the loglevel tag, which accepts exactly what
// logging.ParseLevel accepts.
func newValidator() (*validator.Validate, error) {
	validate := validator.New()
	err := validate.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		_, ok := logging.ParseLevel(fl.Field().String())
		return ok
	})
	if err != nil {
		return nil, fmt.Errorf("registering loglevel validation: %w", err)
	}
	return validate, nil
}
