package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	envDevelopment = "development"

	MailProviderLog    = "log"
	MailProviderResend = "resend"
	MailProviderNATS   = "nats"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName     string `env:"APP_NAME" envDefault:"LSHOP"`
	Env         string `env:"APP_ENV" envDefault:"development"`
	Port        string `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	ServerURL   string `env:"SERVER_URL" envDefault:"http://localhost:8080"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	APIRoot     string `env:"API_ROOT" envDefault:"/api/v1"`

	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	NATSURL     string `env:"NATS_URL"`

	AccessTokenSecret  string        `env:"ACCESS_TOKEN_SECRET"`
	RefreshTokenSecret string        `env:"REFRESH_TOKEN_SECRET"`
	AccessTokenTTL     time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"1h"`
	RefreshTokenTTL    time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"8760h"`
	PasswordResetTTL   time.Duration `env:"PASSWORD_RESET_TTL" envDefault:"15m"`
	ConfirmationDigits int           `env:"CONFIRMATION_CODE_LENGTH" envDefault:"6"`

	BcryptCost      int `env:"BCRYPT_COST" envDefault:"12"`
	HashConcurrency int `env:"HASH_CONCURRENCY" envDefault:"8"`

	MailProvider    string `env:"MAIL_PROVIDER" envDefault:"log"`
	MailFrom        string `env:"MAIL_FROM" envDefault:"LSHOP <onboarding@resend.dev>"`
	ResendAPIKey    string `env:"EMAIL_SERVICE_API_KEY"`
	NATSMailSubject string `env:"NATS_MAIL_SUBJECT" envDefault:"notifications.email"`
	MailQueueSize   int    `env:"MAIL_QUEUE_SIZE" envDefault:"256"`
	MailWorkers     int    `env:"MAIL_WORKERS" envDefault:"2"`
	MailMaxRetries  uint64 `env:"MAIL_MAX_RETRIES" envDefault:"3"`

	LoginAttemptsPerMinute int           `env:"LOGIN_ATTEMPTS_PER_MINUTE" envDefault:"5"`
	IdempotencyTTL         time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
	ShutdownPeriod         time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads an optional .env file, then populates a Config from the environment.
func Load() (Config, error) {
	// A missing .env file is the normal case outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Env = strings.ToLower(cfg.Env)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.MailProvider = strings.ToLower(cfg.MailProvider)
	cfg.APIRoot = "/" + strings.Trim(cfg.APIRoot, "/")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c Config) Validate() error {
	var errs []error

	if c.AccessTokenSecret == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET must be set"))
	}
	if c.RefreshTokenSecret == "" {
		errs = append(errs, errors.New("REFRESH_TOKEN_SECRET must be set"))
	}
	if c.AccessTokenSecret != "" && c.AccessTokenSecret == c.RefreshTokenSecret {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ"))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 || c.PasswordResetTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.ConfirmationDigits < 4 {
		errs = append(errs, errors.New("CONFIRMATION_CODE_LENGTH must be at least 4"))
	}
	if !c.IsDevelopment() {
		if c.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", c.Env))
		}
		if c.RedisURL == "" {
			errs = append(errs, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", c.Env))
		}
	}

	switch c.MailProvider {
	case MailProviderLog:
	case MailProviderResend:
		if c.ResendAPIKey == "" {
			errs = append(errs, errors.New("EMAIL_SERVICE_API_KEY must be set for the resend mail provider"))
		}
	case MailProviderNATS:
		if c.NATSURL == "" {
			errs = append(errs, errors.New("NATS_URL must be set for the nats mail provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MAIL_PROVIDER %q", c.MailProvider))
	}

	if _, err := url.Parse(c.ServerURL); err != nil {
		errs = append(errs, fmt.Errorf("invalid SERVER_URL: %w", err))
	}

	return errors.Join(errs...)
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDevelopment reports whether the service runs in a local development environment.
func (c Config) IsDevelopment() bool {
	switch c.Env {
	case "dev", envDevelopment, "local":
		return true
	default:
		return false
	}
}

// CookieDomain is the host part of SERVER_URL, used to scope auth cookies.
func (c Config) CookieDomain() string {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
