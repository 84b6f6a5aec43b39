package routes

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/lshop/accounts/internal/admin"
	"github.com/lshop/accounts/internal/auth"
	"github.com/lshop/accounts/internal/config"
	"github.com/lshop/accounts/internal/identity"
	"github.com/lshop/accounts/internal/middleware"
	"github.com/lshop/accounts/internal/notification"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Cache    *redis.Client
	NATS     *nats.Conn
	Notifier auth.Dispatcher
	Logger   *slog.Logger
	Started  time.Time
	// Accounts overrides the repository chosen from DB.
	Accounts identity.Repository
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though config also checks.
	if !d.Cfg.IsDevelopment() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.Env)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.Env)
		}
	}
	if d.Notifier == nil {
		return errors.New("notifier is required")
	}
	if d.Started.IsZero() {
		d.Started = time.Now()
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))

	// Repositories
	accounts := d.Accounts
	switch {
	case accounts != nil:
	case d.DB != nil:
		accounts = identity.NewPostgresRepository(d.DB)
	default:
		accounts = identity.NewMemoryRepository()
	}
	var refreshTokens auth.RefreshRepository
	if d.Cache != nil {
		refreshTokens = auth.NewRedisRefreshRepository(d.Cache, d.Cfg.RefreshTokenTTL)
	} else {
		refreshTokens = auth.NewMemoryRefreshRepository(d.Cfg.RefreshTokenTTL)
	}

	// Services and handlers
	codec := auth.NewCodec()
	hasher := auth.NewHasher(d.Cfg.BcryptCost, d.Cfg.HashConcurrency)
	authSvc := auth.NewService(d.Cfg, accounts, refreshTokens, hasher, codec, d.Notifier, d.Logger)
	authHandler := auth.NewHandler(authSvc, d.Cfg)
	adminSvc := admin.NewService(accounts, d.Notifier, notification.NewComposer(d.Cfg.AppName, d.Cfg.FrontendURL), d.Logger)
	adminHandler := admin.NewHandler(adminSvc)

	authenticate := middleware.Authenticate(codec, []byte(d.Cfg.AccessTokenSecret), accounts)
	var idempotency fiber.Handler
	if d.Cache != nil {
		idempotency = middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	}

	// Health
	api := app.Group(d.Cfg.APIRoot)
	RegisterHealthRoutes(app, api, d)

	// API routes
	RegisterAuthRoutes(api, authHandler, AuthMiddleware{
		Authenticate: authenticate,
		LoginLimit:   middleware.LoginRateLimit(d.Cache, d.Cfg.LoginAttemptsPerMinute, d.Logger),
		Idempotency:  idempotency,
	})
	RegisterAdminRoutes(api, adminHandler, authenticate)

	return nil
}
