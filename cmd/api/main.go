package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/lshop/accounts/internal/config"
	"github.com/lshop/accounts/internal/identity"
	"github.com/lshop/accounts/internal/infra"
	"github.com/lshop/accounts/internal/logging"
	"github.com/lshop/accounts/internal/notification"
	"github.com/lshop/accounts/internal/routes"
	"github.com/lshop/accounts/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.AppName, cfg.Env)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server exited cleanly")
}

func run(cfg config.Config, logger *slog.Logger) error {
	started := time.Now()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var db *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		if err := identity.NewPostgresRepository(pool).EnsureSchema(ctx); err != nil {
			return err
		}
		db = pool
	} else {
		logger.Warn("DATABASE_URL not set, accounts are kept in memory")
	}

	var cache *redis.Client
	if cfg.RedisURL != "" {
		client, err := infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer func() {
			if err := client.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}()
		cache = client
	} else {
		logger.Warn("REDIS_URL not set, refresh tokens are kept in memory")
	}

	var nc *nats.Conn
	if cfg.NATSURL != "" {
		conn, err := infra.NewNATSConn(ctx, cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := conn.Drain(); err != nil {
				logger.Warn("drain nats", "error", err)
			}
		}()
		nc = conn
	}

	sender, err := newSender(cfg, nc, logger)
	if err != nil {
		return err
	}
	dispatcher := notification.NewDispatcher(sender, logger, notification.DispatcherOptions{
		QueueSize:  cfg.MailQueueSize,
		Workers:    cfg.MailWorkers,
		MaxRetries: cfg.MailMaxRetries,
	})
	// Workers outlive the signal context so queued mail can drain on shutdown.
	dispatcher.Start(context.Background())

	srv, err := server.New(routes.Deps{
		Cfg:      cfg,
		DB:       db,
		Cache:    cache,
		NATS:     nc,
		Notifier: dispatcher,
		Logger:   logger,
		Started:  started,
	})
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", "addr", cfg.Address())
		return srv.Listen()
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http: %w", err))
		}
		if err := dispatcher.Close(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("drain notifications: %w", err))
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

func newSender(cfg config.Config, nc *nats.Conn, logger *slog.Logger) (notification.Notifier, error) {
	switch cfg.MailProvider {
	case config.MailProviderResend:
		return notification.NewResendNotifier(cfg.ResendAPIKey, cfg.MailFrom), nil
	case config.MailProviderNATS:
		if nc == nil {
			return nil, errors.New("MAIL_PROVIDER=nats requires NATS_URL")
		}
		return notification.NewNATSNotifier(nc, cfg.NATSMailSubject), nil
	default:
		return notification.NewLoggerNotifier(logger), nil
	}
}
