package routes

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"

	"github.com/lshop/accounts/internal/respond"
)

const (
	statusOK          = "ok"
	statusUnavailable = "unavailable"
)

// RegisterHealthRoutes adds the dependency check at the root and under the API
// prefix, plus the process self report under the API prefix.
func RegisterHealthRoutes(app *fiber.App, api fiber.Router, d Deps) {
	healthz := func(c *fiber.Ctx) error {
		checks := dependencyStatus(c.UserContext(), d)
		status := http.StatusOK
		for _, v := range checks {
			if v != statusOK {
				status = http.StatusServiceUnavailable
			}
		}
		return c.Status(status).JSON(fiber.Map{
			"status":    checks,
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	}
	app.Get("/healthz", healthz)
	api.Get("/healthz", healthz)

	api.Get("/self", func(c *fiber.Ctx) error {
		return respond.JSON(c, http.StatusOK, "Application health", fiber.Map{
			"application": applicationHealth(d),
			"system":      systemHealth(),
		})
	})
}

func dependencyStatus(parent context.Context, d Deps) map[string]string {
	checks := map[string]string{}
	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()

	if d.DB != nil {
		checks["postgres"] = statusOK
		if err := d.DB.Ping(ctx); err != nil {
			d.Logger.Warn("health check failed", slog.String("dependency", "postgres"), slog.Any("error", err))
			checks["postgres"] = statusUnavailable
		}
	}
	if d.Cache != nil {
		checks["redis"] = statusOK
		if err := d.Cache.Ping(ctx).Err(); err != nil {
			d.Logger.Warn("health check failed", slog.String("dependency", "redis"), slog.Any("error", err))
			checks["redis"] = statusUnavailable
		}
	}
	if d.NATS != nil {
		checks["nats"] = statusOK
		if st := d.NATS.Status(); st != nats.CONNECTED {
			d.Logger.Warn("health check failed", slog.String("dependency", "nats"), slog.String("state", st.String()))
			checks["nats"] = statusUnavailable
		}
	}
	return checks
}

func applicationHealth(d Deps) fiber.Map {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	return fiber.Map{
		"environment": d.Cfg.Env,
		"uptime":      time.Since(d.Started).Round(time.Second).String(),
		"memory": fiber.Map{
			"heap_alloc_mb": bytesToMB(mem.HeapAlloc),
			"heap_sys_mb":   bytesToMB(mem.HeapSys),
			"sys_mb":        bytesToMB(mem.Sys),
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

func systemHealth() fiber.Map {
	host, _ := os.Hostname()
	return fiber.Map{
		"hostname":   host,
		"cpus":       runtime.NumCPU(),
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
	}
}

func bytesToMB(b uint64) float64 {
	return float64(b) / 1024 / 1024
}
