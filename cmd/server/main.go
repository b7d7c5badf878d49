package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/thelibrary/moderation-backend/internal/config"
	"github.com/thelibrary/moderation-backend/internal/database"
	"github.com/thelibrary/moderation-backend/internal/handlers"
	"github.com/thelibrary/moderation-backend/internal/lock"
	"github.com/thelibrary/moderation-backend/internal/logging"
	"github.com/thelibrary/moderation-backend/internal/middleware"
	"github.com/thelibrary/moderation-backend/internal/routes"
	"github.com/thelibrary/moderation-backend/internal/services"
	"github.com/thelibrary/moderation-backend/internal/validation"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	logLevel := logging.LevelFor(cfg.AppEnv)
	logging.Setup(logLevel)

	if cfg.APIKey == "" {
		slog.Error("API_KEY environment variable is required")
		os.Exit(1)
	}
	if cfg.StoreDriver == config.DriverPostgres && cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	ctx := context.Background()

	// Entity store
	conn, err := database.Connect(ctx, cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(ctx, conn); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// Relational stores also keep ERROR+ logs in system_logs
	var dbLogHandler *logging.DBHandler
	cleanupDone := make(chan struct{})
	if conn.DB != nil {
		dbLogHandler = logging.NewDBHandler(conn.DB, 5*time.Second)
		logging.Setup(logLevel, dbLogHandler)
		logging.StartCleanup(conn.DB, cfg.LogRetentionDays, cleanupDone)
	}

	// Per-target locks
	locker, closeLocker, err := lock.Open(ctx, cfg.RedisURL, cfg.LockTTL)
	if err != nil {
		slog.Error("lock backend unavailable", "error", err)
		os.Exit(1)
	}
	slog.Info("locks ready", "distributed", cfg.RedisURL != "")

	// Services
	moderationService := services.NewModerationService(conn.Store, locker,
		services.WithRules(services.RulesFromConfig(cfg)),
	)
	userService := services.NewUserService(conn.Store, locker)

	// Handlers
	v := validation.New()
	healthHandler := handlers.NewHealthHandler(conn.Store, conn.Driver())
	moderationHandler := handlers.NewModerationHandler(moderationService, v)
	userHandler := handlers.NewUserHandler(userService, v)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, conn.Store, healthHandler, moderationHandler, userHandler)
	if cfg.JWTSecret == "" {
		slog.Warn("JWT_SECRET not set, admin moderation routes disabled")
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "store", conn.Driver())
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	if dbLogHandler != nil {
		dbLogHandler.Stop()
	}
	sentry.Flush(2 * time.Second)

	if err := closeLocker(); err != nil {
		slog.Error("lock backend close error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.Close(shutdownCtx); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
