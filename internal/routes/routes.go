package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/thelibrary/moderation-backend/internal/config"
	"github.com/thelibrary/moderation-backend/internal/handlers"
	"github.com/thelibrary/moderation-backend/internal/middleware"
	"github.com/thelibrary/moderation-backend/internal/store"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	st store.Store,
	healthHandler *handlers.HealthHandler,
	moderationHandler *handlers.ModerationHandler,
	userHandler *handlers.UserHandler,
) {
	api := app.Group("/api")

	// General API rate limiter, per IP
	api.Use(limiter.New(limiter.Config{
		Max:               cfg.RateLimit,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	// Public
	api.Get("/health", healthHandler.Check)
	api.Get("/reports", moderationHandler.ListReports)

	// Service-to-service routes, API key required on each
	key := middleware.APIKeyRequired(cfg)
	api.Post("/addReport", key, moderationHandler.AddReport)
	api.Get("/reportsByTarget/:target_id", key, moderationHandler.ListReportsByTarget)
	api.Put("/updateReportStatus/:report_id", key, moderationHandler.UpdateReportStatus)
	api.Post("/addStrike", key, moderationHandler.AddStrike)
	api.Get("/strikesByUser/:user_id", key, moderationHandler.ListStrikesByUser)
	api.Post("/addAlert", key, moderationHandler.AddAlert)
	api.Get("/alertsByBook/:book_id", key, moderationHandler.ListAlertsByBook)
	api.Put("/resolveAlert/:alert_id", key, moderationHandler.ResolveAlert)
	api.Put("/updateUsername/:user_id", key, userHandler.UpdateUsername)

	// Admin moderation panel, only when tokens can be verified
	if cfg.JWTSecret == "" {
		return
	}
	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(st, cfg))
	admin.Get("/moderation/reports", moderationHandler.AdminSearchReports)
	admin.Put("/moderation/reports/:id", moderationHandler.AdminUpdateReport)
	admin.Get("/moderation/alerts", moderationHandler.AdminListAlerts)
	admin.Put("/moderation/alerts/:id", moderationHandler.ResolveAlert)
}
