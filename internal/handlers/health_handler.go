package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/thelibrary/moderation-backend/internal/dto"
	"github.com/thelibrary/moderation-backend/internal/store"
)

type HealthHandler struct {
	store  store.Store
	driver string
}

func NewHealthHandler(st store.Store, driver string) *HealthHandler {
	return &HealthHandler{store: st, driver: driver}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := "ok"
	storeStatus := "ok"
	code := fiber.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		status = "degraded"
		storeStatus = "unhealthy: " + err.Error()
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(dto.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Store:     storeStatus,
		Driver:    h.driver,
	})
}
