package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/thelibrary/moderation-backend/internal/dto"
	"github.com/thelibrary/moderation-backend/internal/services"
	"github.com/thelibrary/moderation-backend/internal/validation"
)

type UserHandler struct {
	userService *services.UserService
	validator   *validation.Validator
}

func NewUserHandler(userService *services.UserService, validator *validation.Validator) *UserHandler {
	return &UserHandler{userService: userService, validator: validator}
}

func (h *UserHandler) UpdateUsername(c *fiber.Ctx) error {
	var req dto.UpdateUsernameRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", nil)
	}
	if errs := h.validator.Struct(&req); errs != nil {
		return badRequest(c, "Validation failed", errs)
	}

	user, err := h.userService.RenameUser(c.UserContext(), c.Params("user_id"), req.Username)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}
