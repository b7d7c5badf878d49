package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/thelibrary/moderation-backend/internal/dto"
	"github.com/thelibrary/moderation-backend/internal/middleware"
	"github.com/thelibrary/moderation-backend/internal/services"
	"github.com/thelibrary/moderation-backend/internal/validation"
)

// EscalationStatusHeader is set to "failed" when a report was stored but its
// escalation side effects were not applied.
const EscalationStatusHeader = "X-Escalation-Status"

type ModerationHandler struct {
	moderationService *services.ModerationService
	validator         *validation.Validator
}

func NewModerationHandler(moderationService *services.ModerationService, validator *validation.Validator) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService, validator: validator}
}

// ---------- Reports ----------

func (h *ModerationHandler) AddReport(c *fiber.Ctx) error {
	var req dto.CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", nil)
	}
	if errs := h.validator.Struct(&req); errs != nil {
		return badRequest(c, "Validation failed", errs)
	}

	report, err := h.moderationService.FileReport(c.UserContext(), &req)
	if err != nil {
		var escErr *services.EscalationError
		if report == nil || !errors.As(err, &escErr) {
			return respondError(c, err)
		}
		slog.ErrorContext(c.UserContext(), "report escalation failed",
			"action", string(escErr.Rule),
			"report_id", report.ID,
			"target_id", report.TargetID,
			"target_type", report.TargetType,
			"request_id", requestID(c),
			"error", escErr.Err,
		)
		captureException(c, err)
		c.Set(EscalationStatusHeader, "failed")
	}

	return c.Status(fiber.StatusCreated).JSON(report)
}

func (h *ModerationHandler) ListReports(c *fiber.Ctx) error {
	reports, err := h.moderationService.ListReports(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reports)
}

func (h *ModerationHandler) ListReportsByTarget(c *fiber.Ctx) error {
	reports, err := h.moderationService.ListReportsByTarget(c.UserContext(), c.Params("target_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reports)
}

// UpdateReportStatus reads {status, admin_id} from the body, falling back to
// query parameters for older clients.
func (h *ModerationHandler) UpdateReportStatus(c *fiber.Ctx) error {
	req, ok, err := h.parseReportStatus(c)
	if !ok {
		return err
	}

	report, err := h.moderationService.UpdateReportStatus(c.UserContext(), c.Params("report_id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// AdminSearchReports is the paginated admin listing.
func (h *ModerationHandler) AdminSearchReports(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	q := dto.ReportQuery{
		Status:     c.Query("status"),
		TargetType: c.Query("target_type"),
		Limit:      limit,
		Offset:     offset,
	}
	page, err := h.moderationService.SearchReports(c.UserContext(), q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// AdminUpdateReport records the acting admin from the JWT subject unless the
// body names one.
func (h *ModerationHandler) AdminUpdateReport(c *fiber.Ctx) error {
	req, ok, err := h.parseReportStatus(c)
	if !ok {
		return err
	}
	if req.AdminID == nil {
		if sub, ok := middleware.Subject(c); ok {
			req.AdminID = &sub
		}
	}

	report, err := h.moderationService.UpdateReportStatus(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// parseReportStatus reports ok=false once it has written a 400, in which case
// the caller returns err as is.
func (h *ModerationHandler) parseReportStatus(c *fiber.Ctx) (*dto.UpdateReportStatusRequest, bool, error) {
	var req dto.UpdateReportStatusRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return nil, false, badRequest(c, "Invalid request body", nil)
		}
	}
	if req.Status == "" {
		req.Status = c.Query("status")
	}
	if req.AdminID == nil {
		if adminID := c.Query("admin_id"); adminID != "" {
			req.AdminID = &adminID
		}
	}
	if errs := h.validator.Struct(&req); errs != nil {
		return nil, false, badRequest(c, "Validation failed", errs)
	}
	return &req, true, nil
}

// ---------- Strikes ----------

func (h *ModerationHandler) AddStrike(c *fiber.Ctx) error {
	var req dto.CreateStrikeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", nil)
	}
	if errs := h.validator.Struct(&req); errs != nil {
		return badRequest(c, "Validation failed", errs)
	}

	strike, err := h.moderationService.AddStrike(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(strike)
}

func (h *ModerationHandler) ListStrikesByUser(c *fiber.Ctx) error {
	strikes, err := h.moderationService.ListStrikesByUser(c.UserContext(), c.Params("user_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(strikes)
}

// ---------- Alerts ----------

func (h *ModerationHandler) AddAlert(c *fiber.Ctx) error {
	var req dto.CreateAlertRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", nil)
	}
	if errs := h.validator.Struct(&req); errs != nil {
		return badRequest(c, "Validation failed", errs)
	}

	alert, err := h.moderationService.CreateAlert(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(alert)
}

func (h *ModerationHandler) ListAlertsByBook(c *fiber.Ctx) error {
	alerts, err := h.moderationService.ListAlertsByBook(c.UserContext(), c.Params("book_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(alerts)
}

func (h *ModerationHandler) AdminListAlerts(c *fiber.Ctx) error {
	alerts, err := h.moderationService.ListAlertsByStatus(c.UserContext(), c.Query("status"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(alerts)
}

// ResolveAlert serves both the public and the admin route; the alert id is
// the last path parameter in either.
func (h *ModerationHandler) ResolveAlert(c *fiber.Ctx) error {
	var req dto.ResolveAlertRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body", nil)
		}
	}
	if req.Status == "" {
		req.Status = c.Query("status")
	}
	if errs := h.validator.Struct(&req); errs != nil {
		return badRequest(c, "Validation failed", errs)
	}

	alertID := c.Params("alert_id")
	if alertID == "" {
		alertID = c.Params("id")
	}
	alert, err := h.moderationService.ResolveAlert(c.UserContext(), alertID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(alert)
}
