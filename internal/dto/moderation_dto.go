package dto

import "github.com/thelibrary/moderation-backend/internal/models"

type CreateReportRequest struct {
	ID         string `json:"id" validate:"omitempty,max=36"`
	ReporterID string `json:"reporter_id" validate:"required,max=36"`
	TargetID   string `json:"target_id" validate:"required,max=36"`
	TargetType string `json:"target_type" validate:"required"`
	Reason     string `json:"reason" validate:"required,max=1000"`
}

type UpdateReportStatusRequest struct {
	Status  string  `json:"status" validate:"omitempty,max=20"`
	AdminID *string `json:"admin_id" validate:"omitempty,max=36"`
}

// ReportQuery drives the paginated admin listing.
type ReportQuery struct {
	Status     string
	TargetType string
	Limit      int
	Offset     int
}

type CreateStrikeRequest struct {
	UserID string `json:"user_id" validate:"required,max=36"`
	Reason string `json:"reason" validate:"required,max=1000"`
}

type CreateAlertRequest struct {
	BookID       string `json:"book_id" validate:"required,max=36"`
	ReportReason string `json:"report_reason" validate:"max=1000"`
}

type ResolveAlertRequest struct {
	Status string `json:"status" validate:"omitempty,max=20"`
}

type UpdateUsernameRequest struct {
	Username string `json:"username" validate:"required,max=50"`
}

type ReportListResponse struct {
	Reports []models.Report `json:"reports"`
	Total   int64           `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}
