package models

import "time"

const (
	TargetTypeUser    = "user"
	TargetTypeBook    = "book"
	TargetTypeComment = "comment"
)

const (
	ReportStatusPending   = "pending"
	ReportStatusReviewed  = "reviewed"
	ReportStatusDismissed = "dismissed"
)

// Report is a complaint filed by a user against a user, book or comment.
// Only Status and AdminID change after creation.
type Report struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id" bson:"_id"`
	ReporterID string    `gorm:"not null;size:36;index" json:"reporter_id" bson:"reporter_id"`
	TargetID   string    `gorm:"not null;size:36;index:idx_reports_target" json:"target_id" bson:"target_id"`
	TargetType string    `gorm:"not null;size:20;index:idx_reports_target" json:"target_type" bson:"target_type"`
	Reason     string    `gorm:"type:text;not null" json:"reason" bson:"reason"`
	Status     string    `gorm:"not null;size:20;default:'pending';index" json:"status" bson:"status"`
	AdminID    *string   `gorm:"size:36" json:"admin_id" bson:"admin_id,omitempty"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}

func IsValidTargetType(t string) bool {
	switch t {
	case TargetTypeUser, TargetTypeBook, TargetTypeComment:
		return true
	}
	return false
}

func IsValidReportStatus(s string) bool {
	switch s {
	case ReportStatusPending, ReportStatusReviewed, ReportStatusDismissed:
		return true
	}
	return false
}
