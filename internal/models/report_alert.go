package models

import "time"

const (
	AlertStatusOpen     = "alert"
	AlertStatusRemoved  = "removed"
	AlertStatusRestored = "restored"
)

// ReportAlert flags a book as suppressed. At most one alert per book may be open
// (status "alert") at a time.
type ReportAlert struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id" bson:"_id"`
	BookID       string    `gorm:"not null;size:36;index" json:"book_id" bson:"book_id"`
	ReportReason string    `gorm:"type:text;not null" json:"report_reason" bson:"report_reason"`
	Status       string    `gorm:"not null;size:20;default:'alert'" json:"status" bson:"status"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

func (ReportAlert) TableName() string {
	return "report_alerts"
}

func IsValidAlertStatus(s string) bool {
	switch s {
	case AlertStatusOpen, AlertStatusRemoved, AlertStatusRestored:
		return true
	}
	return false
}

// IsClosedAlertStatus reports whether s ends the suppression of a book.
func IsClosedAlertStatus(s string) bool {
	return s == AlertStatusRemoved || s == AlertStatusRestored
}
