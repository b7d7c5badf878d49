package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SystemLog stores ERROR-level log records so failed escalations can be audited later.
type SystemLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Timestamp  time.Time      `gorm:"not null;index" json:"timestamp"`
	Level      string         `gorm:"size:10;not null;index" json:"level"`
	Message    string         `gorm:"type:text" json:"message"`
	Action     string         `gorm:"size:100;index" json:"action"`
	ReportID   string         `gorm:"size:36;index" json:"report_id"`
	TargetID   string         `gorm:"size:36;index" json:"target_id"`
	TargetType string         `gorm:"size:20" json:"target_type"`
	UserID     *string        `gorm:"size:36" json:"user_id"`
	RequestID  string         `gorm:"size:64" json:"request_id"`
	Error      string         `gorm:"type:text" json:"error"`
	Extra      datatypes.JSON `json:"extra"`
	CreatedAt  time.Time      `json:"created_at"`
}
