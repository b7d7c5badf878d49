package models

import "time"

const (
	UserStatusActive         = "active"
	UserStatusRenameRequired = "rename_required"
	UserStatusSuspended      = "suspended"
)

// User is the account model. Only the moderation-relevant fields are mapped here;
// credentials are owned by the account service.
type User struct {
	ID                 string     `gorm:"primaryKey;size:36" json:"id" bson:"_id"`
	Username           string     `gorm:"not null;size:50" json:"username" bson:"username"`
	Email              string     `gorm:"not null;size:100;uniqueIndex" json:"email" bson:"email"`
	IsAdmin            bool       `gorm:"not null" json:"is_admin" bson:"is_admin"`
	Status             string     `gorm:"not null;size:20;default:'active'" json:"status" bson:"status"`
	NameChangeDeadline *time.Time `json:"name_change_deadline" bson:"name_change_deadline,omitempty"`
	ReportedForName    bool       `gorm:"not null" json:"reported_for_name" bson:"reported_for_name"`
	CreatedAt          time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" bson:"updated_at"`
}
