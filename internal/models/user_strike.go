package models

import "time"

// UserStrike is an audit record of a policy violation. Strikes have no automatic consequence.
type UserStrike struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id" bson:"_id"`
	UserID      string    `gorm:"not null;size:36;index" json:"user_id" bson:"user_id"`
	Reason      string    `gorm:"type:text;not null" json:"reason" bson:"reason"`
	StrikeCount int       `gorm:"not null" json:"strike_count" bson:"strike_count"`
	IsActive    bool      `gorm:"not null" json:"is_active" bson:"is_active"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

func (UserStrike) TableName() string {
	return "user_strikes"
}
