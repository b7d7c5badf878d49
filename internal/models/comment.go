package models

import "time"

type Comment struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id" bson:"_id"`
	UserID          string    `gorm:"not null;size:36;index" json:"user_id" bson:"user_id"`
	BookID          string    `gorm:"not null;size:36;index" json:"book_id" bson:"book_id"`
	Content         string    `gorm:"type:text;not null" json:"content" bson:"content"`
	ParentCommentID *string   `gorm:"size:36" json:"parent_comment_id" bson:"parent_comment_id,omitempty"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
}
