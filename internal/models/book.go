package models

import "time"

const (
	BookStatusPending   = "pending"
	BookStatusPublished = "published"
	BookStatusRejected  = "rejected"
	BookStatusAlert     = "alert"
	BookStatusActive    = "active"
)

type Book struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id" bson:"_id"`
	Title       string    `gorm:"not null;size:255" json:"title" bson:"title"`
	AuthorID    string    `gorm:"not null;size:36;index" json:"author_id" bson:"author_id"`
	Genre       string    `gorm:"size:100" json:"genre" bson:"genre"`
	ContentType string    `gorm:"size:20;default:'book'" json:"content_type" bson:"content_type"`
	Status      string    `gorm:"not null;size:20;default:'pending'" json:"status" bson:"status"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}
