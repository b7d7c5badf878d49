// Package store defines the persistence boundary consumed by the moderation services.
// Adapters live in the gormstore (relational) and mongostore (document) subpackages.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/thelibrary/moderation-backend/internal/models"
)

var (
	// ErrNotFound is returned by single-record lookups and updates when no record matches.
	ErrNotFound = errors.New("store: record not found")
	// ErrDuplicate is returned when an insert or update violates a uniqueness constraint.
	ErrDuplicate = errors.New("store: duplicate key")
)

// ReportFilter selects reports. Zero-valued fields are ignored.
type ReportFilter struct {
	TargetID   string
	TargetType string
	Status     string
	// Reason matches case-insensitively after trimming surrounding whitespace.
	Reason string
	Limit  int
	Offset int
}

type AlertFilter struct {
	BookID string
	Status string
}

type StrikeFilter struct {
	UserID string
}

// TargetCount is the number of reports filed against one target.
type TargetCount struct {
	TargetID string
	Total    int64
}

// UserModeration carries the moderation-owned fields of a user.
type UserModeration struct {
	Status             string
	NameChangeDeadline *time.Time
	ReportedForName    bool
}

// Store is the entity store used by the moderation core. Each method is a single
// atomic operation on the backing store; there are no multi-call transactions.
type Store interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	InsertUser(ctx context.Context, user *models.User) error
	UpdateUserModeration(ctx context.Context, id string, m UserModeration) error
	UpdateUsername(ctx context.Context, id, username string, m UserModeration) error

	GetBook(ctx context.Context, id string) (*models.Book, error)
	InsertBook(ctx context.Context, book *models.Book) error
	UpdateBookStatus(ctx context.Context, id, status string) error

	GetComment(ctx context.Context, id string) (*models.Comment, error)
	InsertComment(ctx context.Context, comment *models.Comment) error

	InsertReport(ctx context.Context, report *models.Report) error
	GetReport(ctx context.Context, id string) (*models.Report, error)
	FindReports(ctx context.Context, filter ReportFilter) ([]models.Report, error)
	CountReports(ctx context.Context, filter ReportFilter) (int64, error)
	CountReportsByTarget(ctx context.Context, filter ReportFilter) ([]TargetCount, error)
	UpdateReportStatus(ctx context.Context, id, status string, adminID *string) error

	InsertAlert(ctx context.Context, alert *models.ReportAlert) error
	GetAlert(ctx context.Context, id string) (*models.ReportAlert, error)
	FindAlerts(ctx context.Context, filter AlertFilter) ([]models.ReportAlert, error)
	UpdateAlertStatus(ctx context.Context, id, status string) error

	InsertStrike(ctx context.Context, strike *models.UserStrike) error
	FindStrikes(ctx context.Context, filter StrikeFilter) ([]models.UserStrike, error)

	Ping(ctx context.Context) error
}
