// Package gormstore implements store.Store on a relational database through GORM.
// It is used with PostgreSQL in production and SQLite for local runs and tests.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/thelibrary/moderation-backend/internal/models"
	"github.com/thelibrary/moderation-backend/internal/store"
	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the moderation tables and the partial unique index that keeps
// at most one open alert per book.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Book{},
		&models.Comment{},
		&models.Report{},
		&models.ReportAlert{},
		&models.UserStrike{},
		&models.SystemLog{},
	); err != nil {
		return err
	}
	// Partial index predicates cannot take bind parameters.
	return db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_report_alerts_open_book ON report_alerts (book_id) WHERE status = '" +
			models.AlertStatusOpen + "'",
	).Error
}

// --- users ---

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) InsertUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *Store) UpdateUserModeration(ctx context.Context, id string, m store.UserModeration) error {
	return s.updateByID(ctx, &models.User{}, id, moderationColumns(m))
}

func (s *Store) UpdateUsername(ctx context.Context, id, username string, m store.UserModeration) error {
	cols := moderationColumns(m)
	cols["username"] = username
	return s.updateByID(ctx, &models.User{}, id, cols)
}

func moderationColumns(m store.UserModeration) map[string]interface{} {
	return map[string]interface{}{
		"status":               m.Status,
		"name_change_deadline": m.NameChangeDeadline,
		"reported_for_name":    m.ReportedForName,
	}
}

// --- books ---

func (s *Store) GetBook(ctx context.Context, id string) (*models.Book, error) {
	var book models.Book
	if err := s.db.WithContext(ctx).First(&book, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &book, nil
}

func (s *Store) InsertBook(ctx context.Context, book *models.Book) error {
	return translate(s.db.WithContext(ctx).Create(book).Error)
}

func (s *Store) UpdateBookStatus(ctx context.Context, id, status string) error {
	return s.updateByID(ctx, &models.Book{}, id, map[string]interface{}{"status": status})
}

// --- comments ---

func (s *Store) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &comment, nil
}

func (s *Store) InsertComment(ctx context.Context, comment *models.Comment) error {
	return translate(s.db.WithContext(ctx).Create(comment).Error)
}

// --- reports ---

func (s *Store) InsertReport(ctx context.Context, report *models.Report) error {
	return translate(s.db.WithContext(ctx).Create(report).Error)
}

func (s *Store) GetReport(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	if err := s.db.WithContext(ctx).First(&report, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &report, nil
}

func (s *Store) FindReports(ctx context.Context, filter store.ReportFilter) ([]models.Report, error) {
	q := s.db.WithContext(ctx).Model(&models.Report{}).Scopes(reportScope(filter))
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	reports := make([]models.Report, 0)
	if err := q.Order("created_at DESC").Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("find reports: %w", err)
	}
	return reports, nil
}

func (s *Store) CountReports(ctx context.Context, filter store.ReportFilter) (int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Report{}).Scopes(reportScope(filter)).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return total, nil
}

func (s *Store) CountReportsByTarget(ctx context.Context, filter store.ReportFilter) ([]store.TargetCount, error) {
	rows := make([]store.TargetCount, 0)
	err := s.db.WithContext(ctx).Model(&models.Report{}).
		Select("target_id, COUNT(*) AS total").
		Scopes(reportScope(filter)).
		Group("target_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count reports by target: %w", err)
	}
	return rows, nil
}

func (s *Store) UpdateReportStatus(ctx context.Context, id, status string, adminID *string) error {
	cols := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if adminID != nil {
		cols["admin_id"] = *adminID
	}
	return s.updateByID(ctx, &models.Report{}, id, cols)
}

func reportScope(f store.ReportFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.TargetID != "" {
			db = db.Where("target_id = ?", f.TargetID)
		}
		if f.TargetType != "" {
			db = db.Where("target_type = ?", f.TargetType)
		}
		if f.Status != "" {
			db = db.Where("status = ?", f.Status)
		}
		if f.Reason != "" {
			db = db.Where("LOWER(TRIM(reason)) = ?", strings.ToLower(strings.TrimSpace(f.Reason)))
		}
		return db
	}
}

// --- alerts ---

func (s *Store) InsertAlert(ctx context.Context, alert *models.ReportAlert) error {
	return translate(s.db.WithContext(ctx).Create(alert).Error)
}

func (s *Store) GetAlert(ctx context.Context, id string) (*models.ReportAlert, error) {
	var alert models.ReportAlert
	if err := s.db.WithContext(ctx).First(&alert, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &alert, nil
}

func (s *Store) FindAlerts(ctx context.Context, filter store.AlertFilter) ([]models.ReportAlert, error) {
	q := s.db.WithContext(ctx).Model(&models.ReportAlert{})
	if filter.BookID != "" {
		q = q.Where("book_id = ?", filter.BookID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	alerts := make([]models.ReportAlert, 0)
	if err := q.Order("created_at DESC").Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("find alerts: %w", err)
	}
	return alerts, nil
}

func (s *Store) UpdateAlertStatus(ctx context.Context, id, status string) error {
	return s.updateByID(ctx, &models.ReportAlert{}, id, map[string]interface{}{"status": status})
}

// --- strikes ---

func (s *Store) InsertStrike(ctx context.Context, strike *models.UserStrike) error {
	return translate(s.db.WithContext(ctx).Create(strike).Error)
}

func (s *Store) FindStrikes(ctx context.Context, filter store.StrikeFilter) ([]models.UserStrike, error) {
	q := s.db.WithContext(ctx).Model(&models.UserStrike{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}

	strikes := make([]models.UserStrike, 0)
	if err := q.Order("created_at DESC").Find(&strikes).Error; err != nil {
		return nil, fmt.Errorf("find strikes: %w", err)
	}
	return strikes, nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// updateByID applies cols to the row with the given id. UpdatedAt is stamped by GORM.
func (s *Store) updateByID(ctx context.Context, model interface{}, id string, cols map[string]interface{}) error {
	result := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Updates(cols)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey),
		strings.Contains(err.Error(), "UNIQUE constraint failed"),
		strings.Contains(err.Error(), "duplicate key value"):
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}
	return err
}
