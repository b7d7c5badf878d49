// Package storetest provides a throwaway SQLite-backed store and seed helpers for tests.
package storetest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/thelibrary/moderation-backend/internal/database"
	"github.com/thelibrary/moderation-backend/internal/models"
	"github.com/thelibrary/moderation-backend/internal/store/gormstore"
	"gorm.io/gorm"
)

// NewSQLite opens a migrated store in a temporary directory.
func NewSQLite(t testing.TB) (*gormstore.Store, *gorm.DB) {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "moderation_test.db"))
	require.NoError(t, err)
	require.NoError(t, gormstore.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gormstore.New(db), db
}

func SeedUser(t testing.TB, st *gormstore.Store, id, username string) *models.User {
	t.Helper()
	user := &models.User{
		ID:       id,
		Username: username,
		Email:    id + "@thelibrary.test",
		Status:   models.UserStatusActive,
	}
	require.NoError(t, st.InsertUser(context.Background(), user))
	return user
}

func SeedBook(t testing.TB, st *gormstore.Store, id, authorID string) *models.Book {
	t.Helper()
	book := &models.Book{
		ID:          id,
		Title:       "Book " + id,
		AuthorID:    authorID,
		ContentType: "book",
		Status:      models.BookStatusPublished,
	}
	require.NoError(t, st.InsertBook(context.Background(), book))
	return book
}

func SeedComment(t testing.TB, st *gormstore.Store, id, userID, bookID string) *models.Comment {
	t.Helper()
	comment := &models.Comment{
		ID:      id,
		UserID:  userID,
		BookID:  bookID,
		Content: "comment " + id,
	}
	require.NoError(t, st.InsertComment(context.Background(), comment))
	return comment
}

// SeedReport inserts a report directly, skipping escalation.
func SeedReport(t testing.TB, st *gormstore.Store, id, reporterID, targetType, targetID, reason string) *models.Report {
	t.Helper()
	now := time.Now().UTC()
	report := &models.Report{
		ID:         id,
		ReporterID: reporterID,
		TargetID:   targetID,
		TargetType: targetType,
		Reason:     reason,
		Status:     models.ReportStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, st.InsertReport(context.Background(), report))
	return report
}
