package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thelibrary/moderation-backend/internal/dto"
	"github.com/thelibrary/moderation-backend/internal/lock"
	"github.com/thelibrary/moderation-backend/internal/models"
	"github.com/thelibrary/moderation-backend/internal/services"
	"github.com/thelibrary/moderation-backend/internal/store"
	"github.com/thelibrary/moderation-backend/internal/store/gormstore"
	"github.com/thelibrary/moderation-backend/internal/store/storetest"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// tickingClock advances one second per call so created_at ordering is stable.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	now := baseTime
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

type fixture struct {
	ctx context.Context
	st  *gormstore.Store
	svc *services.ModerationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, _ := storetest.NewSQLite(t)
	storetest.SeedUser(t, st, "reporter", "reporter")
	return &fixture{
		ctx: context.Background(),
		st:  st,
		svc: services.NewModerationService(st, lock.NewLocal(), services.WithClock(tickingClock())),
	}
}

func (f *fixture) file(t *testing.T, targetType, targetID, reason string) *models.Report {
	t.Helper()
	report, err := f.svc.FileReport(f.ctx, &dto.CreateReportRequest{
		ReporterID: "reporter",
		TargetID:   targetID,
		TargetType: targetType,
		Reason:     reason,
	})
	require.NoError(t, err)
	return report
}

func (f *fixture) openAlerts(t *testing.T, bookID string) []models.ReportAlert {
	t.Helper()
	alerts, err := f.st.FindAlerts(f.ctx, store.AlertFilter{BookID: bookID, Status: models.AlertStatusOpen})
	require.NoError(t, err)
	return alerts
}

func TestFileReport_Validation(t *testing.T) {
	f := newFixture(t)
	storetest.SeedUser(t, f.st, "u1", "someone")

	tests := []struct {
		name string
		req  dto.CreateReportRequest
		want error
		kind error
	}{
		{"unknown target type", dto.CreateReportRequest{ReporterID: "reporter", TargetID: "u1", TargetType: "chapter", Reason: "spam"}, services.ErrInvalidTargetType, services.ErrInvalidArgument},
		{"blank reason", dto.CreateReportRequest{ReporterID: "reporter", TargetID: "u1", TargetType: "user", Reason: "   "}, services.ErrReasonRequired, services.ErrInvalidArgument},
		{"markup only reason", dto.CreateReportRequest{ReporterID: "reporter", TargetID: "u1", TargetType: "user", Reason: "<img src=x>"}, services.ErrReasonRequired, services.ErrInvalidArgument},
		{"missing reporter", dto.CreateReportRequest{ReporterID: "ghost", TargetID: "u1", TargetType: "user", Reason: "spam"}, services.ErrReporterNotFound, services.ErrNotFound},
		{"missing target", dto.CreateReportRequest{ReporterID: "reporter", TargetID: "nobody", TargetType: "user", Reason: "spam"}, services.ErrTargetNotFound, services.ErrNotFound},
		{"target in another collection", dto.CreateReportRequest{ReporterID: "reporter", TargetID: "u1", TargetType: "book", Reason: "spam"}, services.ErrTargetNotFound, services.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := f.svc.FileReport(f.ctx, &tt.req)
			assert.Nil(t, report)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, tt.kind)
		})
	}

	total, err := f.st.CountReports(f.ctx, store.ReportFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestFileReport_PersistsPendingReport(t *testing.T) {
	f := newFixture(t)
	storetest.SeedUser(t, f.st, "u1", "someone")

	report := f.file(t, models.TargetTypeUser, "u1", "  <b>spam</b> ")
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "spam", report.Reason)
	assert.Equal(t, models.ReportStatusPending, report.Status)
	assert.Nil(t, report.AdminID)

	stored, err := f.st.GetReport(f.ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, "reporter", stored.ReporterID)
	assert.Equal(t, "u1", stored.TargetID)
	assert.Equal(t, models.TargetTypeUser, stored.TargetType)
}

func TestFileReport_DuplicateID(t *testing.T) {
	f := newFixture(t)
	storetest.SeedUser(t, f.st, "u1", "someone")

	req := &dto.CreateReportRequest{ID: "r-1", ReporterID: "reporter", TargetID: "u1", TargetType: "user", Reason: "spam"}
	_, err := f.svc.FileReport(f.ctx, req)
	require.NoError(t, err)

	_, err = f.svc.FileReport(f.ctx, req)
	assert.ErrorIs(t, err, services.ErrReportExists)
	assert.ErrorIs(t, err, services.ErrConflict)
}

func TestEscalation_BookSaturation(t *testing.T) {
	f := newFixture(t)
	storetest.SeedUser(t, f.st, "author", "author")
	storetest.SeedBook(t, f.st, "b1", "author")

	for i := 0; i < 4; i++ {
		f.file(t, models.TargetTypeBook, "b1", "spam")
	}
	assert.Empty(t, f.openAlerts(t, "b1"))
	book, err := f.st.GetBook(f.ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, models.BookStatusPublished, book.Status)

	f.file(t, models.TargetTypeBook, "b1", "spam")
	alerts := f.openAlerts(t, "b1")
	require.Len(t, alerts, 1)
	assert.Equal(t, services.SaturationAlertReason, alerts[0].ReportReason)
	book, err = f.st.GetBook(f.ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, models.BookStatusAlert, book.Status)

	f.file(t, models.TargetTypeBook, "b1", "spam")
	assert.Len(t, f.openAlerts(t, "b1"), 1)
}

func TestEscalation_BookRealertsAfterResolution(t *testing.T) {
	f := newFixture(t)
	storetest.SeedUser(t, f.st, "author", "author")
	storetest.SeedBook(t, f.st, "b1", "author")

	for i := 0; i < 5; i++ {
		f.file(t, models.TargetTypeBook, "b1", "spam")
	}
	alerts := f.openAlerts(t, "b1")
	require.Len(t, alerts, 1)

	_, err := f.svc.ResolveAlert(f.ctx, alerts[0].ID, &dto.ResolveAlertRequest{Status: models.AlertStatusRestored})
	require.NoError(t, err)
	assert.Empty(t, f.openAlerts(t, "b1"))

	f.file(t, models.TargetTypeBook, "b1", "spam")
	assert.Len(t, f.openAlerts(t, "b1"), 1)

	all, err := f.svc.ListAlertsByBook(f.ctx, "b1")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestEscalation_BookConcurrentReportsOpenOneAlert(t *testing.T) {
	f := newFixture(t)
	storetest.SeedUser(t, f.st, "author", "author")
	storetest.SeedBook(t, f.st, "b1", "author")

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.FileReport(f.ctx, &dto.CreateReportRequest{
				ReporterID: "reporter",
				TargetID:   "b1",
				TargetType: models.TargetTypeBook,
				Reason:     "spam",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	all, err := f.svc.ListAlertsByBook(f.ctx, "b1")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestEscalation_CommentStrike(t *testing.T) {
	f := newFixture(t)
	storetest.SeedUser(t, f.st, "author", "author")
	storetest.SeedUser(t, f.st, "commenter", "commenter")
	storetest.SeedBook(t, f.st, "b1", "author")
	storetest.SeedComment(t, f.st, "c1", "commenter", "b1")

	f.file(t, models.TargetTypeComment, "c1", "spam")
	strikes, err := f.svc.ListStrikesByUser(f.ctx, "commenter")
	require.NoError(t, err)
	assert.Empty(t, strikes)

	f.file(t, models.TargetTypeComment, "c1", "Ofensivo")
	f.file(t, models.TargetTypeComment, "c1", " LENGUAJE INAPROPIADO ")

	strikes, err = f.svc.ListStrikesByUser(f.ctx, "commenter")
	require.NoError(t, err)
	require.Len(t, strikes, 2)
	for _, s := range strikes {
		assert.Equal(t, 1, s.StrikeCount)
		assert.True(t, s.IsActive)
	}
	assert.ElementsMatch(t, []string{"Ofensivo", "LENGUAJE INAPROPIADO"}, []string{strikes[0].Reason, strikes[1].Reason})

	reporterStrikes, err := f.svc.ListStrikesByUser(f.ctx, "reporter")
	require.NoError(t, err)
	assert.Empty(t, reporterStrikes)
}

func TestEscalation_NameReports(t *testing.T) {
	f := newFixture(t)
	storetest.SeedUser(t, f.st, "u1", "badname")

	f.file(t, models.TargetTypeUser, "u1", "nombre inapropiado")
	f.file(t, models.TargetTypeUser, "u1", "spam")
	f.file(t, models.TargetTypeUser, "u1", "Nombre Inapropiado")

	user, err := f.st.GetUser(f.ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusActive, user.Status)
	assert.Nil(t, user.NameChangeDeadline)

	third := f.file(t, models.TargetTypeUser, "u1", " nombre INAPROPIADO")

	user, err = f.st.GetUser(f.ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusRenameRequired, user.Status)
	assert.True(t, user.ReportedForName)
	require.NotNil(t, user.NameChangeDeadline)
	assert.WithinDuration(t, third.CreatedAt.Add(7*24*time.Hour), *user.NameChangeDeadline, 2*time.Second)
	firstDeadline := *user.NameChangeDeadline

	f.file(t, models.TargetTypeUser, "u1", "nombre inapropiado")
	user, err = f.st.GetUser(f.ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, user.NameChangeDeadline)
	assert.True(t, firstDeadline.Equal(*user.NameChangeDeadline))
}

func TestEscalation_NameReportsOverrideSuspension(t *testing.T) {
	f := newFixture(t)
	storetest.SeedUser(t, f.st, "u1", "badname")
	require.NoError(t, f.st.UpdateUserModeration(f.ctx, "u1", store.UserModeration{Status: models.UserStatusSuspended}))

	for i := 0; i < 3; i++ {
		f.file(t, models.TargetTypeUser, "u1", "nombre inapropiado")
	}

	user, err := f.st.GetUser(f.ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusRenameRequired, user.Status)
}

func TestEscalation_CustomRules(t *testing.T) {
	st, _ := storetest.NewSQLite(t)
	storetest.SeedUser(t, st, "reporter", "reporter")
	storetest.SeedUser(t, st, "author", "author")
	storetest.SeedBook(t, st, "b1", "author")

	svc := services.NewModerationService(st, lock.NewLocal(), services.WithRules(services.Rules{
		BookAlertThreshold:  2,
		NameReportThreshold: 1,
		RenameGracePeriod:   time.Hour,
	}))
	for i := 0; i < 2; i++ {
		_, err := svc.FileReport(context.Background(), &dto.CreateReportRequest{
			ReporterID: "reporter", TargetID: "b1", TargetType: models.TargetTypeBook, Reason: "spam",
		})
		require.NoError(t, err)
	}

	alerts, err := svc.ListAlertsByBook(context.Background(), "b1")
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
}

// failingBookStore fails the book suppression step of escalation.
type failingBookStore struct {
	store.Store
}

func (failingBookStore) UpdateBookStatus(context.Context, string, string) error {
	return errors.New("write timeout")
}

func TestFileReport_EscalationFailureKeepsReport(t *testing.T) {
	st, _ := storetest.NewSQLite(t)
	storetest.SeedUser(t, st, "reporter", "reporter")
	storetest.SeedUser(t, st, "author", "author")
	storetest.SeedBook(t, st, "b1", "author")
	for i := 0; i < 4; i++ {
		storetest.SeedReport(t, st, fmt.Sprintf("seed-%d", i), "reporter", models.TargetTypeBook, "b1", "spam")
	}

	svc := services.NewModerationService(failingBookStore{st}, lock.NewLocal())
	report, err := svc.FileReport(context.Background(), &dto.CreateReportRequest{
		ReporterID: "reporter", TargetID: "b1", TargetType: models.TargetTypeBook, Reason: "spam",
	})
	require.Error(t, err)
	require.NotNil(t, report)

	var escErr *services.EscalationError
	require.ErrorAs(t, err, &escErr)
	assert.Equal(t, report.ID, escErr.ReportID)
	assert.Equal(t, services.RuleBookSaturation, escErr.Rule)

	_, err = st.GetReport(context.Background(), report.ID)
	assert.NoError(t, err)
}

func TestUpdateReportStatus(t *testing.T) {
	f := newFixture(t)
	storetest.SeedUser(t, f.st, "u1", "someone")
	report := f.file(t, models.TargetTypeUser, "u1", "spam")

	updated, err := f.svc.UpdateReportStatus(f.ctx, report.ID, &dto.UpdateReportStatusRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusReviewed, updated.Status)
	assert.Nil(t, updated.AdminID)

	admin := "admin-7"
	updated, err = f.svc.UpdateReportStatus(f.ctx, report.ID, &dto.UpdateReportStatusRequest{Status: "dismissed", AdminID: &admin})
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusDismissed, updated.Status)
	require.NotNil(t, updated.AdminID)
	assert.Equal(t, admin, *updated.AdminID)

	updated, err = f.svc.UpdateReportStatus(f.ctx, report.ID, &dto.UpdateReportStatusRequest{Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusPending, updated.Status)

	_, err = f.svc.UpdateReportStatus(f.ctx, report.ID, &dto.UpdateReportStatusRequest{Status: "archived"})
	assert.ErrorIs(t, err, services.ErrInvalidReportStatus)

	_, err = f.svc.UpdateReportStatus(f.ctx, "missing", &dto.UpdateReportStatusRequest{Status: "reviewed"})
	assert.ErrorIs(t, err, services.ErrReportNotFound)
}

func TestListReports(t *testing.T) {
	f := newFixture(t)
	storetest.SeedUser(t, f.st, "u1", "one")
	storetest.SeedUser(t, f.st, "u2", "two")

	first := f.file(t, models.TargetTypeUser, "u1", "spam")
	f.file(t, models.TargetTypeUser, "u2", "spam")
	last := f.file(t, models.TargetTypeUser, "u1", "acoso")

	all, err := f.svc.ListReports(f.ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byTarget, err := f.svc.ListReportsByTarget(f.ctx, "u1")
	require.NoError(t, err)
	require.Len(t, byTarget, 2)
	assert.Equal(t, last.ID, byTarget[0].ID)
	assert.Equal(t, first.ID, byTarget[1].ID)

	none, err := f.svc.ListReportsByTarget(f.ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSearchReports(t *testing.T) {
	f := newFixture(t)
	storetest.SeedUser(t, f.st, "u1", "one")
	for i := 0; i < 3; i++ {
		f.file(t, models.TargetTypeUser, "u1", "spam")
	}
	reviewed := f.file(t, models.TargetTypeUser, "u1", "spam")
	_, err := f.svc.UpdateReportStatus(f.ctx, reviewed.ID, &dto.UpdateReportStatusRequest{Status: "reviewed"})
	require.NoError(t, err)

	page, err := f.svc.SearchReports(f.ctx, dto.ReportQuery{Status: "pending", Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Len(t, page.Reports, 2)
	assert.Equal(t, 2, page.Limit)

	page, err = f.svc.SearchReports(f.ctx, dto.ReportQuery{Status: "pending", Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Len(t, page.Reports, 1)
	assert.Equal(t, 2, page.Offset)

	page, err = f.svc.SearchReports(f.ctx, dto.ReportQuery{Limit: 500, Offset: -3})
	require.NoError(t, err)
	assert.Equal(t, 100, page.Limit)
	assert.Equal(t, 0, page.Offset)

	page, err = f.svc.SearchReports(f.ctx, dto.ReportQuery{})
	require.NoError(t, err)
	assert.Equal(t, 20, page.Limit)

	_, err = f.svc.SearchReports(f.ctx, dto.ReportQuery{Status: "closed"})
	assert.ErrorIs(t, err, services.ErrInvalidReportStatus)
	_, err = f.svc.SearchReports(f.ctx, dto.ReportQuery{TargetType: "chapter"})
	assert.ErrorIs(t, err, services.ErrInvalidTargetType)
}

func TestCreateAlert(t *testing.T) {
	f := newFixture(t)
	storetest.SeedUser(t, f.st, "author", "author")
	storetest.SeedBook(t, f.st, "b1", "author")

	alert, err := f.svc.CreateAlert(f.ctx, &dto.CreateAlertRequest{BookID: "b1", ReportReason: "copyright"})
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusOpen, alert.Status)
	assert.Equal(t, "copyright", alert.ReportReason)

	book, err := f.st.GetBook(f.ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, models.BookStatusPublished, book.Status)

	_, err = f.svc.CreateAlert(f.ctx, &dto.CreateAlertRequest{BookID: "b1"})
	assert.ErrorIs(t, err, services.ErrAlertAlreadyOpen)
	assert.ErrorIs(t, err, services.ErrConflict)

	_, err = f.svc.CreateAlert(f.ctx, &dto.CreateAlertRequest{BookID: "missing"})
	assert.ErrorIs(t, err, services.ErrBookNotFound)
}

func TestResolveAlert(t *testing.T) {
	f := newFixture(t)
	storetest.SeedUser(t, f.st, "author", "author")
	storetest.SeedBook(t, f.st, "b1", "author")
	for i := 0; i < 5; i++ {
		f.file(t, models.TargetTypeBook, "b1", "spam")
	}
	alert := f.openAlerts(t, "b1")[0]

	_, err := f.svc.ResolveAlert(f.ctx, alert.ID, &dto.ResolveAlertRequest{Status: "ignored"})
	assert.ErrorIs(t, err, services.ErrInvalidAlertStatus)
	_, err = f.svc.ResolveAlert(f.ctx, "missing", &dto.ResolveAlertRequest{})
	assert.ErrorIs(t, err, services.ErrAlertNotFound)

	resolved, err := f.svc.ResolveAlert(f.ctx, alert.ID, &dto.ResolveAlertRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusRestored, resolved.Status)

	book, err := f.st.GetBook(f.ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, models.BookStatusActive, book.Status)
}

func TestResolveAlert_Statuses(t *testing.T) {
	tests := []struct {
		name      string
		status    string
		wantAlert string
		wantBook  string
	}{
		{"removed", "removed", models.AlertStatusRemoved, models.BookStatusActive},
		{"legacy resolved", "resolved", models.AlertStatusRestored, models.BookStatusActive},
		{"still open", "alert", models.AlertStatusOpen, models.BookStatusAlert},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			storetest.SeedUser(t, f.st, "author", "author")
			storetest.SeedBook(t, f.st, "b1", "author")
			for i := 0; i < 5; i++ {
				f.file(t, models.TargetTypeBook, "b1", "spam")
			}
			alert := f.openAlerts(t, "b1")[0]

			resolved, err := f.svc.ResolveAlert(f.ctx, alert.ID, &dto.ResolveAlertRequest{Status: tt.status})
			require.NoError(t, err)
			assert.Equal(t, tt.wantAlert, resolved.Status)

			book, err := f.st.GetBook(f.ctx, "b1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantBook, book.Status)
		})
	}
}

func TestResolveAlert_Repeated(t *testing.T) {
	f := newFixture(t)
	storetest.SeedUser(t, f.st, "author", "author")
	storetest.SeedBook(t, f.st, "b1", "author")
	for i := 0; i < 5; i++ {
		f.file(t, models.TargetTypeBook, "b1", "spam")
	}
	first := f.openAlerts(t, "b1")[0]

	for i := 0; i < 2; i++ {
		resolved, err := f.svc.ResolveAlert(f.ctx, first.ID, &dto.ResolveAlertRequest{Status: "restored"})
		require.NoError(t, err)
		assert.Equal(t, models.AlertStatusRestored, resolved.Status)

		book, err := f.st.GetBook(f.ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, models.BookStatusActive, book.Status)
	}

	// The next report re-alerts the book; closing the old alert again still restores it.
	f.file(t, models.TargetTypeBook, "b1", "spam")
	require.Len(t, f.openAlerts(t, "b1"), 1)
	book, err := f.st.GetBook(f.ctx, "b1")
	require.NoError(t, err)
	require.Equal(t, models.BookStatusAlert, book.Status)

	resolved, err := f.svc.ResolveAlert(f.ctx, first.ID, &dto.ResolveAlertRequest{Status: "removed"})
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusRemoved, resolved.Status)

	book, err = f.st.GetBook(f.ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, models.BookStatusActive, book.Status)
}

func TestResolveAlert_ReopenConflicts(t *testing.T) {
	f := newFixture(t)
	storetest.SeedUser(t, f.st, "author", "author")
	storetest.SeedBook(t, f.st, "b1", "author")

	first, err := f.svc.CreateAlert(f.ctx, &dto.CreateAlertRequest{BookID: "b1", ReportReason: "first"})
	require.NoError(t, err)
	_, err = f.svc.ResolveAlert(f.ctx, first.ID, &dto.ResolveAlertRequest{Status: "removed"})
	require.NoError(t, err)
	_, err = f.svc.CreateAlert(f.ctx, &dto.CreateAlertRequest{BookID: "b1", ReportReason: "second"})
	require.NoError(t, err)

	_, err = f.svc.ResolveAlert(f.ctx, first.ID, &dto.ResolveAlertRequest{Status: "alert"})
	assert.ErrorIs(t, err, services.ErrAlertAlreadyOpen)
}

func TestListAlertsByStatus(t *testing.T) {
	f := newFixture(t)
	storetest.SeedUser(t, f.st, "author", "author")
	storetest.SeedBook(t, f.st, "b1", "author")
	storetest.SeedBook(t, f.st, "b2", "author")

	a1, err := f.svc.CreateAlert(f.ctx, &dto.CreateAlertRequest{BookID: "b1"})
	require.NoError(t, err)
	_, err = f.svc.CreateAlert(f.ctx, &dto.CreateAlertRequest{BookID: "b2"})
	require.NoError(t, err)
	_, err = f.svc.ResolveAlert(f.ctx, a1.ID, &dto.ResolveAlertRequest{Status: "removed"})
	require.NoError(t, err)

	open, err := f.svc.ListAlertsByStatus(f.ctx, models.AlertStatusOpen)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "b2", open[0].BookID)

	all, err := f.svc.ListAlertsByStatus(f.ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.svc.ListAlertsByStatus(f.ctx, "bogus")
	assert.ErrorIs(t, err, services.ErrInvalidAlertStatus)
}

func TestAddStrike(t *testing.T) {
	f := newFixture(t)
	storetest.SeedUser(t, f.st, "u1", "someone")

	for i := 0; i < 2; i++ {
		strike, err := f.svc.AddStrike(f.ctx, &dto.CreateStrikeRequest{UserID: "u1", Reason: "acoso"})
		require.NoError(t, err)
		assert.Equal(t, 1, strike.StrikeCount)
		assert.True(t, strike.IsActive)
	}

	strikes, err := f.svc.ListStrikesByUser(f.ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, strikes, 2)

	_, err = f.svc.AddStrike(f.ctx, &dto.CreateStrikeRequest{UserID: "ghost", Reason: "acoso"})
	assert.ErrorIs(t, err, services.ErrUserNotFound)
	_, err = f.svc.AddStrike(f.ctx, &dto.CreateStrikeRequest{UserID: "u1", Reason: ""})
	assert.ErrorIs(t, err, services.ErrReasonRequired)

	user, err := f.st.GetUser(f.ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusActive, user.Status)
}

// Scenario from the moderation runbook: a book collects reports until it is
// suppressed, then a moderator restores it.
func TestModerationScenario(t *testing.T) {
	f := newFixture(t)
	storetest.SeedUser(t, f.st, "author", "author")
	storetest.SeedUser(t, f.st, "commenter", "troll")
	storetest.SeedBook(t, f.st, "b1", "author")
	storetest.SeedComment(t, f.st, "c1", "commenter", "b1")

	for i := 0; i < 5; i++ {
		f.file(t, models.TargetTypeBook, "b1", "contenido")
	}
	f.file(t, models.TargetTypeComment, "c1", "acoso")
	for i := 0; i < 3; i++ {
		f.file(t, models.TargetTypeUser, "commenter", "nombre inapropiado")
	}

	book, err := f.st.GetBook(f.ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, models.BookStatusAlert, book.Status)

	strikes, err := f.svc.ListStrikesByUser(f.ctx, "commenter")
	require.NoError(t, err)
	assert.Len(t, strikes, 1)

	user, err := f.st.GetUser(f.ctx, "commenter")
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusRenameRequired, user.Status)

	alert := f.openAlerts(t, "b1")[0]
	_, err = f.svc.ResolveAlert(f.ctx, alert.ID, &dto.ResolveAlertRequest{Status: "restored"})
	require.NoError(t, err)

	book, err = f.st.GetBook(f.ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, models.BookStatusActive, book.Status)
}
