package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/thelibrary/moderation-backend/internal/lock"
	"github.com/thelibrary/moderation-backend/internal/models"
	"github.com/thelibrary/moderation-backend/internal/store"
)

// ReconcileReport lists the targets a reconciliation pass repaired, or would
// repair when DryRun is set.
type ReconcileReport struct {
	BooksAlerted    []string `json:"books_alerted"`
	BooksSuppressed []string `json:"books_suppressed"`
	UsersFlagged    []string `json:"users_flagged"`
	DryRun          bool     `json:"dry_run"`
}

type bookRepair int

const (
	bookUntouched bookRepair = iota
	bookAlerted
	bookSuppressed
)

// Reconcile re-applies the idempotent escalation rules to every target, repairing
// side effects that a failed escalation left behind. Strikes are not repaired
// since a second pass cannot tell a missing strike from one never earned.
func (s *ModerationService) Reconcile(ctx context.Context, dryRun bool) (*ReconcileReport, error) {
	result := &ReconcileReport{
		BooksAlerted:    make([]string, 0),
		BooksSuppressed: make([]string, 0),
		UsersFlagged:    make([]string, 0),
		DryRun:          dryRun,
	}

	if err := s.reconcileBooks(ctx, result); err != nil {
		return result, err
	}
	if err := s.reconcileUsers(ctx, result); err != nil {
		return result, err
	}

	slog.InfoContext(ctx, "reconcile finished",
		"action", "reconcile",
		"dry_run", dryRun,
		"books_alerted", len(result.BooksAlerted),
		"books_suppressed", len(result.BooksSuppressed),
		"users_flagged", len(result.UsersFlagged),
	)
	return result, nil
}

func (s *ModerationService) reconcileBooks(ctx context.Context, result *ReconcileReport) error {
	counts, err := s.store.CountReportsByTarget(ctx, store.ReportFilter{TargetType: models.TargetTypeBook})
	if err != nil {
		return err
	}

	for _, c := range counts {
		if c.Total < int64(s.rules.BookAlertThreshold) {
			continue
		}
		repair, err := s.reconcileBook(ctx, c.TargetID, result.DryRun)
		if err != nil {
			return fmt.Errorf("reconcile book %s: %w", c.TargetID, err)
		}
		switch repair {
		case bookAlerted:
			result.BooksAlerted = append(result.BooksAlerted, c.TargetID)
		case bookSuppressed:
			result.BooksSuppressed = append(result.BooksSuppressed, c.TargetID)
		}
	}
	return nil
}

// reconcileBook opens an alert for books that never had one, and suppresses a
// book whose saturation alert is open while the book itself is still visible.
// A book with only closed alerts was reviewed by a moderator and stays as they
// left it.
func (s *ModerationService) reconcileBook(ctx context.Context, bookID string, dryRun bool) (bookRepair, error) {
	unlock, err := s.locker.Lock(ctx, lock.TargetKey(models.TargetTypeBook, bookID))
	if err != nil {
		return bookUntouched, err
	}
	defer unlock()

	// Reports against deleted books are left alone.
	book, err := s.store.GetBook(ctx, bookID)
	if errors.Is(err, store.ErrNotFound) {
		return bookUntouched, nil
	}
	if err != nil {
		return bookUntouched, fmt.Errorf("load book: %w", err)
	}

	alerts, err := s.store.FindAlerts(ctx, store.AlertFilter{BookID: bookID})
	if err != nil {
		return bookUntouched, err
	}
	if len(alerts) > 0 {
		if book.Status == models.BookStatusAlert || !hasOpenSaturationAlert(alerts) {
			return bookUntouched, nil
		}
		if dryRun {
			return bookSuppressed, nil
		}
		if err := s.store.UpdateBookStatus(ctx, bookID, models.BookStatusAlert); err != nil {
			return bookUntouched, fmt.Errorf("suppress book: %w", err)
		}
		return bookSuppressed, nil
	}
	if dryRun {
		return bookAlerted, nil
	}

	alert, err := s.openBookAlert(ctx, bookID)
	if err != nil {
		return bookUntouched, err
	}
	if alert == nil {
		return bookUntouched, nil
	}
	return bookAlerted, nil
}

// Alerts opened by hand leave the book's status alone, so only saturation
// alerts call for suppression.
func hasOpenSaturationAlert(alerts []models.ReportAlert) bool {
	for _, a := range alerts {
		if a.Status == models.AlertStatusOpen && a.ReportReason == SaturationAlertReason {
			return true
		}
	}
	return false
}

func (s *ModerationService) reconcileUsers(ctx context.Context, result *ReconcileReport) error {
	counts, err := s.store.CountReportsByTarget(ctx, store.ReportFilter{
		TargetType: models.TargetTypeUser,
		Reason:     InappropriateNameReason,
	})
	if err != nil {
		return err
	}

	for _, c := range counts {
		if c.Total < int64(s.rules.NameReportThreshold) {
			continue
		}
		flagged, err := s.reconcileUser(ctx, c.TargetID, result.DryRun)
		if err != nil {
			return fmt.Errorf("reconcile user %s: %w", c.TargetID, err)
		}
		if flagged {
			result.UsersFlagged = append(result.UsersFlagged, c.TargetID)
		}
	}
	return nil
}

// reconcileUser skips users already flagged once, so a completed rename is not undone.
func (s *ModerationService) reconcileUser(ctx context.Context, userID string, dryRun bool) (bool, error) {
	unlock, err := s.locker.Lock(ctx, lock.TargetKey(models.TargetTypeUser, userID))
	if err != nil {
		return false, err
	}
	defer unlock()

	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load user: %w", err)
	}
	if user.ReportedForName || user.Status == models.UserStatusRenameRequired {
		return false, nil
	}
	if dryRun {
		return true, nil
	}
	return s.flagForRename(ctx, userID)
}
