package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thelibrary/moderation-backend/internal/config"
	"github.com/thelibrary/moderation-backend/internal/models"
	"github.com/thelibrary/moderation-backend/internal/store"
)

const (
	// SaturationAlertReason is the report_reason of alerts opened by the engine.
	SaturationAlertReason = "Acumulación de reportes"
	// InappropriateNameReason is the report reason that counts toward a forced rename.
	InappropriateNameReason = "nombre inapropiado"
)

// strikeReasons are the comment report reasons that earn the author a strike.
var strikeReasons = map[string]struct{}{
	"ofensivo":             {},
	"acoso":                {},
	"lenguaje inapropiado": {},
}

// Rule names an escalation rule. It is also used as the log action.
type Rule string

const (
	RuleNone           Rule = ""
	RuleBookSaturation Rule = "book_saturation"
	RuleCommentStrike  Rule = "comment_strike"
	RuleNameEscalation Rule = "name_escalation"
)

// Rules holds the tunable escalation parameters.
type Rules struct {
	BookAlertThreshold  int
	NameReportThreshold int
	RenameGracePeriod   time.Duration
}

// RulesFromConfig reads the thresholds and grace period from cfg.
func RulesFromConfig(cfg *config.Config) Rules {
	return Rules{
		BookAlertThreshold:  cfg.BookAlertThreshold,
		NameReportThreshold: cfg.NameReportThreshold,
		RenameGracePeriod:   cfg.RenameGracePeriod,
	}
}

func DefaultRules() Rules {
	return Rules{
		BookAlertThreshold:  5,
		NameReportThreshold: 3,
		RenameGracePeriod:   7 * 24 * time.Hour,
	}
}

// Outcome describes the side effects of escalating one report.
type Outcome struct {
	Rule        Rule
	Alert       *models.ReportAlert
	Strike      *models.UserStrike
	UserFlagged bool
}

// Applied reports whether escalation changed anything.
func (o Outcome) Applied() bool {
	return o.Alert != nil || o.Strike != nil || o.UserFlagged
}

// escalate runs the single rule selected by the report's target type. The
// caller holds the target's lock.
func (s *ModerationService) escalate(ctx context.Context, report *models.Report) (Outcome, error) {
	var (
		outcome Outcome
		err     error
	)
	switch report.TargetType {
	case models.TargetTypeBook:
		outcome, err = s.escalateBook(ctx, report)
	case models.TargetTypeComment:
		outcome, err = s.escalateComment(ctx, report)
	case models.TargetTypeUser:
		outcome, err = s.escalateUserName(ctx, report)
	}
	if err != nil {
		return outcome, &EscalationError{ReportID: report.ID, Rule: outcome.Rule, Err: err}
	}
	return outcome, nil
}

func (s *ModerationService) escalateBook(ctx context.Context, report *models.Report) (Outcome, error) {
	outcome := Outcome{Rule: RuleBookSaturation}

	count, err := s.store.CountReports(ctx, store.ReportFilter{
		TargetID:   report.TargetID,
		TargetType: models.TargetTypeBook,
	})
	if err != nil {
		return outcome, err
	}
	if count < int64(s.rules.BookAlertThreshold) {
		return outcome, nil
	}

	alert, err := s.openBookAlert(ctx, report.TargetID)
	outcome.Alert = alert
	return outcome, err
}

// openBookAlert opens a saturation alert and suppresses the book, unless an
// alert is already open. It returns nil when nothing was created.
func (s *ModerationService) openBookAlert(ctx context.Context, bookID string) (*models.ReportAlert, error) {
	open, err := s.store.FindAlerts(ctx, store.AlertFilter{BookID: bookID, Status: models.AlertStatusOpen})
	if err != nil {
		return nil, err
	}
	if len(open) > 0 {
		return nil, nil
	}

	now := s.now()
	alert := &models.ReportAlert{
		ID:           uuid.NewString(),
		BookID:       bookID,
		ReportReason: SaturationAlertReason,
		Status:       models.AlertStatusOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.InsertAlert(ctx, alert); err != nil {
		// Another instance opened one between the check and the insert.
		if errors.Is(err, store.ErrDuplicate) {
			return nil, nil
		}
		return nil, fmt.Errorf("insert alert: %w", err)
	}
	if err := s.store.UpdateBookStatus(ctx, bookID, models.BookStatusAlert); err != nil {
		return alert, fmt.Errorf("suppress book: %w", err)
	}
	return alert, nil
}

func (s *ModerationService) escalateComment(ctx context.Context, report *models.Report) (Outcome, error) {
	outcome := Outcome{Rule: RuleCommentStrike}

	if _, ok := strikeReasons[normalizeReason(report.Reason)]; !ok {
		return outcome, nil
	}

	comment, err := s.store.GetComment(ctx, report.TargetID)
	if errors.Is(err, store.ErrNotFound) {
		return outcome, nil
	}
	if err != nil {
		return outcome, fmt.Errorf("load comment: %w", err)
	}

	strike, err := s.insertStrike(ctx, comment.UserID, report.Reason)
	if err != nil {
		return outcome, err
	}
	outcome.Strike = strike
	return outcome, nil
}

func (s *ModerationService) escalateUserName(ctx context.Context, report *models.Report) (Outcome, error) {
	outcome := Outcome{Rule: RuleNameEscalation}

	if normalizeReason(report.Reason) != InappropriateNameReason {
		return outcome, nil
	}

	count, err := s.store.CountReports(ctx, store.ReportFilter{
		TargetID:   report.TargetID,
		TargetType: models.TargetTypeUser,
		Reason:     InappropriateNameReason,
	})
	if err != nil {
		return outcome, err
	}
	if count < int64(s.rules.NameReportThreshold) {
		return outcome, nil
	}

	flagged, err := s.flagForRename(ctx, report.TargetID)
	outcome.UserFlagged = flagged
	return outcome, err
}

// flagForRename forces a rename on the user unless one is already required.
// A suspended user is moved to rename_required as well.
func (s *ModerationService) flagForRename(ctx context.Context, userID string) (bool, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("load user: %w", err)
	}
	if user.Status == models.UserStatusRenameRequired {
		return false, nil
	}

	deadline := s.now().Add(s.rules.RenameGracePeriod)
	err = s.store.UpdateUserModeration(ctx, userID, store.UserModeration{
		Status:             models.UserStatusRenameRequired,
		NameChangeDeadline: &deadline,
		ReportedForName:    true,
	})
	if err != nil {
		return false, fmt.Errorf("flag user: %w", err)
	}
	return true, nil
}

func normalizeReason(reason string) string {
	return strings.ToLower(strings.TrimSpace(reason))
}
