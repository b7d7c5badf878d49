package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/thelibrary/moderation-backend/internal/dto"
	"github.com/thelibrary/moderation-backend/internal/lock"
	"github.com/thelibrary/moderation-backend/internal/models"
	"github.com/thelibrary/moderation-backend/internal/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ModerationService owns the report ledger, the escalation engine and the
// alert and strike registries.
type ModerationService struct {
	store     store.Store
	locker    lock.Locker
	rules     Rules
	now       func() time.Time
	sanitizer *bluemonday.Policy
	targets   map[string]targetLookup
}

type targetLookup func(ctx context.Context, id string) error

type Option func(*ModerationService)

func WithRules(r Rules) Option {
	return func(s *ModerationService) { s.rules = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *ModerationService) { s.now = now }
}

func NewModerationService(st store.Store, locker lock.Locker, opts ...Option) *ModerationService {
	s := &ModerationService{
		store:     st,
		locker:    locker,
		rules:     DefaultRules(),
		now:       func() time.Time { return time.Now().UTC() },
		sanitizer: bluemonday.StrictPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.targets = map[string]targetLookup{
		models.TargetTypeUser: func(ctx context.Context, id string) error {
			_, err := st.GetUser(ctx, id)
			return err
		},
		models.TargetTypeBook: func(ctx context.Context, id string) error {
			_, err := st.GetBook(ctx, id)
			return err
		},
		models.TargetTypeComment: func(ctx context.Context, id string) error {
			_, err := st.GetComment(ctx, id)
			return err
		},
	}
	return s
}

// ---------- Reports ----------

// FileReport validates and persists a report, then applies escalation rules before
// returning. When escalation fails the persisted report is returned together with an
// *EscalationError.
func (s *ModerationService) FileReport(ctx context.Context, req *dto.CreateReportRequest) (*models.Report, error) {
	lookupTarget, ok := s.targets[req.TargetType]
	if !ok {
		return nil, ErrInvalidTargetType
	}
	reason := s.cleanText(req.Reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	if _, err := s.store.GetUser(ctx, req.ReporterID); err != nil {
		return nil, notFoundAs(err, ErrReporterNotFound, "load reporter")
	}
	if err := lookupTarget(ctx, req.TargetID); err != nil {
		return nil, notFoundAs(err, ErrTargetNotFound, "load target")
	}

	unlock, err := s.locker.Lock(ctx, lock.TargetKey(req.TargetType, req.TargetID))
	if err != nil {
		return nil, fmt.Errorf("lock target: %w", err)
	}
	defer unlock()

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.NewString()
	}
	now := s.now()
	report := &models.Report{
		ID:         id,
		ReporterID: req.ReporterID,
		TargetID:   req.TargetID,
		TargetType: req.TargetType,
		Reason:     reason,
		Status:     models.ReportStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.InsertReport(ctx, report); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrReportExists
		}
		return nil, fmt.Errorf("insert report: %w", err)
	}

	outcome, err := s.escalate(ctx, report)
	if err != nil {
		return report, err
	}
	if outcome.Applied() {
		slog.InfoContext(ctx, "report escalated",
			"action", string(outcome.Rule),
			"report_id", report.ID,
			"target_id", report.TargetID,
			"target_type", report.TargetType,
			"alert_created", outcome.Alert != nil,
			"strike_created", outcome.Strike != nil,
			"user_flagged", outcome.UserFlagged,
		)
	}
	return report, nil
}

func (s *ModerationService) ListReports(ctx context.Context) ([]models.Report, error) {
	return s.store.FindReports(ctx, store.ReportFilter{})
}

func (s *ModerationService) ListReportsByTarget(ctx context.Context, targetID string) ([]models.Report, error) {
	return s.store.FindReports(ctx, store.ReportFilter{TargetID: targetID})
}

// SearchReports is the paginated listing used by the admin panel. The page
// carries the limit and offset actually applied.
func (s *ModerationService) SearchReports(ctx context.Context, q dto.ReportQuery) (*dto.ReportListResponse, error) {
	if q.Status != "" && !models.IsValidReportStatus(q.Status) {
		return nil, ErrInvalidReportStatus
	}
	if q.TargetType != "" && !models.IsValidTargetType(q.TargetType) {
		return nil, ErrInvalidTargetType
	}

	filter := store.ReportFilter{Status: q.Status, TargetType: q.TargetType}
	total, err := s.store.CountReports(ctx, filter)
	if err != nil {
		return nil, err
	}

	filter.Limit = clampLimit(q.Limit)
	if q.Offset > 0 {
		filter.Offset = q.Offset
	}
	reports, err := s.store.FindReports(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &dto.ReportListResponse{
		Reports: reports,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}

// UpdateReportStatus moves a report to any status in the enum, regardless of the
// current one. An empty status means "reviewed".
func (s *ModerationService) UpdateReportStatus(ctx context.Context, reportID string, req *dto.UpdateReportStatusRequest) (*models.Report, error) {
	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = models.ReportStatusReviewed
	}
	if !models.IsValidReportStatus(status) {
		return nil, ErrInvalidReportStatus
	}

	var adminID *string
	if req.AdminID != nil && strings.TrimSpace(*req.AdminID) != "" {
		id := strings.TrimSpace(*req.AdminID)
		adminID = &id
	}

	if err := s.store.UpdateReportStatus(ctx, reportID, status, adminID); err != nil {
		return nil, notFoundAs(err, ErrReportNotFound, "update report")
	}
	report, err := s.store.GetReport(ctx, reportID)
	if err != nil {
		return nil, notFoundAs(err, ErrReportNotFound, "load report")
	}
	return report, nil
}

// ---------- Alerts ----------

// CreateAlert opens an alert on a book by hand. The book's own status is left alone.
func (s *ModerationService) CreateAlert(ctx context.Context, req *dto.CreateAlertRequest) (*models.ReportAlert, error) {
	if _, err := s.store.GetBook(ctx, req.BookID); err != nil {
		return nil, notFoundAs(err, ErrBookNotFound, "load book")
	}

	unlock, err := s.locker.Lock(ctx, lock.TargetKey(models.TargetTypeBook, req.BookID))
	if err != nil {
		return nil, fmt.Errorf("lock target: %w", err)
	}
	defer unlock()

	open, err := s.store.FindAlerts(ctx, store.AlertFilter{BookID: req.BookID, Status: models.AlertStatusOpen})
	if err != nil {
		return nil, err
	}
	if len(open) > 0 {
		return nil, ErrAlertAlreadyOpen
	}

	now := s.now()
	alert := &models.ReportAlert{
		ID:           uuid.NewString(),
		BookID:       req.BookID,
		ReportReason: s.cleanText(req.ReportReason),
		Status:       models.AlertStatusOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.InsertAlert(ctx, alert); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrAlertAlreadyOpen
		}
		return nil, fmt.Errorf("insert alert: %w", err)
	}
	return alert, nil
}

func (s *ModerationService) ListAlertsByBook(ctx context.Context, bookID string) ([]models.ReportAlert, error) {
	return s.store.FindAlerts(ctx, store.AlertFilter{BookID: bookID})
}

func (s *ModerationService) ListAlertsByStatus(ctx context.Context, status string) ([]models.ReportAlert, error) {
	if status != "" && !models.IsValidAlertStatus(status) {
		return nil, ErrInvalidAlertStatus
	}
	return s.store.FindAlerts(ctx, store.AlertFilter{Status: status})
}

// ResolveAlert sets the alert's status. Closing any alert of a book that is
// currently suppressed puts the book back to active, even if a different alert
// was the one that suppressed it.
func (s *ModerationService) ResolveAlert(ctx context.Context, alertID string, req *dto.ResolveAlertRequest) (*models.ReportAlert, error) {
	status := normalizeAlertStatus(req.Status)
	if !models.IsValidAlertStatus(status) {
		return nil, ErrInvalidAlertStatus
	}

	alert, err := s.store.GetAlert(ctx, alertID)
	if err != nil {
		return nil, notFoundAs(err, ErrAlertNotFound, "load alert")
	}

	unlock, err := s.locker.Lock(ctx, lock.TargetKey(models.TargetTypeBook, alert.BookID))
	if err != nil {
		return nil, fmt.Errorf("lock target: %w", err)
	}
	defer unlock()

	if status == models.AlertStatusOpen && alert.Status != models.AlertStatusOpen {
		open, err := s.store.FindAlerts(ctx, store.AlertFilter{BookID: alert.BookID, Status: models.AlertStatusOpen})
		if err != nil {
			return nil, err
		}
		if len(open) > 0 {
			return nil, ErrAlertAlreadyOpen
		}
	}

	if err := s.store.UpdateAlertStatus(ctx, alertID, status); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrAlertAlreadyOpen
		}
		return nil, notFoundAs(err, ErrAlertNotFound, "update alert")
	}

	if models.IsClosedAlertStatus(status) {
		if err := s.restoreBook(ctx, alert.BookID); err != nil {
			return nil, err
		}
	}

	updated, err := s.store.GetAlert(ctx, alertID)
	if err != nil {
		return nil, notFoundAs(err, ErrAlertNotFound, "load alert")
	}
	return updated, nil
}

func (s *ModerationService) restoreBook(ctx context.Context, bookID string) error {
	book, err := s.store.GetBook(ctx, bookID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load book: %w", err)
	}
	if book.Status != models.BookStatusAlert {
		return nil
	}
	if err := s.store.UpdateBookStatus(ctx, bookID, models.BookStatusActive); err != nil {
		return fmt.Errorf("restore book: %w", err)
	}
	return nil
}

// "resolved" is what older clients send; it means the book is restored.
func normalizeAlertStatus(status string) string {
	status = strings.TrimSpace(status)
	if status == "" || status == "resolved" {
		return models.AlertStatusRestored
	}
	return status
}

// ---------- Strikes ----------

func (s *ModerationService) AddStrike(ctx context.Context, req *dto.CreateStrikeRequest) (*models.UserStrike, error) {
	reason := s.cleanText(req.Reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	if _, err := s.store.GetUser(ctx, req.UserID); err != nil {
		return nil, notFoundAs(err, ErrUserNotFound, "load user")
	}
	return s.insertStrike(ctx, req.UserID, reason)
}

func (s *ModerationService) ListStrikesByUser(ctx context.Context, userID string) ([]models.UserStrike, error) {
	return s.store.FindStrikes(ctx, store.StrikeFilter{UserID: userID})
}

func (s *ModerationService) insertStrike(ctx context.Context, userID, reason string) (*models.UserStrike, error) {
	now := s.now()
	strike := &models.UserStrike{
		ID:          uuid.NewString(),
		UserID:      userID,
		Reason:      reason,
		StrikeCount: 1,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.InsertStrike(ctx, strike); err != nil {
		return nil, fmt.Errorf("insert strike: %w", err)
	}
	return strike, nil
}

// cleanText strips markup from free text and trims it.
func (s *ModerationService) cleanText(text string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(text)))
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}
