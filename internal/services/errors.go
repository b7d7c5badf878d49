package services

import (
	"errors"
	"fmt"

	"github.com/thelibrary/moderation-backend/internal/store"
)

// Error kinds. Every specific error below wraps exactly one of them so callers can
// map failures with errors.Is without knowing each case.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
)

var (
	ErrReporterNotFound = fmt.Errorf("reporter %w", ErrNotFound)
	ErrTargetNotFound   = fmt.Errorf("target %w", ErrNotFound)
	ErrReportNotFound   = fmt.Errorf("report %w", ErrNotFound)
	ErrBookNotFound     = fmt.Errorf("book %w", ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrAlertNotFound    = fmt.Errorf("alert %w", ErrNotFound)

	ErrInvalidTargetType   = fmt.Errorf("%w: target_type must be user, book, or comment", ErrInvalidArgument)
	ErrInvalidReportStatus = fmt.Errorf("%w: status must be pending, reviewed, or dismissed", ErrInvalidArgument)
	ErrInvalidAlertStatus  = fmt.Errorf("%w: status must be alert, removed, or restored", ErrInvalidArgument)
	ErrReasonRequired      = fmt.Errorf("%w: reason is required", ErrInvalidArgument)
	ErrUsernameRequired    = fmt.Errorf("%w: username is required", ErrInvalidArgument)

	ErrReportExists     = fmt.Errorf("%w: report id already exists", ErrConflict)
	ErrAlertAlreadyOpen = fmt.Errorf("%w: book already has an open alert", ErrConflict)
)

// EscalationError reports a failure in the side effects of a report that was
// already persisted. The report is not rolled back.
type EscalationError struct {
	ReportID string
	Rule     Rule
	Err      error
}

func (e *EscalationError) Error() string {
	return fmt.Sprintf("escalation %s for report %s: %v", e.Rule, e.ReportID, e.Err)
}

func (e *EscalationError) Unwrap() error { return e.Err }

// notFoundAs maps store.ErrNotFound to the given domain error and wraps anything else.
func notFoundAs(err, notFound error, op string) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
