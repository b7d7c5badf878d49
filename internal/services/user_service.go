package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/thelibrary/moderation-backend/internal/lock"
	"github.com/thelibrary/moderation-backend/internal/models"
	"github.com/thelibrary/moderation-backend/internal/store"
)

// UserService covers the part of the account lifecycle that moderation depends on.
type UserService struct {
	store  store.Store
	locker lock.Locker
}

func NewUserService(st store.Store, locker lock.Locker) *UserService {
	return &UserService{store: st, locker: locker}
}

// RenameUser changes a username. A real change clears a pending forced rename;
// other statuses such as suspended are kept.
func (s *UserService) RenameUser(ctx context.Context, userID, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUsernameRequired
	}

	// Same key as name escalation, so a rename never races a flag.
	unlock, err := s.locker.Lock(ctx, lock.TargetKey(models.TargetTypeUser, userID))
	if err != nil {
		return nil, fmt.Errorf("lock target: %w", err)
	}
	defer unlock()

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound, "load user")
	}

	m := store.UserModeration{
		Status:             user.Status,
		NameChangeDeadline: user.NameChangeDeadline,
		ReportedForName:    user.ReportedForName,
	}
	if username != user.Username && user.Status == models.UserStatusRenameRequired {
		m.Status = models.UserStatusActive
		m.NameChangeDeadline = nil
	}

	if err := s.store.UpdateUsername(ctx, userID, username, m); err != nil {
		return nil, notFoundAs(err, ErrUserNotFound, "update user")
	}
	return s.store.GetUser(ctx, userID)
}
