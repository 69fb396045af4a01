package notification

import (
	"context"
	"errors"
)

// Common errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotRecipient         = errors.New("not the recipient of this notification")
)

// Service handles notification business logic. It satisfies the settlement
// package's Notifier interface.
type Service struct {
	repo *Repository
}

// NewService creates a new notification service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Notify records a message for a member.
func (s *Service) Notify(ctx context.Context, groupID, memberID int64, kind, message string) error {
	_, err := s.repo.Create(ctx, groupID, memberID, kind, message)
	return err
}

// ListByMember retrieves a member's notifications with pagination.
func (s *Service) ListByMember(ctx context.Context, memberID int64, page, perPage int, unreadOnly bool) ([]*Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListByMember(ctx, memberID, perPage, offset, unreadOnly)
}

// MarkAsRead marks a notification as read. Only the recipient may do so.
func (s *Service) MarkAsRead(ctx context.Context, id, memberID int64) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n == nil {
		return ErrNotificationNotFound
	}
	if n.MemberID != memberID {
		return ErrNotRecipient
	}
	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks all of a member's notifications as read.
func (s *Service) MarkAllAsRead(ctx context.Context, memberID int64) error {
	return s.repo.MarkAllAsRead(ctx, memberID)
}

// UnreadCount returns the count of a member's unread notifications.
func (s *Service) UnreadCount(ctx context.Context, memberID int64) (int, error) {
	return s.repo.UnreadCount(ctx, memberID)
}
