package notification

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository handles notification data persistence.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new notification repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new notification.
func (r *Repository) Create(ctx context.Context, groupID, memberID int64, kind, message string) (*Notification, error) {
	query := `
		INSERT INTO notifications (group_id, member_id, kind, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, group_id, member_id, kind, message, is_read, created_at
	`

	n := &Notification{}
	err := r.db.QueryRowContext(ctx, query, groupID, memberID, kind, message).Scan(
		&n.ID, &n.GroupID, &n.MemberID, &n.Kind, &n.Message, &n.IsRead, &n.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return n, nil
}

// GetByID retrieves a notification by its ID. Returns nil when not found.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Notification, error) {
	query := `
		SELECT id, group_id, member_id, kind, message, is_read, created_at
		FROM notifications
		WHERE id = $1
	`

	n := &Notification{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&n.ID, &n.GroupID, &n.MemberID, &n.Kind, &n.Message, &n.IsRead, &n.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

// ListByMember retrieves a member's notifications, newest first.
func (r *Repository) ListByMember(ctx context.Context, memberID int64, limit, offset int, unreadOnly bool) ([]*Notification, int, error) {
	countQuery := `SELECT COUNT(*) FROM notifications WHERE member_id = $1`
	if unreadOnly {
		countQuery += ` AND is_read = false`
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, memberID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query := `
		SELECT id, group_id, member_id, kind, message, is_read, created_at
		FROM notifications
		WHERE member_id = $1
	`
	if unreadOnly {
		query += ` AND is_read = false`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, memberID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*Notification
	for rows.Next() {
		n := &Notification{}
		if err := rows.Scan(&n.ID, &n.GroupID, &n.MemberID, &n.Kind, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, total, rows.Err()
}

// MarkAsRead marks a notification as read.
func (r *Repository) MarkAsRead(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return nil
}

// MarkAllAsRead marks all of a member's notifications as read.
func (r *Repository) MarkAllAsRead(ctx context.Context, memberID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = true WHERE member_id = $1 AND is_read = false`, memberID)
	if err != nil {
		return fmt.Errorf("failed to mark all notifications as read: %w", err)
	}
	return nil
}

// UnreadCount returns the count of a member's unread notifications.
func (r *Repository) UnreadCount(ctx context.Context, memberID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE member_id = $1 AND is_read = false`
	if err := r.db.QueryRowContext(ctx, query, memberID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}
