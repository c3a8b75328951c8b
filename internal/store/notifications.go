package store

import (
	"context"
	"fmt"

	"taskboard-backend/internal/model"
)

// CreateNotification durably stores a new unread notification for userID.
func (s *GormStore) CreateNotification(ctx context.Context, userID int64, message string) (*model.Notification, error) {
	n := &model.Notification{
		UserID:    userID,
		Message:   message,
		CreatedAt: s.timestamp(),
		Read:      false,
	}
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return nil, wrap(fmt.Sprintf("create notification for user %d", userID), err)
	}
	return n, nil
}

// ListUnread returns the user's unread notifications, newest first.
func (s *GormStore) ListUnread(ctx context.Context, userID int64) ([]model.Notification, error) {
	notifications := []model.Notification{}
	err := s.db.WithContext(ctx).
		Where(map[string]any{"user_id": userID, "read": false}).
		Order("created_at DESC").
		Order("id DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, wrap(fmt.Sprintf("list unread notifications for user %d", userID), err)
	}
	return notifications, nil
}

// MarkRead flags a notification as read. Marking an already read notification
// succeeds again. A notification owned by someone else is reported as
// ErrNotFound and left untouched.
func (s *GormStore) MarkRead(ctx context.Context, id, userID int64) (*model.Notification, error) {
	op := fmt.Sprintf("mark notification %d read", id)

	var n model.Notification
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&n).Error; err != nil {
		return nil, wrap(op, err)
	}
	if n.Read {
		return &n, nil
	}

	// The owner predicate is repeated so the write can never land on a foreign row.
	err := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true).Error
	if err != nil {
		return nil, wrap(op, err)
	}
	n.Read = true
	return &n, nil
}
