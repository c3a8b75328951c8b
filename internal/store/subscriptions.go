package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"taskboard-backend/internal/model"
)

// SavePushSubscription creates a subscription keyed by endpoint, or refreshes
// the keys of one the same user already owns. An endpoint owned by another
// user is left alone and ErrForbidden is returned.
func (s *GormStore) SavePushSubscription(ctx context.Context, sub *model.PushSubscription) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "push_subscriptions.user_id = excluded.user_id"},
		}},
	}).Create(sub)
	if res.Error != nil {
		return wrap("save push subscription", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("save push subscription: endpoint belongs to another user: %w", ErrForbidden)
	}
	return nil
}

// DeletePushSubscription removes one of the user's subscriptions. Removing a
// subscription that does not exist is not an error.
func (s *GormStore) DeletePushSubscription(ctx context.Context, endpoint string, userID int64) error {
	err := s.db.WithContext(ctx).
		Where("endpoint = ? AND user_id = ?", endpoint, userID).
		Delete(&model.PushSubscription{}).Error
	return wrap("delete push subscription", err)
}

// DeleteExpiredPushSubscription drops a subscription the push service
// reported as gone, regardless of owner.
func (s *GormStore) DeleteExpiredPushSubscription(ctx context.Context, endpoint string) error {
	err := s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error
	return wrap(fmt.Sprintf("delete expired push subscription %s", endpoint), err)
}

// PushSubscriptionsFor lists the user's Web Push subscriptions.
func (s *GormStore) PushSubscriptionsFor(ctx context.Context, userID int64) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&subs).Error; err != nil {
		return nil, wrap(fmt.Sprintf("list push subscriptions for user %d", userID), err)
	}
	return subs, nil
}
