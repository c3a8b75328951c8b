package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"taskboard-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	CreateNotification(ctx context.Context, userID int64, message string) (*model.Notification, error)
	ListUnread(ctx context.Context, userID int64) ([]model.Notification, error)
	MarkRead(ctx context.Context, id, userID int64) (*model.Notification, error)

	CreateTask(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, id, userID int64) (*model.Task, error)
	ListTasks(ctx context.Context, userID int64, filter TaskFilter) ([]model.Task, error)
	UpdateTaskStatus(ctx context.Context, id, userID int64, status model.TaskStatus) (task *model.Task, changed bool, err error)
	ShareTask(ctx context.Context, id, ownerID, targetID int64) (*model.Task, error)
	TaskAudience(ctx context.Context, id int64) ([]int64, error)
	Overview(ctx context.Context, userID int64, today time.Time) (*Overview, error)

	SavePushSubscription(ctx context.Context, sub *model.PushSubscription) error
	DeletePushSubscription(ctx context.Context, endpoint string, userID int64) error
	DeleteExpiredPushSubscription(ctx context.Context, endpoint string) error
	PushSubscriptionsFor(ctx context.Context, userID int64) ([]model.PushSubscription, error)
}

// GormStore implements Store using GORM.
type GormStore struct {
	db  *gorm.DB
	now func() time.Time

	mu   sync.Mutex
	last time.Time
}

var _ Store = (*GormStore)(nil)

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, now: time.Now}
}

// DB exposes the underlying handle for health checks and tests.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// timestamp returns the current UTC time, never earlier than a value it has
// already handed out, so creation times are non-decreasing even if the wall
// clock steps backwards.
func (s *GormStore) timestamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.now().UTC()
	if t.Before(s.last) {
		t = s.last
	}
	s.last = t
	return t
}

// wrap maps gorm errors onto the package sentinels.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
