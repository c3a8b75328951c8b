package notification

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"taskboard-backend/internal/db"
	"taskboard-backend/internal/model"
	"taskboard-backend/internal/store"
)

// newTestStore returns a GORM store over a private in-memory SQLite database.
func newTestStore(t *testing.T) *store.GormStore {
	t.Helper()
	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(gormDB))
	return store.NewGormStore(gormDB)
}

// flakyStore fails persistence for selected users and stores the rest in memory.
type flakyStore struct {
	mu      sync.Mutex
	next    int64
	failFor map[int64]bool
	records []model.Notification
}

func (s *flakyStore) CreateNotification(_ context.Context, userID int64, message string) (*model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor[userID] {
		return nil, fmt.Errorf("%w: insert for user %d: disk full", store.ErrPersistence, userID)
	}
	s.next++
	n := model.Notification{ID: s.next, UserID: userID, Message: message, CreatedAt: time.Now().UTC()}
	s.records = append(s.records, n)
	return &n, nil
}

func (s *flakyStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// fakeChannel records what it is sent. SendFunc, when set, replaces the
// default behaviour.
type fakeChannel struct {
	mu       sync.Mutex
	sent     [][]byte
	SendFunc func(ctx context.Context, payload []byte) error
}

func (c *fakeChannel) Send(ctx context.Context, payload []byte) error {
	if c.SendFunc != nil {
		return c.SendFunc(ctx, payload)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, payload)
	return nil
}

func (c *fakeChannel) messages() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.sent...)
}

// recordingOffline captures fallback deliveries.
type recordingOffline struct {
	mu    sync.Mutex
	users []int64
}

func (r *recordingOffline) SendOffline(_ context.Context, userID int64, _ []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, userID)
}

func (r *recordingOffline) delivered() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.users...)
}
