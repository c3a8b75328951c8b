package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"taskboard-backend/config"
	"taskboard-backend/internal/db"
	"taskboard-backend/internal/mw"
	"taskboard-backend/internal/notification"
	"taskboard-backend/internal/store"
	"taskboard-backend/internal/task"
)

const testSecret = "test-secret"

type testEnv struct {
	router   *gin.Engine
	store    *store.GormStore
	registry *notification.Registry
	pool     *notification.WorkerPool
	server   *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Migrate(gormDB))

	var cfg config.Config
	cfg.Auth.JWTSecret = testSecret
	cfg.Server.RateLimitPerSec = 1000
	cfg.Server.RateLimitBurst = 1000
	cfg.Database.DSN = "sqlite::memory:"
	cfg.ApplyDefaults()

	s := store.NewGormStore(gormDB)
	registry := notification.NewRegistry()
	dispatcher := notification.NewDispatcher(s, registry, notification.WithPushTimeout(time.Second))
	pool := notification.NewWorkerPool(2, 8, dispatcher)
	pool.Start(context.Background())

	shutdown, cancel := context.WithCancel(context.Background())
	h := NewHandler(Deps{
		Store:    s,
		Registry: registry,
		Tasks:    task.NewService(s, dispatcher, pool),
		Shutdown: shutdown,
	})
	router := NewRouter(h, cfg.Server, cfg.Auth)
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		cancel()
		server.Close()
		pool.Stop()
		sqlDB.Close()
	})
	return &testEnv{router: router, store: s, registry: registry, pool: pool, server: server}
}

func token(t *testing.T, userID int64) string {
	t.Helper()
	tok, err := mw.GenerateToken(testSecret, userID, time.Hour)
	require.NoError(t, err)
	return tok
}

// do performs a request as userID (0 for anonymous) against the router.
func (e *testEnv) do(t *testing.T, userID int64, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("Authorization", "Bearer "+token(t, userID))
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// dial opens a websocket as userID and waits until the server has registered
// a channel for the user that differs from prev.
func (e *testEnv) dial(t *testing.T, userID int64, prev notification.Channel) (*websocket.Conn, notification.Channel) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws?token=" + token(t, userID)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var ch notification.Channel
	require.Eventually(t, func() bool {
		current, ok := e.registry.ChannelFor(userID)
		if !ok || current == prev {
			return false
		}
		ch = current
		return true
	}, 2*time.Second, 5*time.Millisecond)
	return conn, ch
}

func (e *testEnv) createTask(t *testing.T, owner int64, title string) int64 {
	t.Helper()
	w := e.do(t, owner, http.MethodPost, "/api/tasks", gin.H{"title": title})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	return created.ID
}

func readPush(t *testing.T, conn *websocket.Conn, timeout time.Duration) (notification.Push, error) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	var p notification.Push
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return p, err
	}
	require.NoError(t, json.Unmarshal(msg, &p))
	return p, nil
}

func httptestGet(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}
