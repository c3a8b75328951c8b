package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeWS_ShareIsPushedLive(t *testing.T) {
	env := newTestEnv(t)
	taskID := env.createTask(t, 1, "Plan")
	conn, _ := env.dial(t, 2, nil)

	w := env.do(t, 1, http.MethodPost, "/api/tasks/"+itoa(taskID)+"/share", gin.H{"user_id": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	push, err := readPush(t, conn, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, `User 1 shared task "Plan" with you`, push.Message)
	assert.False(t, push.Read)

	unread, err := env.store.ListUnread(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, push.ID, unread[0].ID, "the pushed record is the stored record")
}

func TestServeWS_StatusChangeReachesSharees(t *testing.T) {
	env := newTestEnv(t)
	taskID := env.createTask(t, 1, "Launch")
	require.Equal(t, http.StatusOK, env.do(t, 1, http.MethodPost, "/api/tasks/"+itoa(taskID)+"/share", gin.H{"user_id": 2}).Code)

	conn, _ := env.dial(t, 2, nil)
	w := env.do(t, 1, http.MethodPatch, "/api/tasks/"+itoa(taskID)+"/status", gin.H{"status": "Completed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	push, err := readPush(t, conn, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, `Task "Launch" status changed to Completed`, push.Message)

	unread, err := env.store.ListUnread(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, unread, "the actor is not notified")
}

func TestServeWS_NewerConnectionSupersedes(t *testing.T) {
	env := newTestEnv(t)
	taskID := env.createTask(t, 1, "Plan")

	first, firstCh := env.dial(t, 2, nil)
	second, secondCh := env.dial(t, 2, firstCh)

	require.Equal(t, http.StatusOK, env.do(t, 1, http.MethodPost, "/api/tasks/"+itoa(taskID)+"/share", gin.H{"user_id": 2}).Code)

	push, err := readPush(t, second, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, `User 1 shared task "Plan" with you`, push.Message)

	_, err = readPush(t, first, 100*time.Millisecond)
	assert.Error(t, err, "the superseded connection receives nothing")

	// The stale session ending must not unregister the live one.
	require.NoError(t, first.Close())
	time.Sleep(50 * time.Millisecond)
	ch, ok := env.registry.ChannelFor(2)
	require.True(t, ok)
	assert.Equal(t, secondCh, ch)
}

func TestServeWS_DisconnectUnregisters(t *testing.T) {
	env := newTestEnv(t)
	conn, _ := env.dial(t, 3, nil)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))

	assert.Eventually(t, func() bool {
		_, ok := env.registry.ChannelFor(3)
		return !ok
	}, 2*time.Second, 5*time.Millisecond)

	w := env.do(t, 0, http.MethodGet, "/api", nil)
	assert.JSONEq(t, `{"message":"Task Management System Backend Running","connected_users":0}`, w.Body.String())
}

func TestServeWS_RequiresToken(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, 0, http.MethodGet, "/ws", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAllowOrigins(t *testing.T) {
	check := allowOrigins([]string{"https://app.example.com"})

	req, _ := http.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, check(req), "non-browser clients send no Origin")

	req.Header.Set("Origin", "https://app.example.com")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(req))

	assert.True(t, allowOrigins(nil)(req))
}
